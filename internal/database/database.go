package database

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/playmatatu/collisionlab/internal/config"
)

// Connect establishes a connection to PostgreSQL
func Connect(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[DB] Connected (max_open=%d max_idle=%d)", cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	return db, nil
}
