package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/collisionlab/internal/api"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/playmatatu/collisionlab/internal/database"
	"github.com/playmatatu/collisionlab/internal/migrations"
	"github.com/playmatatu/collisionlab/internal/redis"
	"github.com/playmatatu/collisionlab/internal/sim"
	"github.com/playmatatu/collisionlab/internal/ws"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	production := cfg.Environment == "production"

	// History database is optional outside production
	var db *sqlx.DB
	if cfg.DatabaseURL != "" {
		conn, err := database.Connect(cfg)
		switch {
		case err == nil:
			db = conn
			defer db.Close()
		case production:
			log.Fatalf("Failed to connect to database: %v", err)
		default:
			log.Printf("[DB] Unavailable, run history disabled: %v", err)
		}
	}

	if db != nil && cfg.MigrateOnStart {
		log.Println("[MIGRATE] Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Redis is optional outside production; without it snapshots are delivered in-process
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		client, err := redis.Connect(cfg.RedisURL)
		switch {
		case err == nil:
			rdb = client
			defer rdb.Close()
		case production:
			log.Fatalf("Failed to connect to Redis: %v", err)
		default:
			log.Printf("[REDIS] Unavailable, using local fan-out: %v", err)
		}
	}

	mgr := sim.NewManager(db, rdb, cfg)
	hub := ws.NewHub()
	if rdb == nil {
		mgr.SetLocalNotifier(hub.BroadcastToSim)
	}

	if production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, cfg, mgr, hub)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	ws.StartEventSubscriber(ctx, rdb, hub)
	g.Go(func() error {
		sim.StartStepWorker(ctx, mgr, cfg)
		return nil
	})
	g.Go(func() error {
		log.Printf("Starting collision lab server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
