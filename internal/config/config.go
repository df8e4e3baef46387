package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	DBMaxOpenConns int
	DBMaxIdleConns int
	MigrationsDir  string
	MigrateOnStart bool

	// Redis
	RedisURL string

	// Server
	Port           string
	FrontendURL    string
	AllowedOrigins []string

	// Simulation
	TickHz             int
	MaxSimulations     int
	MaxStepSeconds     float64
	SnapshotTTLMinutes int
	IdleExpiryMinutes  int
	ExpiryCheckSeconds int
	RecentEventsPerSim int
	HistoryPageSize    int

	// Security
	JWTSecret               string
	SimulationTokenTTLHours int
	InstructorTokenTTLHours int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/collisionlab?sslmode=disable"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:           getEnv("APP_PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"https://lab.playmatatu.com", "https://playmatatu.com"}),

		// Simulation
		TickHz:             getEnvInt("SIM_TICK_HZ", 60),
		MaxSimulations:     getEnvInt("SIM_MAX_SIMULATIONS", 200),
		MaxStepSeconds:     getEnvFloat("SIM_MAX_STEP_SECONDS", 0.1),
		SnapshotTTLMinutes: getEnvInt("SIM_SNAPSHOT_TTL_MINUTES", 60),
		IdleExpiryMinutes:  getEnvInt("SIM_IDLE_EXPIRY_MINUTES", 30),
		ExpiryCheckSeconds: getEnvInt("SIM_EXPIRY_CHECK_SECONDS", 60),
		RecentEventsPerSim: getEnvInt("SIM_RECENT_EVENTS", 20),
		HistoryPageSize:    getEnvInt("HISTORY_PAGE_SIZE", 50),

		// Security
		JWTSecret:               getEnv("JWT_SECRET", "change-me-in-production"),
		SimulationTokenTTLHours: getEnvInt("SIM_TOKEN_TTL_HOURS", 12),
		InstructorTokenTTLHours: getEnvInt("INSTRUCTOR_TOKEN_TTL_HOURS", 8),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blank entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
