package main

import (
	"log"
	"os"
	"strings"

	"github.com/playmatatu/collisionlab/internal/admin"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/playmatatu/collisionlab/internal/database"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	username := os.Getenv("INSTRUCTOR_USERNAME")
	if username == "" {
		username = "instructor"
		log.Printf("Using default instructor username: %s", username)
	}

	password := os.Getenv("INSTRUCTOR_PASSWORD")
	if password == "" {
		password = "change-me-in-production"
		log.Printf("WARNING: Using default instructor password. Set INSTRUCTOR_PASSWORD env var in production!")
	}

	displayName := os.Getenv("INSTRUCTOR_DISPLAY_NAME")
	if displayName == "" {
		displayName = "Instructor"
	}

	roles := []string{"instructor"}
	if extra := os.Getenv("INSTRUCTOR_ROLES"); extra != "" {
		roles = strings.Split(extra, ",")
	}

	if err := admin.CreateInstructorAccount(db, username, displayName, password, roles); err != nil {
		log.Fatalf("Failed to create instructor account: %v", err)
	}

	log.Printf("Instructor account created/updated")
	log.Printf("  Username: %s", username)
	log.Printf("  Display Name: %s", displayName)
	log.Printf("  Roles: %v", roles)
	log.Println("Log in with POST /api/v1/instructor/login")
}
