package admin

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/collisionlab/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInstructorNotFound = errors.New("instructor account not found")
	ErrInvalidPassword    = errors.New("invalid password")
)

// GetInstructor retrieves an instructor account by username
func GetInstructor(db *sqlx.DB, username string) (*models.InstructorAccount, error) {
	var acc models.InstructorAccount
	err := db.Get(&acc, `SELECT username, display_name, token_hash, roles, created_at, updated_at FROM instructor_accounts WHERE username=$1`, username)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// VerifyPassword checks a plain password against its bcrypt hash
func VerifyPassword(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// HashPassword bcrypt-hashes a password at the default cost
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CreateInstructorAccount creates or replaces an instructor (used for seeding)
func CreateInstructorAccount(db *sqlx.DB, username, displayName, password string, roles []string) error {
	hashed, err := HashPassword(password)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		roles = []string{"instructor"}
	}

	_, err = db.Exec(`
		INSERT INTO instructor_accounts (username, display_name, token_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (username) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			token_hash = EXCLUDED.token_hash,
			roles = EXCLUDED.roles,
			updated_at = NOW()
	`, username, displayName, hashed, pq.Array(roles))
	return err
}

// ValidateInstructor checks a username and password pair
func ValidateInstructor(db *sqlx.DB, username, password string) (*models.InstructorAccount, error) {
	acc, err := GetInstructor(db, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[ADMIN] No instructor account for %s", username)
			return nil, ErrInstructorNotFound
		}
		log.Printf("[ADMIN] Database error: %v", err)
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !VerifyPassword(acc.TokenHash, password) {
		log.Printf("[ADMIN] Password check failed for %s", username)
		return nil, ErrInvalidPassword
	}
	return acc, nil
}

// LogInstructorAction records an instructor action in the audit log
func LogInstructorAction(db *sqlx.DB, username, ip, route, action string, details map[string]interface{}, success bool) error {
	if db == nil {
		return nil
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		log.Printf("[ADMIN] Failed to marshal audit details: %v", err)
		detailsJSON = []byte("{}")
	}

	_, err = db.Exec(`
		INSERT INTO instructor_audit (username, ip, route, action, details, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, username, ip, route, action, string(detailsJSON), success)
	if err != nil {
		log.Printf("[ADMIN] Failed to log instructor action: %v", err)
	}
	return err
}

// GetAuditLogs retrieves recent audit entries with pagination
func GetAuditLogs(db *sqlx.DB, limit, offset int) ([]models.InstructorAudit, error) {
	var logs []models.InstructorAudit
	err := db.Select(&logs, `
		SELECT id, username, ip, route, action, details, success, created_at
		FROM instructor_audit
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return logs, err
}
