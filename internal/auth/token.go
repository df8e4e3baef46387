package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/playmatatu/collisionlab/internal/config"
)

const (
	RoleController = "controller"
	RoleInstructor = "instructor"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the subset of a parsed token the API acts on.
type Claims struct {
	Role    string
	SimID   string // set for controller tokens
	Subject string // instructor username
}

// Authorizes reports whether the holder may drive simID.
func (c Claims) Authorizes(simID string) bool {
	if c.Role == RoleInstructor {
		return true
	}
	return c.Role == RoleController && c.SimID == simID
}

func sign(cfg *config.Config, claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// IssueSimulationToken grants control of one simulation.
func IssueSimulationToken(cfg *config.Config, simID string) (string, time.Time, error) {
	exp := time.Now().Add(time.Duration(cfg.SimulationTokenTTLHours) * time.Hour)
	signed, err := sign(cfg, jwt.MapClaims{"sim_id": simID, "role": RoleController, "exp": exp.Unix()})
	return signed, exp, err
}

// IssueInstructorToken grants history access and control of every simulation.
func IssueInstructorToken(cfg *config.Config, username string) (string, time.Time, error) {
	exp := time.Now().Add(time.Duration(cfg.InstructorTokenTTLHours) * time.Hour)
	signed, err := sign(cfg, jwt.MapClaims{"sub": username, "role": RoleInstructor, "exp": exp.Unix()})
	return signed, exp, err
}

// Parse validates an HS256 token and extracts its claims.
func Parse(cfg *config.Config, token string) (Claims, error) {
	parsed, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	var c Claims
	c.Role, _ = mc["role"].(string)
	c.SimID, _ = mc["sim_id"].(string)
	c.Subject, _ = mc["sub"].(string)
	switch {
	case c.Role == RoleController && c.SimID != "":
	case c.Role == RoleInstructor && c.Subject != "":
	default:
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}
