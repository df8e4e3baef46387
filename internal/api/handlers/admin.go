package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/collisionlab/internal/admin"
	"github.com/playmatatu/collisionlab/internal/auth"
	"github.com/playmatatu/collisionlab/internal/config"
)

// InstructorLogin exchanges instructor credentials for a bearer token
func InstructorLogin(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "instructor accounts not configured"})
			return
		}

		var req struct {
			Username string `json:"username" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		username := strings.TrimSpace(req.Username)

		acc, err := admin.ValidateInstructor(db, username, req.Password)
		if err != nil {
			admin.LogInstructorAction(db, username, c.ClientIP(), c.FullPath(), "login", nil, false)
			if errors.Is(err, admin.ErrInstructorNotFound) || errors.Is(err, admin.ErrInvalidPassword) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		token, exp, err := auth.IssueInstructorToken(cfg, acc.Username)
		if err != nil {
			log.Printf("[ADMIN] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		admin.LogInstructorAction(db, acc.Username, c.ClientIP(), c.FullPath(), "login", nil, true)
		log.Printf("[ADMIN] Instructor %s logged in", acc.Username)
		c.JSON(http.StatusOK, gin.H{
			"token":        token,
			"expires_at":   exp,
			"display_name": acc.DisplayName,
			"roles":        acc.Roles,
		})
	}
}
