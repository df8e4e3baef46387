package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/collisionlab/internal/auth"
	"github.com/playmatatu/collisionlab/internal/config"
)

const claimsKey = "claims"

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.GetHeader("X-Sim-Token")
}

// SimulationAuth requires a token that controls the :id simulation
func SimulationAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := auth.Parse(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if !claims.Authorizes(c.Param("id")) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token does not control this simulation"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// InstructorAuth requires an instructor token
func InstructorAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.Parse(cfg, bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.Role != auth.RoleInstructor {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "instructor access required"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func currentClaims(c *gin.Context) auth.Claims {
	v, _ := c.Get(claimsKey)
	claims, _ := v.(auth.Claims)
	return claims
}
