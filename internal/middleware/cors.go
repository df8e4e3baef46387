package middleware

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/collisionlab/internal/config"
)

// originPolicy decides which browser origins may drive the lab. In
// development any localhost port is accepted; elsewhere only the configured
// origins and the frontend URL are.
type originPolicy struct {
	dev     bool
	allowed map[string]bool
}

func newOriginPolicy(cfg *config.Config) originPolicy {
	p := originPolicy{
		dev:     cfg.Environment == "development",
		allowed: make(map[string]bool),
	}
	for _, o := range cfg.AllowedOrigins {
		p.allowed[strings.TrimRight(o, "/")] = true
	}
	if cfg.FrontendURL != "" {
		p.allowed[strings.TrimRight(cfg.FrontendURL, "/")] = true
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	if p.dev {
		return strings.HasPrefix(origin, "http://localhost:") ||
			strings.HasPrefix(origin, "http://127.0.0.1:")
	}
	return p.allowed[origin]
}

func (p originPolicy) origins() []string {
	out := make([]string, 0, len(p.allowed))
	for o := range p.allowed {
		out = append(out, o)
	}
	return out
}

// CORSMiddleware returns a CORS middleware configured for the environment
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	policy := newOriginPolicy(cfg)
	if policy.dev {
		log.Printf("[CORS] Development: allowing any localhost origin")
	} else {
		log.Printf("[CORS] Allowed origins: %v", policy.origins())
	}

	return cors.New(cors.Config{
		AllowOriginFunc:  policy.allows,
		AllowCredentials: true,
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin", "Content-Length", "Content-Type", "Authorization",
			"X-Sim-Token", "Accept", "Cache-Control", "X-Requested-With",
		},
		ExposeHeaders: []string{"Content-Length", "X-Sim-ID"},
		MaxAge:        12 * time.Hour,
	})
}

// WebSocketCORSCheck applies the same origin policy to WebSocket upgrades,
// which browsers do not preflight.
func WebSocketCORSCheck(cfg *config.Config) gin.HandlerFunc {
	policy := newOriginPolicy(cfg)
	return func(c *gin.Context) {
		if !strings.Contains(strings.ToLower(c.GetHeader("Connection")), "upgrade") ||
			!strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "WebSocket origin required"})
			return
		}
		if !policy.allows(origin) {
			log.Printf("[CORS] Rejected WebSocket origin %q", origin)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "WebSocket origin not allowed"})
			return
		}
		c.Next()
	}
}
