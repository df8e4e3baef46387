package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/playmatatu/collisionlab/internal/physics"
	"github.com/playmatatu/collisionlab/internal/sim"
)

// GetConfig returns the limits the frontend validates input against
func GetConfig(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"tick_hz":         cfg.TickHz,
			"max_simulations": cfg.MaxSimulations,
			"min_mass":        physics.MinMass,
			"max_mass":        physics.MaxMass,
			"min_balls":       physics.MinBalls,
			"max_balls":       physics.MaxBalls,
			"constant_radius": physics.ConstantRadius,
			"path_lifetime":   physics.PathLifetime,
			"max_speed":       sim.MaxSpeed,
			"formats":         []string{"json", "msgpack"},
		})
	}
}

// ListPresets returns every simulation preset
func ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": sim.Presets()})
}
