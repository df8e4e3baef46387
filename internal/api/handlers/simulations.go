package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang/geo/r2"
	"github.com/playmatatu/collisionlab/internal/auth"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/playmatatu/collisionlab/internal/sim"
	"github.com/playmatatu/collisionlab/internal/ws"
)

// CreateSimulation starts a simulation and returns a token that controls it
func CreateSimulation(mgr *sim.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Preset string `json:"preset"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.Preset == "" {
			req.Preset = "explore-2d"
		}

		s, err := mgr.Create(req.Preset)
		if err != nil {
			respondError(c, err)
			return
		}
		token, exp, err := auth.IssueSimulationToken(cfg, s.ID)
		if err != nil {
			log.Printf("[API] Failed to sign token for %s: %v", s.ID, err)
			mgr.Remove(s.ID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.Header("X-Sim-ID", s.ID)
		c.JSON(http.StatusCreated, gin.H{
			"simulation": s.Snapshot(),
			"token":      token,
			"expires_at": exp,
			"ws_path":    "/api/v1/simulations/" + s.ID + "/ws",
		})
	}
}

// ListSimulations summarizes every live simulation on this instance
func ListSimulations(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"simulations": mgr.List()})
	}
}

// GetSimulation returns a live snapshot, or the cached one when another
// instance owns the simulation
func GetSimulation(mgr *sim.Manager, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if s, err := mgr.Get(id); err == nil {
			c.JSON(http.StatusOK, gin.H{"simulation": s.Snapshot(), "viewers": hub.RoomSize(id), "cached": false})
			return
		}
		u, err := mgr.CachedSnapshot(c.Request.Context(), id)
		if err != nil {
			respondError(c, sim.ErrSimulationNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"simulation": u, "viewers": hub.RoomSize(id), "cached": true})
	}
}

// DeleteSimulation stops a simulation
func DeleteSimulation(mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := mgr.Remove(c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// withSimulation resolves :id, applies fn and publishes the result
func withSimulation(mgr *sim.Manager, fn func(c *gin.Context, s *sim.Simulation) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := mgr.Get(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := fn(c, s); err != nil {
			if !c.IsAborted() {
				respondError(c, err)
			}
			return
		}
		mgr.Publish(s)
		c.JSON(http.StatusOK, gin.H{"simulation": s.Snapshot()})
	}
}

// bind decodes the JSON body, answering 400 itself on failure
func bind(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return err
	}
	return nil
}

func PlaySimulation(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		s.Play()
		return nil
	})
}

func PauseSimulation(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		s.Pause()
		return nil
	})
}

// RestartSimulation returns balls to their restart points
func RestartSimulation(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		s.Restart()
		return nil
	})
}

// ResetSimulation returns the simulation to its preset
func ResetSimulation(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		return s.Reset()
	})
}

// StepSimulation advances a simulation manually by dt seconds
func StepSimulation(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		var req struct {
			DT float64 `json:"dt" binding:"required"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		return s.StepOnce(req.DT)
	})
}

// UpdateArea changes play-area and display settings
func UpdateArea(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		var req sim.AreaSettings
		if err := bind(c, &req); err != nil {
			return err
		}
		return s.Configure(req)
	})
}

// UpdateBall sets a ball's mass and/or velocity
func UpdateBall(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		id, ok := parseBallID(c)
		if !ok {
			c.Abort()
			return errBadRequest
		}
		var req struct {
			Mass     *float64  `json:"mass"`
			Velocity *r2.Point `json:"velocity"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		if req.Mass == nil && req.Velocity == nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "mass or velocity required"})
			return errBadRequest
		}
		if req.Mass != nil {
			if err := s.SetBallMass(id, *req.Mass); err != nil {
				return err
			}
		}
		if req.Velocity != nil {
			return s.SetBallVelocity(id, *req.Velocity)
		}
		return nil
	})
}

// DragBall moves a ball; release=true also makes it the restart point
func DragBall(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		id, ok := parseBallID(c)
		if !ok {
			c.Abort()
			return errBadRequest
		}
		var req struct {
			X       float64 `json:"x"`
			Y       float64 `json:"y"`
			Release bool    `json:"release"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		return s.DragBall(id, r2.Point{X: req.X, Y: req.Y}, req.Release)
	})
}

// SetBallCount changes how many balls are in play
func SetBallCount(mgr *sim.Manager) gin.HandlerFunc {
	return withSimulation(mgr, func(c *gin.Context, s *sim.Simulation) error {
		var req struct {
			Count int `json:"count" binding:"required"`
		}
		if err := bind(c, &req); err != nil {
			return err
		}
		return s.SetBallCount(req.Count)
	})
}
