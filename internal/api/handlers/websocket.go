package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/playmatatu/collisionlab/internal/sim"
	"github.com/playmatatu/collisionlab/internal/ws"
)

// HandleSimWebSocket streams a simulation's snapshots to a viewer
func HandleSimWebSocket(mgr *sim.Manager, hub *ws.Hub, cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket(mgr, hub, cfg)
}
