package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/collisionlab/internal/api/handlers"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/playmatatu/collisionlab/internal/middleware"
	"github.com/playmatatu/collisionlab/internal/sim"
	"github.com/playmatatu/collisionlab/internal/ws"
)

// SetupRoutes configures all API routes. db may be nil, which disables
// instructor login and history.
func SetupRoutes(router *gin.Engine, db *sqlx.DB, cfg *config.Config, mgr *sim.Manager, hub *ws.Hub) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(mgr))
		v1.GET("/config", handlers.GetConfig(cfg))
		v1.GET("/presets", handlers.ListPresets)

		sims := v1.Group("/simulations")
		{
			sims.POST("", handlers.CreateSimulation(mgr, cfg))
			sims.GET("", handlers.ListSimulations(mgr))
			sims.GET("/:id", handlers.GetSimulation(mgr, hub))
			sims.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleSimWebSocket(mgr, hub, cfg))

			owned := sims.Group("/:id", handlers.SimulationAuth(cfg))
			{
				owned.DELETE("", handlers.DeleteSimulation(mgr))
				owned.POST("/play", handlers.PlaySimulation(mgr))
				owned.POST("/pause", handlers.PauseSimulation(mgr))
				owned.POST("/restart", handlers.RestartSimulation(mgr))
				owned.POST("/reset", handlers.ResetSimulation(mgr))
				owned.POST("/step", handlers.StepSimulation(mgr))
				owned.PATCH("/area", handlers.UpdateArea(mgr))
				owned.PUT("/balls", handlers.SetBallCount(mgr))
				owned.PATCH("/balls/:ball", handlers.UpdateBall(mgr))
				owned.POST("/balls/:ball/drag", handlers.DragBall(mgr))
			}
		}

		v1.POST("/instructor/login", handlers.InstructorLogin(db, cfg))

		history := v1.Group("/history", handlers.InstructorAuth(cfg))
		{
			history.GET("/runs", handlers.ListRuns(mgr, cfg))
			history.GET("/runs/:run/events", handlers.RunEvents(mgr, cfg))
			history.DELETE("/runs", handlers.PurgeRuns(mgr, db))
		}
	}
}
