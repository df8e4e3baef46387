package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/collisionlab/internal/admin"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/playmatatu/collisionlab/internal/sim"
)

// ListRuns pages through recorded simulation runs
func ListRuns(mgr *sim.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c, cfg.HistoryPageSize)
		runs, err := mgr.ListRuns(limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs, "limit": limit, "offset": offset})
	}
}

// RunEvents lists the collisions recorded for one run
func RunEvents(mgr *sim.Manager, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		runID, err := strconv.ParseInt(c.Param("run"), 10, 64)
		if err != nil || runID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
			return
		}
		limit, offset := pageParams(c, cfg.HistoryPageSize)
		events, err := mgr.RunEvents(runID, limit, offset)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"run_id": runID, "events": events, "limit": limit, "offset": offset})
	}
}

// PurgeRuns deletes ended runs created before the ?before= RFC3339 time
func PurgeRuns(mgr *sim.Manager, db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		before, err := time.Parse(time.RFC3339, c.Query("before"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "before must be an RFC3339 time"})
			return
		}
		n, err := mgr.PurgeRuns(before)
		user := currentClaims(c).Subject
		admin.LogInstructorAction(db, user, c.ClientIP(), c.FullPath(), "purge_runs",
			map[string]interface{}{"before": before.Format(time.RFC3339), "deleted": n}, err == nil)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": n})
	}
}
