package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playmatatu/collisionlab/internal/physics"
	"github.com/playmatatu/collisionlab/internal/sim"
)

const maxPageSize = 500

// errBadRequest marks a request already answered with 400
var errBadRequest = errors.New("bad request")

// respondError maps domain errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, sim.ErrSimulationNotFound), errors.Is(err, physics.ErrUnknownBall),
		errors.Is(err, sim.ErrSnapshotNotCached):
		status = http.StatusNotFound
	case errors.Is(err, sim.ErrTooManySimulations):
		status = http.StatusTooManyRequests
	case errors.Is(err, sim.ErrNoDatabase):
		status = http.StatusServiceUnavailable
	case errors.Is(err, sim.ErrUnknownPreset), errors.Is(err, sim.ErrInvalidSpeed),
		errors.Is(err, sim.ErrInvalidStep), errors.Is(err, physics.ErrInvalidMass),
		errors.Is(err, physics.ErrInvalidElasticity), errors.Is(err, physics.ErrBallCount),
		errors.Is(err, physics.ErrInelasticType), errors.Is(err, physics.ErrNegativeStep):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("[API] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseBallID(c *gin.Context) (physics.BallID, bool) {
	id, err := strconv.Atoi(c.Param("ball"))
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ball id"})
		return 0, false
	}
	return physics.BallID(id), true
}

// pageParams reads limit and offset query parameters
func pageParams(c *gin.Context, defaultLimit int) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
