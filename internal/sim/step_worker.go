package sim

import (
	"context"
	"log"
	"time"

	"github.com/playmatatu/collisionlab/internal/config"
)

// StartStepWorker drives every playing simulation at cfg.TickHz and expires
// idle ones. It returns when ctx is done.
func StartStepWorker(ctx context.Context, m *Manager, cfg *config.Config) {
	if m == nil || cfg == nil || cfg.TickHz <= 0 {
		log.Println("[SIM] Manager or tick rate missing; step worker not started")
		return
	}

	tick := time.NewTicker(time.Second / time.Duration(cfg.TickHz))
	defer tick.Stop()
	expiry := time.NewTicker(time.Duration(max(cfg.ExpiryCheckSeconds, 1)) * time.Second)
	defer expiry.Stop()

	log.Printf("[SIM] Step worker started at %d Hz", cfg.TickHz)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Println("[SIM] Step worker stopping")
			return
		case now := <-tick.C:
			m.Tick(frameDelta(now.Sub(last), cfg.MaxStepSeconds))
			last = now
		case now := <-expiry.C:
			m.ExpireIdle(now)
		}
	}
}

// frameDelta converts a wall-clock gap to a step, capped so a stalled
// process does not fire one huge step.
func frameDelta(gap time.Duration, maxStep float64) float64 {
	dt := gap.Seconds()
	if maxStep > 0 {
		dt = clamp(dt, 0, maxStep)
	}
	return dt
}
