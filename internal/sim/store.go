package sim

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/playmatatu/collisionlab/internal/models"
	"github.com/playmatatu/collisionlab/internal/physics"
)

func (m *Manager) recordRun(s *Simulation, p Preset) (int64, error) {
	var id int64
	err := m.db.Get(&id, `
		INSERT INTO simulation_runs (sim_id, preset, policy, dimension, ball_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, s.ID, p.Name, p.Policy.String(), int(p.Dimension), p.BallCount, s.CreatedAt)
	return id, err
}

func ballIDs(ev physics.CollisionEvent) []int64 {
	ids := make([]int64, len(ev.BallIDs))
	for i, id := range ev.BallIDs {
		ids[i] = int64(id)
	}
	return ids
}

// recordCollisionEvents appends events to a run in one transaction.
func (m *Manager) recordCollisionEvents(runID int64, events []physics.CollisionEvent) error {
	tx, err := m.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		if _, err := tx.Exec(`
			INSERT INTO collision_events (run_id, kind, ball_ids, sim_time, speed)
			VALUES ($1, $2, $3, $4, $5)
		`, runID, string(ev.Kind), pq.Array(ballIDs(ev)), ev.Time, ev.Speed); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if _, err := tx.Exec(`UPDATE simulation_runs SET collision_count = collision_count + $1 WHERE id = $2`, len(events), runID); err != nil {
		return fmt.Errorf("update count: %w", err)
	}
	return tx.Commit()
}

func (m *Manager) markRunEnded(runID int64) error {
	_, err := m.db.Exec(`UPDATE simulation_runs SET ended_at = NOW() WHERE id = $1 AND ended_at IS NULL`, runID)
	return err
}

// ListRuns pages through recorded runs, newest first.
func (m *Manager) ListRuns(limit, offset int) ([]models.SimulationRun, error) {
	if m.db == nil {
		return nil, ErrNoDatabase
	}
	var runs []models.SimulationRun
	err := m.db.Select(&runs, `
		SELECT id, sim_id, preset, policy, dimension, ball_count, collision_count, created_at, ended_at
		FROM simulation_runs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return runs, err
}

// RunEvents returns a run's collisions in simulation-time order.
func (m *Manager) RunEvents(runID int64, limit, offset int) ([]models.CollisionEventRow, error) {
	if m.db == nil {
		return nil, ErrNoDatabase
	}
	var events []models.CollisionEventRow
	err := m.db.Select(&events, `
		SELECT id, run_id, kind, ball_ids, sim_time, speed, created_at
		FROM collision_events
		WHERE run_id = $1
		ORDER BY sim_time, id
		LIMIT $2 OFFSET $3
	`, runID, limit, offset)
	return events, err
}

// PurgeRuns deletes ended runs older than before, with their events.
func (m *Manager) PurgeRuns(before time.Time) (int64, error) {
	if m.db == nil {
		return 0, ErrNoDatabase
	}
	res, err := m.db.Exec(`DELETE FROM simulation_runs WHERE ended_at IS NOT NULL AND created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
