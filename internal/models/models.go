package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// SimulationRun is one simulation's lifetime as recorded in history
type SimulationRun struct {
	ID             int64        `db:"id" json:"id"`
	SimID          string       `db:"sim_id" json:"sim_id"`
	Preset         string       `db:"preset" json:"preset"`
	Policy         string       `db:"policy" json:"policy"`
	Dimension      int          `db:"dimension" json:"dimension"`
	BallCount      int          `db:"ball_count" json:"ball_count"`
	CollisionCount int          `db:"collision_count" json:"collision_count"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	EndedAt        sql.NullTime `db:"ended_at" json:"ended_at,omitempty"`
}

// CollisionEventRow is a handled collision persisted against its run
type CollisionEventRow struct {
	ID        int64         `db:"id" json:"id"`
	RunID     int64         `db:"run_id" json:"run_id"`
	Kind      string        `db:"kind" json:"kind"`
	BallIDs   pq.Int64Array `db:"ball_ids" json:"ball_ids"`
	SimTime   float64       `db:"sim_time" json:"sim_time"`
	Speed     float64       `db:"speed" json:"speed"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// InstructorAccount can browse and purge run history
type InstructorAccount struct {
	Username    string         `db:"username" json:"username"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// InstructorAudit records an instructor action
type InstructorAudit struct {
	ID        int64          `db:"id" json:"id"`
	Username  string         `db:"username" json:"username"`
	IP        string         `db:"ip" json:"ip"`
	Route     string         `db:"route" json:"route"`
	Action    string         `db:"action" json:"action"`
	Details   sql.NullString `db:"details" json:"details,omitempty"`
	Success   bool           `db:"success" json:"success"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
