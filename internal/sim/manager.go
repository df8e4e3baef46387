package sim

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis channel snapshots are fanned out on.
const EventsChannel = "sim_events"

// Manager owns every live simulation.
type Manager struct {
	sims   map[string]*Simulation // keyed by simulation ID
	rdb    *redis.Client          // snapshot cache and fan-out; optional
	db     *sqlx.DB               // run history; optional
	config *config.Config
	notify func(Update) // local delivery when Redis is absent
	mu     sync.RWMutex
}

// NewManager creates a manager. db and rdb may be nil.
func NewManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *Manager {
	return &Manager{
		sims:   make(map[string]*Simulation),
		rdb:    rdb,
		db:     db,
		config: cfg,
	}
}

// SetLocalNotifier installs the in-process delivery used without Redis.
func (m *Manager) SetLocalNotifier(fn func(Update)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = fn
}

// HasHistory reports whether run history is persisted.
func (m *Manager) HasHistory() bool { return m.db != nil }

func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateSimID() string {
	return "sim_" + generateToken(8)
}

// Create starts a paused simulation from a preset.
func (m *Manager) Create(presetName string) (*Simulation, error) {
	p, err := LookupPreset(presetName)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	if len(m.sims) >= m.config.MaxSimulations {
		m.mu.Unlock()
		return nil, fmt.Errorf("limit %d: %w", m.config.MaxSimulations, ErrTooManySimulations)
	}
	s, err := newSimulation(generateSimID(), p, m.config.RecentEventsPerSim)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sims[s.ID] = s
	m.mu.Unlock()

	if m.db != nil {
		runID, err := m.recordRun(s, p)
		if err != nil {
			log.Printf("[SIM] Failed to record run for %s: %v", s.ID, err)
		} else {
			s.RunID = runID
		}
	}

	log.Printf("[SIM] Created %s from preset %s (policy=%s balls=%d)", s.ID, p.Name, p.Policy, p.BallCount)
	m.Publish(s)
	return s, nil
}

// Get returns a live simulation.
func (m *Manager) Get(id string) (*Simulation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sims[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSimulationNotFound)
	}
	return s, nil
}

// Remove stops tracking a simulation and closes its run.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	s, ok := m.sims[id]
	delete(m.sims, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrSimulationNotFound)
	}

	m.flushEvents(s)
	if m.db != nil && s.RunID != 0 {
		if err := m.markRunEnded(s.RunID); err != nil {
			log.Printf("[SIM] Failed to close run %d: %v", s.RunID, err)
		}
	}
	if m.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		m.rdb.Del(ctx, snapshotKey(id))
	}
	log.Printf("[SIM] Removed %s", id)
	return nil
}

// List summarizes live simulations, newest first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	sims := make([]*Simulation, 0, len(m.sims))
	for _, s := range m.sims {
		sims = append(sims, s)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(sims))
	for _, s := range sims {
		out = append(out, s.Summary())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (m *Manager) snapshotList() []*Simulation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sims := make([]*Simulation, 0, len(m.sims))
	for _, s := range m.sims {
		sims = append(sims, s)
	}
	return sims
}

// Tick advances every playing simulation by dt and publishes the ones that
// moved. A simulation whose step fails is paused.
func (m *Manager) Tick(dt float64) int {
	moved := 0
	for _, s := range m.snapshotList() {
		ok, err := s.Advance(dt)
		if err != nil {
			log.Printf("[SIM] Step failed for %s, pausing: %v", s.ID, err)
			s.Pause()
			continue
		}
		if !ok {
			continue
		}
		moved++
		m.Publish(s)
		m.flushEvents(s)
	}
	return moved
}

// flushEvents persists handled collisions in the background.
func (m *Manager) flushEvents(s *Simulation) {
	events := s.DrainEvents()
	if len(events) == 0 || m.db == nil || s.RunID == 0 {
		return
	}
	go func(runID int64) {
		if err := m.recordCollisionEvents(runID, events); err != nil {
			log.Printf("[SIM] Failed to record %d events for run %d: %v", len(events), runID, err)
		}
	}(s.RunID)
}

func snapshotKey(id string) string {
	return "sim:" + id + ":snapshot"
}

// Publish caches the latest snapshot and fans it out to viewers.
func (m *Manager) Publish(s *Simulation) {
	u := s.Snapshot()

	m.mu.RLock()
	notify := m.notify
	m.mu.RUnlock()

	if m.rdb == nil {
		if notify != nil {
			notify(u)
		}
		return
	}

	data, err := json.Marshal(u)
	if err != nil {
		log.Printf("[SIM] Failed to marshal snapshot for %s: %v", s.ID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ttl := time.Duration(m.config.SnapshotTTLMinutes) * time.Minute
	if err := m.rdb.SetEx(ctx, snapshotKey(s.ID), data, ttl).Err(); err != nil {
		log.Printf("[SIM] Failed to cache snapshot for %s: %v", s.ID, err)
	}
	if err := m.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		log.Printf("[SIM] Publish failed for %s, delivering locally: %v", s.ID, err)
		if notify != nil {
			notify(u)
		}
	}
}

// CachedSnapshot reads the last published snapshot from Redis. It serves
// viewers of simulations owned by another instance.
func (m *Manager) CachedSnapshot(ctx context.Context, id string) (Update, error) {
	if m.rdb == nil {
		return Update{}, ErrSnapshotNotCached
	}
	data, err := m.rdb.Get(ctx, snapshotKey(id)).Bytes()
	if err == redis.Nil {
		return Update{}, fmt.Errorf("%s: %w", id, ErrSnapshotNotCached)
	}
	if err != nil {
		return Update{}, err
	}
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, err
	}
	return u, nil
}

// ExpireIdle removes simulations untouched for the configured idle window
// that are not playing.
func (m *Manager) ExpireIdle(now time.Time) []string {
	limit := time.Duration(m.config.IdleExpiryMinutes) * time.Minute
	var expired []string
	for _, s := range m.snapshotList() {
		if s.Playing() || now.Sub(s.LastActivity()) < limit {
			continue
		}
		if err := m.Remove(s.ID); err == nil {
			expired = append(expired, s.ID)
		}
	}
	if len(expired) > 0 {
		log.Printf("[SIM] Expired %d idle simulations", len(expired))
	}
	return expired
}
