package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/playmatatu/collisionlab/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		TickHz:             60,
		MaxSimulations:     3,
		MaxStepSeconds:     0.1,
		SnapshotTTLMinutes: 1,
		IdleExpiryMinutes:  30,
		ExpiryCheckSeconds: 60,
		RecentEventsPerSim: 5,
		HistoryPageSize:    50,
	}
}

type collector struct {
	mu      sync.Mutex
	updates []Update
}

func (c *collector) notify(u Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updates = append(c.updates, u)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.updates)
}

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(nil, nil, testConfig())
	var c collector
	m.SetLocalNotifier(c.notify)

	s, err := m.Create("inelastic")
	require.NoError(t, err)
	assert.Regexp(t, `^sim_[0-9a-f]{16}$`, s.ID)
	assert.Zero(t, s.RunID)
	assert.Equal(t, 1, c.count(), "creation publishes a first snapshot")

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("sim_missing")
	assert.ErrorIs(t, err, ErrSimulationNotFound)

	_, err = m.Create("no-such-preset")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestManagerLimit(t *testing.T) {
	m := NewManager(nil, nil, testConfig())
	for i := 0; i < 3; i++ {
		_, err := m.Create("intro")
		require.NoError(t, err)
	}
	_, err := m.Create("intro")
	assert.ErrorIs(t, err, ErrTooManySimulations)
	assert.Len(t, m.List(), 3)
}

func TestManagerRemove(t *testing.T) {
	m := NewManager(nil, nil, testConfig())
	s, err := m.Create("intro")
	require.NoError(t, err)

	require.NoError(t, m.Remove(s.ID))
	assert.ErrorIs(t, m.Remove(s.ID), ErrSimulationNotFound)
	assert.Empty(t, m.List())
}

func TestManagerTickAdvancesPlayingOnly(t *testing.T) {
	m := NewManager(nil, nil, testConfig())
	var c collector
	playing, err := m.Create("explore-2d")
	require.NoError(t, err)
	paused, err := m.Create("explore-1d")
	require.NoError(t, err)
	m.SetLocalNotifier(c.notify)

	playing.Play()
	assert.Equal(t, 1, m.Tick(0.05))
	assert.Equal(t, 1, c.count())
	assert.InDelta(t, 0.05, playing.Snapshot().Elapsed, 1e-12)
	assert.Zero(t, paused.Snapshot().Elapsed)
}

func TestManagerListNewestFirst(t *testing.T) {
	m := NewManager(nil, nil, testConfig())
	a, err := m.Create("intro")
	require.NoError(t, err)
	b, err := m.Create("intro")
	require.NoError(t, err)
	a.CreatedAt = time.Now().Add(-time.Minute)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)
}

func TestManagerExpireIdle(t *testing.T) {
	m := NewManager(nil, nil, testConfig())
	idle, err := m.Create("intro")
	require.NoError(t, err)
	busy, err := m.Create("intro")
	require.NoError(t, err)
	fresh, err := m.Create("intro")
	require.NoError(t, err)

	old := time.Now().Add(-time.Hour)
	idle.lastActivity = old
	busy.Play()
	busy.lastActivity = old

	expired := m.ExpireIdle(time.Now())
	assert.Equal(t, []string{idle.ID}, expired)

	_, err = m.Get(fresh.ID)
	assert.NoError(t, err)
	_, err = m.Get(busy.ID)
	assert.NoError(t, err)
}

func TestManagerWithoutBackends(t *testing.T) {
	m := NewManager(nil, nil, testConfig())
	assert.False(t, m.HasHistory())

	_, err := m.CachedSnapshot(context.Background(), "sim_x")
	assert.ErrorIs(t, err, ErrSnapshotNotCached)
	_, err = m.ListRuns(10, 0)
	assert.ErrorIs(t, err, ErrNoDatabase)
	_, err = m.RunEvents(1, 10, 0)
	assert.ErrorIs(t, err, ErrNoDatabase)
	_, err = m.PurgeRuns(time.Now())
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestFrameDelta(t *testing.T) {
	assert.InDelta(t, 0.016, frameDelta(16*time.Millisecond, 0.1), 1e-12)
	assert.Equal(t, 0.1, frameDelta(2*time.Second, 0.1))
	assert.Equal(t, 2.0, frameDelta(2*time.Second, 0))
}

func TestStepWorkerStopsOnCancel(t *testing.T) {
	m := NewManager(nil, nil, testConfig())
	s, err := m.Create("explore-2d")
	require.NoError(t, err)
	s.Play()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		StartStepWorker(ctx, m, testConfig())
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Snapshot().Elapsed > 0 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("step worker did not stop")
	}
}

func TestPresets(t *testing.T) {
	all := Presets()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}

	p, err := LookupPreset("explore-1d")
	require.NoError(t, err)
	p.Balls[0].Mass = 9
	again, _ := LookupPreset("explore-1d")
	assert.Equal(t, 0.5, again.Balls[0].Mass, "lookups hand out copies")

	for _, p := range all {
		_, err := newSimulation("sim_"+p.Name, p, 5)
		assert.NoError(t, err, p.Name)
	}
}
