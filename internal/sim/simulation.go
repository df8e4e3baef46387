package sim

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"github.com/playmatatu/collisionlab/internal/physics"
	"golang.org/x/exp/constraints"
)

const (
	MinSpeed    = 0.0
	MaxSpeed    = 2.0
	NormalSpeed = 1.0
)

// Simulation is one running collision lab: a ball system, its play area and
// the engine stepping them. All access goes through mu.
type Simulation struct {
	ID        string
	Preset    string
	Policy    physics.ResponsePolicy
	CreatedAt time.Time
	RunID     int64

	mu           sync.Mutex
	area         *physics.PlayArea
	system       *physics.BallSystem
	engine       *physics.Engine
	elapsed      float64
	playing      bool
	speed        float64
	showPaths    bool
	lastActivity time.Time
	pending      []physics.CollisionEvent // handled since the last drain
	recent       []physics.CollisionEvent
	recentCap    int
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func newSimulation(id string, p Preset, recentCap int) (*Simulation, error) {
	area := physics.DefaultPlayArea(p.Dimension)
	if err := area.SetElasticity(p.Elasticity); err != nil {
		return nil, err
	}
	if err := area.SetInelasticType(p.InelasticType); err != nil {
		return nil, err
	}
	area.SetReflectsBorder(p.ReflectsBorder)
	area.SetGridVisible(p.GridVisible)

	size := physics.DefaultSizeModel()
	if p.ConstantSize {
		size.ConstantRadius = physics.ConstantRadius
	}
	system, err := physics.NewBallSystem(area, size, p.Balls, p.BallCount)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", p.Name, err)
	}

	now := time.Now()
	s := &Simulation{
		ID:           id,
		Preset:       p.Name,
		Policy:       p.Policy,
		CreatedAt:    now,
		area:         area,
		system:       system,
		speed:        NormalSpeed,
		lastActivity: now,
		recentCap:    max(recentCap, 1),
	}
	s.engine, err = physics.NewEngine(system, p.Policy, s.observe)
	if err != nil {
		return nil, fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return s, nil
}

// observe runs inside Engine.Step, which is always called with mu held.
func (s *Simulation) observe(ev physics.CollisionEvent) {
	s.pending = append(s.pending, ev)
	s.recent = append(s.recent, ev)
	if over := len(s.recent) - s.recentCap; over > 0 {
		s.recent = append(s.recent[:0], s.recent[over:]...)
	}
}

func (s *Simulation) touch() { s.lastActivity = time.Now() }

// LastActivity is the time of the last user-driven change.
func (s *Simulation) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Simulation) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// step must be called with mu held.
func (s *Simulation) step(dt float64) error {
	if err := s.engine.Step(dt, s.elapsed); err != nil {
		return err
	}
	s.elapsed += dt
	s.system.RecordPaths(s.elapsed)
	return nil
}

// Advance steps a playing simulation by wall-clock dt scaled by its speed.
// It reports whether the simulation moved.
func (s *Simulation) Advance(dt float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || dt <= 0 {
		return false, nil
	}
	if err := s.step(dt * s.speed); err != nil {
		return false, err
	}
	return true, nil
}

// StepOnce advances by dt regardless of the play state.
func (s *Simulation) StepOnce(dt float64) error {
	if !(dt > 0) || math.IsInf(dt, 1) {
		return ErrInvalidStep
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.step(dt)
}

func (s *Simulation) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.playing = true
}

func (s *Simulation) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.playing = false
}

// SetSpeed sets the time scale applied by Advance.
func (s *Simulation) SetSpeed(speed float64) error {
	if !(speed > MinSpeed && speed <= MaxSpeed) {
		return fmt.Errorf("speed %v: %w", speed, ErrInvalidSpeed)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.speed = clamp(speed, MinSpeed, MaxSpeed)
	return nil
}

// Restart returns every ball to its restart point and rewinds the clock.
func (s *Simulation) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.playing = false
	s.elapsed = 0
	s.system.RestartAll()
}

// Reset returns the simulation to its preset.
func (s *Simulation) Reset() error {
	p, err := LookupPreset(s.Preset)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.playing = false
	s.elapsed = 0
	s.recent = s.recent[:0]
	if err := s.system.LoadStates(p.Balls, p.BallCount); err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	s.system.SetConstantSize(p.ConstantSize)
	if err := s.area.SetElasticity(p.Elasticity); err != nil {
		return err
	}
	if err := s.area.SetInelasticType(p.InelasticType); err != nil {
		return err
	}
	s.area.SetReflectsBorder(p.ReflectsBorder)
	s.area.SetGridVisible(p.GridVisible)
	s.engine.ConfigurationChanged()
	return nil
}

// DragBall moves a ball; release also makes the new position its restart point.
func (s *Simulation) DragBall(id physics.BallID, target r2.Point, release bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if err := s.system.DragBall(id, target); err != nil {
		return err
	}
	if release {
		return s.system.ReleaseBall(id)
	}
	return nil
}

func (s *Simulation) SetBallMass(id physics.BallID, mass float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.system.SetBallMass(id, mass)
}

func (s *Simulation) SetBallVelocity(id physics.BallID, v r2.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.system.SetBallVelocity(id, v)
}

func (s *Simulation) SetBallCount(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.Policy == physics.PolicySticking && n != 2 {
		return fmt.Errorf("sticking simulation needs 2 balls, asked for %d: %w", n, physics.ErrBallCount)
	}
	return s.system.SetBallCount(n)
}

// AreaSettings carries optional play-area changes; nil fields are left alone.
type AreaSettings struct {
	Elasticity     *float64               `json:"elasticity"`
	ReflectsBorder *bool                  `json:"reflects_border"`
	GridVisible    *bool                  `json:"grid_visible"`
	InelasticType  *physics.InelasticType `json:"inelastic_type"`
	ConstantSize   *bool                  `json:"constant_size"`
	ShowPaths      *bool                  `json:"show_paths"`
	Speed          *float64               `json:"speed"`
}

// Configure applies settings atomically: either every field is valid and
// applied, or nothing changes.
func (s *Simulation) Configure(in AreaSettings) error {
	if in.Elasticity != nil && !(*in.Elasticity >= 0 && *in.Elasticity <= 1) {
		return fmt.Errorf("elasticity %v: %w", *in.Elasticity, physics.ErrInvalidElasticity)
	}
	if in.InelasticType != nil && *in.InelasticType != physics.InelasticSlip && *in.InelasticType != physics.InelasticStick {
		return fmt.Errorf("%q: %w", *in.InelasticType, physics.ErrInelasticType)
	}
	if in.Speed != nil && !(*in.Speed > MinSpeed && *in.Speed <= MaxSpeed) {
		return fmt.Errorf("speed %v: %w", *in.Speed, ErrInvalidSpeed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if in.Elasticity != nil {
		s.area.SetElasticity(*in.Elasticity)
	}
	if in.InelasticType != nil {
		s.area.SetInelasticType(*in.InelasticType)
	}
	if in.ReflectsBorder != nil {
		s.area.SetReflectsBorder(*in.ReflectsBorder)
	}
	if in.GridVisible != nil {
		s.area.SetGridVisible(*in.GridVisible)
	}
	if in.ConstantSize != nil {
		s.system.SetConstantSize(*in.ConstantSize)
	}
	if in.ShowPaths != nil {
		s.showPaths = *in.ShowPaths
	}
	if in.Speed != nil {
		s.speed = clamp(*in.Speed, MinSpeed, MaxSpeed)
	}
	s.engine.ConfigurationChanged()
	return nil
}

// DrainEvents returns the collisions handled since the previous drain.
func (s *Simulation) DrainEvents() []physics.CollisionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// ClusterView describes the active rotating cluster.
type ClusterView struct {
	ID              physics.ClusterID    `json:"id" msgpack:"id"`
	Members         []physics.BallID     `json:"members" msgpack:"members"`
	AngularVelocity float64              `json:"angular_velocity" msgpack:"angular_velocity"`
	CenterOfMass    physics.CenterOfMass `json:"center_of_mass" msgpack:"center_of_mass"`
	Rotation        float64              `json:"rotation" msgpack:"rotation"`
}

// Update is the state pushed to viewers after every change.
type Update struct {
	Type          string                   `json:"type" msgpack:"type"`
	SimID         string                   `json:"sim_id" msgpack:"sim_id"`
	Preset        string                   `json:"preset" msgpack:"preset"`
	Elapsed       float64                  `json:"elapsed" msgpack:"elapsed"`
	Playing       bool                     `json:"playing" msgpack:"playing"`
	Speed         float64                  `json:"speed" msgpack:"speed"`
	Area          physics.PlayArea         `json:"area" msgpack:"area"`
	Balls         []physics.BallSnapshot   `json:"balls" msgpack:"balls"`
	Cluster       *ClusterView             `json:"cluster,omitempty" msgpack:"cluster,omitempty"`
	TotalMomentum r2.Point                 `json:"total_momentum" msgpack:"total_momentum"`
	KineticEnergy float64                  `json:"kinetic_energy" msgpack:"kinetic_energy"`
	CenterOfMass  r2.Point                 `json:"center_of_mass" msgpack:"center_of_mass"`
	RecentEvents  []physics.CollisionEvent `json:"recent_events" msgpack:"recent_events"`
	CapturedAt    time.Time                `json:"captured_at" msgpack:"captured_at"`
}

// Snapshot captures the simulation for renderers.
func (s *Simulation) Snapshot() Update {
	s.mu.Lock()
	defer s.mu.Unlock()

	com, _ := s.system.CenterOfMass()
	u := Update{
		Type:          "snapshot",
		SimID:         s.ID,
		Preset:        s.Preset,
		Elapsed:       s.elapsed,
		Playing:       s.playing,
		Speed:         s.speed,
		Area:          *s.area,
		Balls:         s.system.Snapshot(s.showPaths),
		TotalMomentum: s.system.TotalMomentum(),
		KineticEnergy: s.system.TotalKineticEnergy(),
		CenterOfMass:  com,
		RecentEvents:  append([]physics.CollisionEvent(nil), s.recent...),
		CapturedAt:    time.Now().UTC(),
	}
	if c := s.engine.Cluster(); c != nil {
		u.Cluster = &ClusterView{
			ID:              c.ID,
			Members:         c.Members(),
			AngularVelocity: c.AngularVelocity,
			CenterOfMass:    c.CenterOfMass(),
			Rotation:        c.Rotation(),
		}
	}
	return u
}

// Summary is the listing view of a simulation.
type Summary struct {
	ID        string    `json:"id"`
	Preset    string    `json:"preset"`
	Policy    string    `json:"policy"`
	Playing   bool      `json:"playing"`
	Balls     int       `json:"balls"`
	Elapsed   float64   `json:"elapsed"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Simulation) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		ID:        s.ID,
		Preset:    s.Preset,
		Policy:    s.Policy.String(),
		Playing:   s.playing,
		Balls:     s.system.Len(),
		Elapsed:   s.elapsed,
		CreatedAt: s.CreatedAt,
	}
}
