package physics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// BallID is a stable index into a BallSystem's arena.
type BallID int

// BallState is an immutable snapshot of a ball's kinematics.
type BallState struct {
	Position r2.Point `json:"position" msgpack:"position"`
	Velocity r2.Point `json:"velocity" msgpack:"velocity"`
	Mass     float64  `json:"mass" msgpack:"mass"`
}

// Validate checks that the snapshot describes a physical ball.
func (s BallState) Validate() error {
	if !(s.Mass > 0) || !isFiniteScalar(s.Mass) {
		return fmt.Errorf("mass %v: %w", s.Mass, ErrInvalidMass)
	}
	if !isFinite(s.Position) || !isFinite(s.Velocity) {
		return fmt.Errorf("non-finite ball state %+v", s)
	}
	return nil
}

// SizeModel maps a ball's mass to its radius.
type SizeModel struct {
	// ConstantRadius, when positive, overrides the mass-dependent radius.
	ConstantRadius float64
	Density        float64
}

// DefaultSizeModel sizes balls by mass at DefaultDensity.
func DefaultSizeModel() *SizeModel {
	return &SizeModel{Density: DefaultDensity}
}

// Radius returns the radius of a ball with the given mass.
func (s *SizeModel) Radius(mass float64) float64 {
	if s == nil {
		return ConstantRadius
	}
	if s.ConstantRadius > 0 {
		return s.ConstantRadius
	}
	density := s.Density
	if density <= 0 {
		density = DefaultDensity
	}
	return math.Cbrt(3 * mass / (4 * math.Pi * density))
}

// PathPoint is one time-stamped sample of a ball's trailing path.
type PathPoint struct {
	Position r2.Point `json:"position" msgpack:"position"`
	Time     float64  `json:"time" msgpack:"time"`
}

// Ball is one moving body. Position, Velocity and Mass are mutated by the
// engine during a step and by BallSystem operations outside of it.
type Ball struct {
	ID            BallID
	Position      r2.Point
	Velocity      r2.Point
	Mass          float64
	RotationAngle float64 // only meaningful while the ball is in a cluster
	Path          []PathPoint

	size    *SizeModel
	initial BallState
	restart BallState
}

// NewBall creates a ball whose initial and restart states are both state.
func NewBall(id BallID, state BallState, size *SizeModel) (*Ball, error) {
	if err := state.Validate(); err != nil {
		return nil, fmt.Errorf("ball %d: %w", id, err)
	}
	b := &Ball{
		ID:      id,
		size:    size,
		initial: state,
		restart: state,
	}
	b.SetState(state)
	return b, nil
}

// Radius is derived from mass and the ball's size model. Always positive.
func (b *Ball) Radius() float64 {
	return b.size.Radius(b.Mass)
}

// State returns the ball's current kinematics as a snapshot.
func (b *Ball) State() BallState {
	return BallState{Position: b.Position, Velocity: b.Velocity, Mass: b.Mass}
}

// RestartState returns the saved restart point.
func (b *Ball) RestartState() BallState {
	return b.restart
}

// Momentum returns m*v.
func (b *Ball) Momentum() r2.Point {
	return b.Velocity.Mul(b.Mass)
}

// KineticEnergy returns m*|v|^2/2.
func (b *Ball) KineticEnergy() float64 {
	return 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
}

// StepUniformMotion advances the ball assuming constant velocity and no
// collision during dt.
func (b *Ball) StepUniformMotion(dt float64) {
	if !isFiniteScalar(dt) {
		panic(fmt.Sprintf("physics: non-finite dt %v", dt))
	}
	b.Position = b.Position.Add(b.Velocity.Mul(dt))
}

// SetState overwrites position, velocity and mass.
func (b *Ball) SetState(s BallState) {
	b.Position = s.Position
	b.Velocity = s.Velocity
	b.Mass = s.Mass
}

// SaveState captures the current kinematics as the new restart point.
func (b *Ball) SaveState() {
	b.restart = b.State()
}

// Restart returns the ball to its restart point.
func (b *Ball) Restart() {
	b.SetState(b.restart)
	b.RotationAngle = 0
	b.ClearPath()
}

// Reset returns the ball to the state it was created with and forgets the
// restart point.
func (b *Ball) Reset() {
	b.restart = b.initial
	b.Restart()
}

// DragToPosition moves the ball to target, clamped so the whole disc stays
// inside the play area.
func (b *Ball) DragToPosition(target r2.Point, area *PlayArea) {
	b.Position = area.ClampBallPosition(target, b.Radius())
	b.constrainToDimension(area)
}

func (b *Ball) constrainToDimension(area *PlayArea) {
	if area.Dimension == Dimension1D {
		b.Position.Y = 0
		b.Velocity.Y = 0
	}
}

// RecordPath appends the current position to the trailing path and drops
// samples older than PathLifetime.
func (b *Ball) RecordPath(elapsed float64) {
	b.Path = append(b.Path, PathPoint{Position: b.Position, Time: elapsed})
	cut := 0
	for cut < len(b.Path) && elapsed-b.Path[cut].Time > PathLifetime {
		cut++
	}
	if cut > 0 {
		b.Path = append(b.Path[:0], b.Path[cut:]...)
	}
}

// ClearPath drops every path sample.
func (b *Ball) ClearPath() {
	b.Path = b.Path[:0]
}
