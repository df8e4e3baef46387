package physics

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// BallSystem owns the balls of one simulation. Balls live in a stable arena
// indexed by BallID; the first Len() of them are in play.
type BallSystem struct {
	arena []*Ball
	count int
	size  *SizeModel
	area  *PlayArea

	reassignedListeners []func()
	changedListeners    []func(BallID)
}

// NewBallSystem creates balls for every prepopulated state and puts the first
// count of them in play.
func NewBallSystem(area *PlayArea, size *SizeModel, prepopulated []BallState, count int) (*BallSystem, error) {
	if len(prepopulated) == 0 || len(prepopulated) > MaxBalls {
		return nil, fmt.Errorf("%d prepopulated balls: %w", len(prepopulated), ErrBallCount)
	}
	if count < MinBalls || count > len(prepopulated) {
		return nil, fmt.Errorf("%d balls in play of %d: %w", count, len(prepopulated), ErrBallCount)
	}
	if size == nil {
		size = DefaultSizeModel()
	}
	bs := &BallSystem{
		arena: make([]*Ball, len(prepopulated)),
		count: count,
		size:  size,
		area:  area,
	}
	for i, st := range prepopulated {
		if st.Mass < MinMass || st.Mass > MaxMass {
			return nil, fmt.Errorf("ball %d mass %v outside [%v, %v]: %w", i, st.Mass, MinMass, MaxMass, ErrInvalidMass)
		}
		b, err := NewBall(BallID(i), st, size)
		if err != nil {
			return nil, err
		}
		b.constrainToDimension(area)
		bs.arena[i] = b
	}
	return bs, nil
}

// OnBallsReassigned registers fn to run after every wholesale change of ball
// states (restart, reset, preset load, ball count change).
func (bs *BallSystem) OnBallsReassigned(fn func()) {
	bs.reassignedListeners = append(bs.reassignedListeners, fn)
}

// OnBallChanged registers fn to run after a single ball was changed outside
// the physics step.
func (bs *BallSystem) OnBallChanged(fn func(BallID)) {
	bs.changedListeners = append(bs.changedListeners, fn)
}

func (bs *BallSystem) notifyReassigned() {
	for _, fn := range bs.reassignedListeners {
		fn()
	}
}

func (bs *BallSystem) notifyChanged(id BallID) {
	for _, fn := range bs.changedListeners {
		fn(id)
	}
}

// Balls returns the balls in play, ordered by ID.
func (bs *BallSystem) Balls() []*Ball {
	return bs.arena[:bs.count]
}

func (bs *BallSystem) Len() int { return bs.count }

func (bs *BallSystem) PlayArea() *PlayArea { return bs.area }

func (bs *BallSystem) SizeModel() *SizeModel { return bs.size }

// Ball looks up a ball in play.
func (bs *BallSystem) Ball(id BallID) (*Ball, error) {
	if id < 0 || int(id) >= bs.count {
		return nil, fmt.Errorf("ball %d: %w", id, ErrUnknownBall)
	}
	return bs.arena[id], nil
}

// CenterOfMass returns the position and velocity of the system's center of mass.
func (bs *BallSystem) CenterOfMass() (position, velocity r2.Point) {
	return centerOfMass(bs.Balls())
}

func centerOfMass(balls []*Ball) (position, velocity r2.Point) {
	var total float64
	for _, b := range balls {
		position = position.Add(b.Position.Mul(b.Mass))
		velocity = velocity.Add(b.Velocity.Mul(b.Mass))
		total += b.Mass
	}
	if total == 0 {
		return r2.Point{}, r2.Point{}
	}
	return position.Mul(1 / total), velocity.Mul(1 / total)
}

// TotalMomentum returns the sum of m*v.
func (bs *BallSystem) TotalMomentum() r2.Point {
	var p r2.Point
	for _, b := range bs.Balls() {
		p = p.Add(b.Momentum())
	}
	return p
}

// TotalKineticEnergy returns the sum of m*|v|^2/2.
func (bs *BallSystem) TotalKineticEnergy() float64 {
	var ke float64
	for _, b := range bs.Balls() {
		ke += b.KineticEnergy()
	}
	return ke
}

// TotalAngularMomentum returns the z component of the angular momentum of
// the balls about the system's center of mass.
func (bs *BallSystem) TotalAngularMomentum() float64 {
	return angularMomentumAbout(bs.Balls())
}

func angularMomentumAbout(balls []*Ball) float64 {
	com, vcm := centerOfMass(balls)
	var l float64
	for _, b := range balls {
		l += b.Mass * crossZ(b.Position.Sub(com), b.Velocity.Sub(vcm))
	}
	return l
}

// DragBall moves a ball to the clamped target. Pending collisions involving
// it are invalidated through the change listeners.
func (bs *BallSystem) DragBall(id BallID, target r2.Point) error {
	b, err := bs.Ball(id)
	if err != nil {
		return err
	}
	b.DragToPosition(target, bs.area)
	b.ClearPath()
	bs.notifyChanged(id)
	return nil
}

// ReleaseBall ends a drag and captures the new restart point.
func (bs *BallSystem) ReleaseBall(id BallID) error {
	b, err := bs.Ball(id)
	if err != nil {
		return err
	}
	b.SaveState()
	return nil
}

// SetBallMass changes a ball's mass, keeps its grown disc inside the area and
// saves the restart point.
func (bs *BallSystem) SetBallMass(id BallID, mass float64) error {
	b, err := bs.Ball(id)
	if err != nil {
		return err
	}
	if !(mass > 0) {
		return fmt.Errorf("ball %d mass %v: %w", id, mass, ErrInvalidMass)
	}
	if mass < MinMass || mass > MaxMass {
		return fmt.Errorf("ball %d mass %v outside [%v, %v]: %w", id, mass, MinMass, MaxMass, ErrInvalidMass)
	}
	b.Mass = mass
	b.Position = bs.area.ClampBallPosition(b.Position, b.Radius())
	b.SaveState()
	bs.notifyChanged(id)
	return nil
}

// SetBallVelocity changes a ball's velocity and saves the restart point.
func (bs *BallSystem) SetBallVelocity(id BallID, v r2.Point) error {
	b, err := bs.Ball(id)
	if err != nil {
		return err
	}
	if !isFinite(v) {
		return fmt.Errorf("ball %d: non-finite velocity %v", id, v)
	}
	b.Velocity = v
	b.constrainToDimension(bs.area)
	b.SaveState()
	bs.notifyChanged(id)
	return nil
}

// SetBallCount changes how many arena balls are in play.
func (bs *BallSystem) SetBallCount(n int) error {
	if n < MinBalls || n > len(bs.arena) {
		return fmt.Errorf("%d balls of %d: %w", n, len(bs.arena), ErrBallCount)
	}
	if n == bs.count {
		return nil
	}
	for _, b := range bs.arena[bs.count:n] {
		b.Restart()
	}
	bs.count = n
	bs.notifyReassigned()
	return nil
}

// SetConstantSize switches between constant and mass-dependent radii,
// re-clamping every ball into the area.
func (bs *BallSystem) SetConstantSize(constant bool) {
	if constant {
		bs.size.ConstantRadius = ConstantRadius
	} else {
		bs.size.ConstantRadius = 0
	}
	for _, b := range bs.arena {
		b.Position = bs.area.ClampBallPosition(b.Position, b.Radius())
	}
	bs.notifyReassigned()
}

// LoadStates loads a preset: states replace the initial and restart points
// of the first len(states) arena balls, and the first count of them are put
// in play. Nothing changes unless every state is valid.
func (bs *BallSystem) LoadStates(states []BallState, count int) error {
	if len(states) < MinBalls || len(states) > len(bs.arena) {
		return fmt.Errorf("%d states for %d balls: %w", len(states), len(bs.arena), ErrBallCount)
	}
	if count < MinBalls || count > len(states) {
		return fmt.Errorf("%d balls in play of %d: %w", count, len(states), ErrBallCount)
	}
	for i, st := range states {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("ball %d: %w", i, err)
		}
		if st.Mass < MinMass || st.Mass > MaxMass {
			return fmt.Errorf("ball %d mass %v outside [%v, %v]: %w", i, st.Mass, MinMass, MaxMass, ErrInvalidMass)
		}
	}
	for i, st := range states {
		b := bs.arena[i]
		b.initial = st
		b.Reset()
		b.constrainToDimension(bs.area)
		b.initial = b.State()
		b.SaveState()
	}
	bs.count = count
	bs.notifyReassigned()
	return nil
}

// RestartAll returns every ball to its restart point.
func (bs *BallSystem) RestartAll() {
	for _, b := range bs.arena {
		b.Restart()
	}
	bs.notifyReassigned()
}

// RecordPaths samples every ball's trailing path.
func (bs *BallSystem) RecordPaths(elapsed float64) {
	for _, b := range bs.Balls() {
		b.RecordPath(elapsed)
	}
}

// BallSnapshot is the read-only per-ball view handed to renderers.
type BallSnapshot struct {
	ID       BallID      `json:"id" msgpack:"id"`
	Position r2.Point    `json:"position" msgpack:"position"`
	Velocity r2.Point    `json:"velocity" msgpack:"velocity"`
	Momentum r2.Point    `json:"momentum" msgpack:"momentum"`
	Mass     float64     `json:"mass" msgpack:"mass"`
	Radius   float64     `json:"radius" msgpack:"radius"`
	Rotation float64     `json:"rotation" msgpack:"rotation"`
	Path     []PathPoint `json:"path,omitempty" msgpack:"path,omitempty"`
}

// Snapshot copies the renderer-facing state of every ball in play.
func (bs *BallSystem) Snapshot(withPaths bool) []BallSnapshot {
	out := make([]BallSnapshot, 0, bs.count)
	for _, b := range bs.Balls() {
		s := BallSnapshot{
			ID:       b.ID,
			Position: b.Position,
			Velocity: b.Velocity,
			Momentum: b.Momentum(),
			Mass:     b.Mass,
			Radius:   b.Radius(),
			Rotation: b.RotationAngle,
		}
		if withPaths && len(b.Path) > 0 {
			s.Path = append([]PathPoint(nil), b.Path...)
		}
		out = append(out, s)
	}
	return out
}
