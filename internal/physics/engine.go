package physics

import (
	"fmt"
	"log"

	"github.com/golang/geo/r2"
)

// ResponsePolicy selects how the engine resolves collisions.
type ResponsePolicy int

const (
	// PolicyStandard resolves ball-ball contacts by restitution along the
	// line of centers and reflects balls off the border.
	PolicyStandard ResponsePolicy = iota
	// PolicySticking additionally joins balls into a rotating cluster when
	// the area is perfectly inelastic and set to stick. Requires two balls.
	PolicySticking
)

func (p ResponsePolicy) String() string {
	switch p {
	case PolicyStandard:
		return "standard"
	case PolicySticking:
		return "sticking"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func (p ResponsePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// CollisionEventKind names what kind of contact was resolved.
type CollisionEventKind string

const (
	EventBallBall      CollisionEventKind = "ball"
	EventBallBorder    CollisionEventKind = "border"
	EventStick         CollisionEventKind = "stick"
	EventClusterBorder CollisionEventKind = "cluster_border"
)

// CollisionEvent reports one handled collision.
type CollisionEvent struct {
	Kind    CollisionEventKind `json:"kind" msgpack:"kind"`
	BallIDs []BallID           `json:"ball_ids" msgpack:"ball_ids"`
	Time    float64            `json:"time" msgpack:"time"`
	Speed   float64            `json:"speed" msgpack:"speed"` // closing speed along the contact normal
}

// CollisionObserver receives every handled collision, in handling order.
type CollisionObserver func(CollisionEvent)

type ballPair [2]BallID

func makePair(a, b BallID) ballPair {
	if b < a {
		a, b = b, a
	}
	return ballPair{a, b}
}

// Engine detects and resolves collisions for one BallSystem. It owns the
// pending collision set and the active cluster; nothing else may mutate ball
// kinematics during Step.
type Engine struct {
	system   *BallSystem
	area     *PlayArea
	policy   ResponsePolicy
	observer CollisionObserver

	collisions    collisionSet
	cluster       *RotatingBallCluster
	nextClusterID ClusterID
	maxPerStep    int

	// settled holds degenerate pairs already resolved once; they are not
	// re-detected until one of the balls changes.
	settled map[ballPair]bool
}

// NewEngine builds an engine for system and subscribes it to the system's
// change notifications. Configuration errors are reported here rather than
// at step time.
func NewEngine(system *BallSystem, policy ResponsePolicy, observer CollisionObserver) (*Engine, error) {
	if system == nil {
		return nil, fmt.Errorf("nil ball system")
	}
	switch policy {
	case PolicyStandard:
	case PolicySticking:
		if system.Len() != 2 {
			return nil, fmt.Errorf("sticking policy needs 2 balls, have %d: %w", system.Len(), ErrBallCount)
		}
	default:
		return nil, fmt.Errorf("unknown response policy %d", int(policy))
	}
	for _, b := range system.Balls() {
		if !(b.Mass > 0) {
			return nil, fmt.Errorf("ball %d: %w", b.ID, ErrInvalidMass)
		}
	}

	e := &Engine{
		system:     system,
		area:       system.PlayArea(),
		policy:     policy,
		observer:   observer,
		settled:    make(map[ballPair]bool),
		maxPerStep: MaxCollisionsPerStep,
	}
	system.OnBallsReassigned(e.Reset)
	system.OnBallChanged(e.InvalidateBall)
	return e, nil
}

func (e *Engine) Policy() ResponsePolicy { return e.policy }

// Cluster returns the active cluster, or nil.
func (e *Engine) Cluster() *RotatingBallCluster { return e.cluster }

// PendingCollisions copies the recorded, not yet handled collisions.
func (e *Engine) PendingCollisions() []Collision { return e.collisions.snapshot() }

// Reset drops the active cluster and every pending collision so the next
// step re-detects from scratch.
func (e *Engine) Reset() {
	e.collisions.clear()
	e.cluster = nil
	clear(e.settled)
}

// ConfigurationChanged must be called after a PlayArea setter runs; pending
// predictions may depend on the old configuration.
func (e *Engine) ConfigurationChanged() {
	e.collisions.clear()
	clear(e.settled)
}

// InvalidateBall drops every pending collision referencing the ball. A
// cluster containing the ball is dissolved because its rigid offsets no
// longer hold.
func (e *Engine) InvalidateBall(id BallID) {
	e.invalidate(BallParticipant(id))
	for pair := range e.settled {
		if pair[0] == id || pair[1] == id {
			delete(e.settled, pair)
		}
	}
	if e.cluster != nil && e.cluster.Contains(id) {
		e.dropCluster()
	}
}

func (e *Engine) invalidate(p Participant) {
	e.collisions.invalidate(p)
}

func (e *Engine) dropCluster() {
	if e.cluster == nil {
		return
	}
	e.invalidate(ClusterParticipant(e.cluster.ID))
	e.cluster = nil
}

// Step advances the system by dt starting at elapsed:
// detect, handle the earliest collision inside the step, re-detect, and
// finally move every body through the remainder.
func (e *Engine) Step(dt, elapsed float64) error {
	if !isFiniteScalar(dt) || !isFiniteScalar(elapsed) {
		return fmt.Errorf("step dt=%v elapsed=%v: non-finite time", dt, elapsed)
	}
	if dt < 0 {
		return fmt.Errorf("step dt=%v: %w", dt, ErrNegativeStep)
	}

	end := elapsed + dt
	now := elapsed
	for handled := 0; ; handled++ {
		e.DetectAllCollisions(now)
		c, ok := e.collisions.earliest()
		if !ok || c.Time > end {
			break
		}
		if handled >= e.maxPerStep {
			// Predictions made before the remainder is advanced are stale
			// afterwards; the next step detects from scratch.
			log.Printf("[PHYSICS] collision cap %d reached at t=%.6f; advancing without further handling", e.maxPerStep, now)
			e.collisions.clear()
			break
		}
		if c.Time > now {
			e.ProgressBalls(c.Time-now, now)
			now = c.Time
		}
		e.HandleCollision(c, end-now)
	}
	if end > now {
		e.ProgressBalls(end-now, now)
	}
	return nil
}

// ProgressBalls advances every ball by dt assuming no collision happens in
// [elapsed, elapsed+dt). Cluster members move with the cluster.
func (e *Engine) ProgressBalls(dt, elapsed float64) {
	if e.cluster != nil {
		e.cluster.Step(dt)
	}
	for _, b := range e.system.Balls() {
		if e.cluster != nil && e.cluster.Contains(b.ID) {
			continue
		}
		b.StepUniformMotion(dt)
	}
}

// DetectAllCollisions records every predicted contact not already recorded:
// each unordered ball pair, and each ball (or the cluster) against the border.
func (e *Engine) DetectAllCollisions(elapsed float64) {
	balls := e.system.Balls()
	for i := 0; i < len(balls); i++ {
		for j := i + 1; j < len(balls); j++ {
			e.detectBallToBall(balls[i], balls[j], elapsed)
		}
	}

	if !e.area.ReflectsBorder {
		return
	}
	if e.cluster != nil {
		e.detectClusterToBorder(elapsed)
	}
	for _, b := range balls {
		if e.cluster != nil && e.cluster.Contains(b.ID) {
			continue
		}
		e.detectBallToBorder(b, elapsed)
	}
}

func (e *Engine) detectBallToBall(b1, b2 *Ball, elapsed float64) {
	if e.cluster != nil && e.cluster.Contains(b1.ID) && e.cluster.Contains(b2.ID) {
		return
	}
	p1, p2 := BallParticipant(b1.ID), BallParticipant(b2.ID)
	if e.collisions.has(p1, p2) {
		return
	}
	t, kind := discContactTime(b1.Position, b1.Velocity, b1.Radius(), b2.Position, b2.Velocity, b2.Radius())
	switch kind {
	case contactNone:
		return
	case contactDegenerate:
		if e.settled[makePair(b1.ID, b2.ID)] {
			return
		}
	}
	c := NewCollision(p1, p2, elapsed+t)
	c.degenerate = kind == contactDegenerate
	e.collisions.add(c)
}

func (e *Engine) detectBallToBorder(b *Ball, elapsed float64) {
	p, border := BallParticipant(b.ID), BorderParticipant()
	if e.collisions.has(p, border) {
		return
	}
	t, _, kind := e.area.borderContactTime(b.Position, b.Velocity, b.Radius())
	if kind == contactNone {
		return
	}
	e.collisions.add(NewCollision(p, border, elapsed+t))
}

// HandleCollision consumes c and resolves it according to its participants.
// dt is the time left in the current step.
func (e *Engine) HandleCollision(c Collision, dt float64) {
	e.collisions.remove(c)

	switch {
	case c.A.Kind == ParticipantBall && c.B.Kind == ParticipantBall:
		b1, err1 := e.system.Ball(BallID(c.A.ID))
		b2, err2 := e.system.Ball(BallID(c.B.ID))
		if err1 != nil || err2 != nil {
			log.Printf("[PHYSICS] dropping stale collision %s", c)
			return
		}
		e.handleBallToBall(b1, b2, c)
	case c.A.Kind == ParticipantBall && c.B.Kind == ParticipantBorder:
		b, err := e.system.Ball(BallID(c.A.ID))
		if err != nil {
			log.Printf("[PHYSICS] dropping stale collision %s", c)
			return
		}
		e.handleBallToBorder(b, c)
	case c.A.Kind == ParticipantCluster && c.B.Kind == ParticipantBorder:
		if e.cluster == nil || int(e.cluster.ID) != c.A.ID {
			log.Printf("[PHYSICS] dropping stale collision %s", c)
			return
		}
		e.handleClusterToBorder(c)
	default:
		log.Printf("[PHYSICS] unsupported collision %s", c)
	}
}

func (e *Engine) handleBallToBall(b1, b2 *Ball, c Collision) {
	if e.sticks() {
		e.stick(b1, b2, c)
		return
	}

	n := lineOfCenters(b1, b2)
	closing := b1.Velocity.Sub(b2.Velocity).Dot(n)
	b1.Velocity, b2.Velocity = restitute(b1.Mass, b1.Velocity, b2.Mass, b2.Velocity, n, e.area.Elasticity)

	e.InvalidateBall(b1.ID)
	e.InvalidateBall(b2.ID)
	if c.degenerate {
		e.settled[makePair(b1.ID, b2.ID)] = true
	}
	e.emit(CollisionEvent{Kind: EventBallBall, BallIDs: []BallID{b1.ID, b2.ID}, Time: c.Time, Speed: closing})
}

// lineOfCenters is the unit vector from b1 to b2. Coincident centers fall
// back to the relative velocity direction, then to +x.
func lineOfCenters(b1, b2 *Ball) r2.Point {
	fallback := normalizeOr(b1.Velocity.Sub(b2.Velocity), r2.Point{X: 1})
	return normalizeOr(b2.Position.Sub(b1.Position), fallback)
}

func (e *Engine) handleBallToBorder(b *Ball, c Collision) {
	if !e.area.ReflectsBorder {
		return
	}
	var speed float64
	if e.sticks() {
		speed = b.Velocity.Norm()
		b.Velocity = r2.Point{}
	} else {
		for _, s := range e.area.Sides() {
			n := s.Normal()
			vn := b.Velocity.Dot(n)
			if vn > 0 && e.area.wallGap(b.Position, b.Radius(), s) <= Tolerance {
				b.Velocity = b.Velocity.Sub(n.Mul((1 + e.area.Elasticity) * vn))
				speed += vn
			}
		}
	}
	e.InvalidateBall(b.ID)
	e.emit(CollisionEvent{Kind: EventBallBorder, BallIDs: []BallID{b.ID}, Time: c.Time, Speed: speed})
}

func (e *Engine) emit(ev CollisionEvent) {
	if e.observer != nil {
		e.observer(ev)
	}
}
