package physics

import (
	"fmt"
	"log"
	"math"

	"github.com/golang/geo/r2"
)

// sticks reports whether ball-ball contacts currently join balls into a
// cluster.
func (e *Engine) sticks() bool {
	return e.policy == PolicySticking && e.area.Elasticity == 0 && e.area.InelasticType == InelasticStick
}

// stick joins b1 and b2 into the engine's single rotating cluster.
func (e *Engine) stick(b1, b2 *Ball, c Collision) {
	// Angular momentum is taken before the momentum exchange.
	totalAngularMomentum := e.system.TotalAngularMomentum()

	n := lineOfCenters(b1, b2)
	closing := b1.Velocity.Sub(b2.Velocity).Dot(n)
	b1.Velocity, b2.Velocity = restitute(b1.Mass, b1.Velocity, b2.Mass, b2.Velocity, n, 0)

	balls := []*Ball{b1, b2}
	position, velocity := centerOfMass(balls)

	// Each ball is a point mass at its distance from the center of mass.
	var inertia float64
	for _, b := range balls {
		r := b.Position.Sub(position)
		inertia += r.Dot(r) * b.Mass
	}
	var omega float64
	if inertia > 0 {
		omega = totalAngularMomentum / inertia
	}

	e.InvalidateBall(b1.ID)
	e.InvalidateBall(b2.ID)
	e.dropCluster()

	e.nextClusterID++
	e.cluster = NewRotatingBallCluster(e.nextClusterID, balls, omega, CenterOfMass{Position: position, Velocity: velocity})
	log.Printf("[PHYSICS] cluster %d formed from balls %d,%d at t=%.6f (omega=%.6f)", e.cluster.ID, b1.ID, b2.ID, c.Time, omega)

	e.emit(CollisionEvent{Kind: EventStick, BallIDs: []BallID{b1.ID, b2.ID}, Time: c.Time, Speed: closing})
}

// estimate classifies a sample time in the cluster-to-border root search.
type estimate int

const (
	underestimate estimate = iota // no member within Tolerance of a wall
	accepted                      // some member tangent to a wall, none overlapping
	overestimate                  // some member already overlaps a wall
)

func (est estimate) String() string {
	switch est {
	case underestimate:
		return "underestimate"
	case accepted:
		return "accepted"
	case overestimate:
		return "overestimate"
	}
	return fmt.Sprintf("estimate(%d)", int(est))
}

// detectClusterToBorder records when the active cluster will first touch the
// border. There is no closed form for a rotating, translating body against a
// straight wall, so the time is bracketed and bisected.
func (e *Engine) detectClusterToBorder(elapsed float64) {
	c := e.cluster
	cp, border := ClusterParticipant(c.ID), BorderParticipant()
	if !e.area.ReflectsBorder || e.collisions.has(cp, border) {
		return
	}

	states := c.SteppedRotationStates(0)
	radii := c.memberRadii()
	for i, st := range states {
		for _, s := range e.area.Sides() {
			if e.area.isDiscTouchingSide(st.Position, radii[i], s) {
				e.collisions.add(NewCollision(cp, border, elapsed))
				return
			}
		}
	}
	for i, st := range states {
		if !e.area.containsDisc(st.Position, radii[i]) {
			// Already escaping; let it keep going.
			return
		}
	}

	lower, upper := e.clusterBorderBracket(c)
	if c.AngularVelocity != 0 {
		lower, upper = e.spinBracket(c, radii, lower, upper)
	}
	if !isFiniteScalar(lower) || !isFiniteScalar(upper) {
		return
	}
	t, err := e.bisectClusterToBorder(c, lower, upper)
	if err != nil {
		log.Printf("[PHYSICS] cluster %d border search in [%.6f, %.6f] failed: %v", c.ID, lower, upper, err)
		return
	}
	e.collisions.add(NewCollision(cp, border, elapsed+t))
}

// clusterBorderBracket returns times, relative to now, that bound the
// cluster's first border contact: when the bounding circle first reaches a
// wall, and when the center of mass itself does.
func (e *Engine) clusterBorderBracket(c *RotatingBallCluster) (lower, upper float64) {
	com := c.CenterOfMass()
	bound := c.BoundingCircleRadius()
	lower, upper = math.Inf(1), math.Inf(1)
	for _, s := range e.area.Sides() {
		vn := com.Velocity.Dot(s.Normal())
		if gap := e.area.wallGap(com.Position, bound, s); gap <= 0 {
			lower = 0
		} else if vn > 0 {
			lower = math.Min(lower, gap/vn)
		}
		if vn > 0 {
			gap := math.Max(e.area.wallGap(com.Position, 0, s), 0)
			upper = math.Min(upper, gap/vn)
		}
	}
	return lower, upper
}

// spinBracket narrows the search for a spinning cluster. A member can reach a
// wall well before the center of mass does, or while the center of mass
// stands still, so the window from lower is walked in fractions of a turn
// until a sample touches or overlaps. Without a center-of-mass bound the
// window is one turn.
func (e *Engine) spinBracket(c *RotatingBallCluster, radii []float64, lower, upper float64) (float64, float64) {
	none := math.Inf(1)
	if !isFiniteScalar(lower) {
		return none, none
	}
	if e.classifyClusterAt(c, radii, lower) == accepted {
		return lower, lower
	}
	turn := 2 * math.Pi / math.Abs(c.AngularVelocity)
	end := upper
	if !isFiniteScalar(end) {
		end = lower + turn
	}
	step := turn / SpinSamplesPerTurn
	prev := lower
	for i := 1; i <= MaxSpinSamples; i++ {
		t := math.Min(lower+float64(i)*step, end)
		switch e.classifyClusterAt(c, radii, t) {
		case accepted:
			return t, t
		case overestimate:
			return prev, t
		}
		if t >= end {
			break
		}
		prev = t
	}
	return none, none
}

// classifyClusterAt samples the cluster's member discs dt from now.
func (e *Engine) classifyClusterAt(c *RotatingBallCluster, radii []float64, dt float64) estimate {
	result := underestimate
	for i, st := range c.SteppedRotationStates(dt) {
		for _, s := range e.area.Sides() {
			gap := e.area.wallGap(st.Position, radii[i], s)
			if gap < -Tolerance {
				return overestimate
			}
			if gap <= Tolerance {
				result = accepted
			}
		}
	}
	return result
}

// bisectClusterToBorder halves [lower, upper] until a sample is accepted.
func (e *Engine) bisectClusterToBorder(c *RotatingBallCluster, lower, upper float64) (float64, error) {
	radii := c.memberRadii()
	lo, hi := lower, upper
	atLo := e.classifyClusterAt(c, radii, lo)
	if atLo == accepted {
		return lo, nil
	}
	atHi := e.classifyClusterAt(c, radii, hi)
	if atHi == accepted {
		return hi, nil
	}
	if atLo == atHi || atLo == overestimate {
		return 0, fmt.Errorf("lower=%s upper=%s: %w", atLo, atHi, ErrBisectionBracket)
	}

	for i := 0; i < MaxBisectionIterations; i++ {
		mid := lo + (hi-lo)/2
		switch e.classifyClusterAt(c, radii, mid) {
		case accepted:
			return mid, nil
		case overestimate:
			hi = mid
		case underestimate:
			lo = mid
		}
	}
	return 0, ErrBisectionDiverged
}

// handleClusterToBorder stops the whole cluster and dissolves it.
func (e *Engine) handleClusterToBorder(col Collision) {
	c := e.cluster
	var speed float64
	ids := c.Members()
	for _, m := range c.members {
		speed = math.Max(speed, m.ball.Velocity.Norm())
		m.ball.Velocity = r2.Point{}
	}
	e.dropCluster()
	for _, id := range ids {
		e.InvalidateBall(id)
	}
	log.Printf("[PHYSICS] cluster %d stopped at border at t=%.6f", c.ID, col.Time)
	e.emit(CollisionEvent{Kind: EventClusterBorder, BallIDs: ids, Time: col.Time, Speed: speed})
}
