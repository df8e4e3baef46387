package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r2"
)

// CenterOfMass is a point moving at constant velocity.
type CenterOfMass struct {
	Position r2.Point `json:"position" msgpack:"position"`
	Velocity r2.Point `json:"velocity" msgpack:"velocity"`
}

// At returns the point's position dt from now.
func (c CenterOfMass) At(dt float64) r2.Point {
	return c.Position.Add(c.Velocity.Mul(dt))
}

type clusterMember struct {
	ball   *Ball
	radius float64 // distance from the center of mass
	phase  float64 // angle of the offset when the cluster formed
}

// RotatingBallCluster is a rigid assembly of joined balls rotating at a
// constant angular velocity about their uniformly translating center of mass.
type RotatingBallCluster struct {
	ID              ClusterID
	AngularVelocity float64

	members  []clusterMember
	com      CenterOfMass
	rotation float64
}

// NewRotatingBallCluster joins balls into a rigid body. Each ball's offset
// from com is frozen, and member velocities are set to the rigid-body
// velocities v_cm + omega x r.
func NewRotatingBallCluster(id ClusterID, balls []*Ball, omega float64, com CenterOfMass) *RotatingBallCluster {
	c := &RotatingBallCluster{
		ID:              id,
		AngularVelocity: omega,
		members:         make([]clusterMember, len(balls)),
		com:             com,
	}
	for i, b := range balls {
		off := b.Position.Sub(com.Position)
		c.members[i] = clusterMember{ball: b, radius: off.Norm(), phase: angleOf(off)}
		b.RotationAngle = 0
	}
	c.syncMembers()
	return c
}

// Members returns the IDs of the joined balls.
func (c *RotatingBallCluster) Members() []BallID {
	ids := make([]BallID, len(c.members))
	for i, m := range c.members {
		ids[i] = m.ball.ID
	}
	return ids
}

// Contains reports whether the ball is part of the cluster.
func (c *RotatingBallCluster) Contains(id BallID) bool {
	for _, m := range c.members {
		if m.ball.ID == id {
			return true
		}
	}
	return false
}

func (c *RotatingBallCluster) CenterOfMass() CenterOfMass { return c.com }

// Rotation is the total angle turned since the cluster formed.
func (c *RotatingBallCluster) Rotation() float64 { return c.rotation }

// offsetAt is a member's offset from the center of mass after the cluster
// has turned by angle.
func (m clusterMember) offsetAt(angle float64) r2.Point {
	v := mgl64.Rotate2D(m.phase + angle).Mul2x1(mgl64.Vec2{m.radius, 0})
	return r2.Point{X: v.X(), Y: v.Y()}
}

// Step translates the center of mass and rotates every member by
// AngularVelocity*dt, writing positions and velocities into the balls.
func (c *RotatingBallCluster) Step(dt float64) {
	if !isFiniteScalar(dt) {
		panic("physics: non-finite cluster dt")
	}
	c.com.Position = c.com.At(dt)
	c.rotation += c.AngularVelocity * dt
	c.syncMembers()
}

func (c *RotatingBallCluster) syncMembers() {
	for _, m := range c.members {
		off := m.offsetAt(c.rotation)
		m.ball.Position = c.com.Position.Add(off)
		m.ball.Velocity = c.com.Velocity.Add(perpScaled(c.AngularVelocity, off))
		m.ball.RotationAngle = c.rotation
	}
}

// SteppedRotationStates returns each member's state dt from now without
// changing the cluster or its balls.
func (c *RotatingBallCluster) SteppedRotationStates(dt float64) []BallState {
	center := c.com.At(dt)
	angle := c.rotation + c.AngularVelocity*dt
	out := make([]BallState, len(c.members))
	for i, m := range c.members {
		off := m.offsetAt(angle)
		out[i] = BallState{
			Position: center.Add(off),
			Velocity: c.com.Velocity.Add(perpScaled(c.AngularVelocity, off)),
			Mass:     m.ball.Mass,
		}
	}
	return out
}

// BoundingCircleRadius is the radius of the smallest circle centered on the
// center of mass that contains every member disc.
func (c *RotatingBallCluster) BoundingCircleRadius() float64 {
	var r float64
	for _, m := range c.members {
		r = math.Max(r, m.radius+m.ball.Radius())
	}
	return r
}

// memberRadii returns each member's disc radius in member order.
func (c *RotatingBallCluster) memberRadii() []float64 {
	out := make([]float64, len(c.members))
	for i, m := range c.members {
		out[i] = m.ball.Radius()
	}
	return out
}
