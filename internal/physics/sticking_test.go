package physics

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stickyArea(t *testing.T, half float64) *PlayArea {
	t.Helper()
	area := squareArea(t, half, Dimension2D)
	require.NoError(t, area.SetElasticity(0))
	require.NoError(t, area.SetInelasticType(InelasticStick))
	return area
}

func TestHeadOnStickFormsNonRotatingCluster(t *testing.T) {
	area := stickyArea(t, 2)
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.5}, Velocity: r2.Point{X: 1}, Mass: 2},
		BallState{Position: r2.Point{X: 0.5}, Velocity: r2.Point{X: -1}, Mass: 1},
	)
	e, rec := newTestEngine(t, bs, PolicySticking)

	require.NoError(t, e.Step(0.5, 0))

	assert.Equal(t, []CollisionEventKind{EventStick}, rec.kinds())
	c := e.Cluster()
	require.NotNil(t, c)
	assert.Equal(t, ClusterID(1), c.ID)
	assert.InDelta(t, 0, c.AngularVelocity, 1e-12)
	for _, b := range bs.Balls() {
		assert.InDelta(t, 1.0/3, b.Velocity.X, 1e-12)
		assert.InDelta(t, 0, b.Velocity.Y, 1e-12)
	}
	assert.InDelta(t, 0.2, ball(t, bs, 1).Position.X-ball(t, bs, 0).Position.X, 1e-12)

	// The translating cluster is headed for the right wall.
	var found bool
	for _, col := range e.PendingCollisions() {
		if col.A == ClusterParticipant(c.ID) && col.B == BorderParticipant() {
			found = true
			assert.InDelta(t, 5.8, col.Time, 1e-8)
		}
	}
	assert.True(t, found)
}

func TestStickNeedsPerfectlyInelasticStickArea(t *testing.T) {
	area := squareArea(t, 2, Dimension2D)
	require.NoError(t, area.SetInelasticType(InelasticStick))
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.5}, Velocity: r2.Point{X: 1}, Mass: 1},
		BallState{Position: r2.Point{X: 0.5}, Velocity: r2.Point{X: -1}, Mass: 1},
	)
	e, rec := newTestEngine(t, bs, PolicySticking)

	require.NoError(t, e.Step(0.5, 0))
	assert.Equal(t, []CollisionEventKind{EventBallBall}, rec.kinds())
	assert.Nil(t, e.Cluster())
}

func TestOffsetStickConservesMomentum(t *testing.T) {
	area := stickyArea(t, 2)
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.5, Y: 0.05}, Velocity: r2.Point{X: 1}, Mass: 1},
		BallState{Position: r2.Point{X: 0.5, Y: -0.05}, Velocity: r2.Point{X: -1}, Mass: 1},
	)
	e, rec := newTestEngine(t, bs, PolicySticking)

	l0 := bs.TotalAngularMomentum()
	assert.InDelta(t, -0.1, l0, 1e-12)

	require.NoError(t, e.Step(0.6, 0))
	require.Equal(t, []CollisionEventKind{EventStick}, rec.kinds())

	c := e.Cluster()
	require.NotNil(t, c)
	assert.InDelta(t, -5.0, c.AngularVelocity, 1e-9)

	p := bs.TotalMomentum()
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)
	assert.InDelta(t, l0, bs.TotalAngularMomentum(), 1e-9)
	assert.InDelta(t, 0.2, ball(t, bs, 0).Position.Sub(ball(t, bs, 1).Position).Norm(), 1e-9)

	// A cluster spinning in place never reaches the border.
	for _, col := range e.PendingCollisions() {
		assert.False(t, col.Involves(ClusterParticipant(c.ID)), "unexpected %s", col)
	}
}

func TestClusterBorderContactIsFirstTangency(t *testing.T) {
	area := stickyArea(t, 1)
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.3, Y: 0.05}, Velocity: r2.Point{X: 1}, Mass: 1},
		BallState{Position: r2.Point{X: 0.3, Y: -0.05}, Mass: 1},
	)
	e, rec := newTestEngine(t, bs, PolicySticking)

	require.NoError(t, e.Step(0.5, 0))
	require.Equal(t, []CollisionEventKind{EventStick}, rec.kinds())
	c := e.Cluster()
	require.NotNil(t, c)
	assert.InDelta(t, -2.5, c.AngularVelocity, 1e-9)
	assert.InDelta(t, 0.5, c.CenterOfMass().Velocity.X, 1e-12)

	var contact Collision
	var found bool
	for _, col := range e.PendingCollisions() {
		if col.Involves(ClusterParticipant(c.ID)) {
			contact, found = col, true
		}
	}
	require.True(t, found)
	require.Equal(t, BorderParticipant(), contact.B)
	require.Greater(t, contact.Time, 0.5)

	radii := c.memberRadii()
	dt := contact.Time - 0.5
	assert.Equal(t, accepted, e.classifyClusterAt(c, radii, dt))

	// No member overlaps a wall at any earlier time.
	for i := 0; i <= 100; i++ {
		sample := dt * float64(i) / 100
		assert.NotEqual(t, overestimate, e.classifyClusterAt(c, radii, sample), "sample dt=%v", sample)
	}

	require.NoError(t, e.Step(2, 0.5))
	assert.Equal(t, []CollisionEventKind{EventStick, EventClusterBorder}, rec.kinds())
	assert.InDelta(t, contact.Time, rec.events[1].Time, 1e-12)
	assert.Nil(t, e.Cluster())
	for _, b := range bs.Balls() {
		assert.Zero(t, b.Velocity)
		assert.True(t, area.FullyContainsBall(b))
	}
	assert.True(t, area.IsBallTouchingAnySide(ball(t, bs, 0)) || area.IsBallTouchingAnySide(ball(t, bs, 1)))
}

func TestLoneBallStopsAtBorderWhenSticking(t *testing.T) {
	area := stickyArea(t, 1)
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.5, Y: 0.5}, Velocity: r2.Point{X: -1}, Mass: 1},
		BallState{Position: r2.Point{X: 0.5, Y: -0.5}, Mass: 1},
	)
	e, rec := newTestEngine(t, bs, PolicySticking)

	require.NoError(t, e.Step(1, 0))
	assert.Equal(t, []CollisionEventKind{EventBallBorder}, rec.kinds())
	b := ball(t, bs, 0)
	assert.Zero(t, b.Velocity)
	assert.InDelta(t, -0.9, b.Position.X, 1e-12)
	assert.InDelta(t, 1.0, rec.events[0].Speed, 1e-12)
}

func TestRestartDropsCluster(t *testing.T) {
	area := stickyArea(t, 2)
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.5}, Velocity: r2.Point{X: 1}, Mass: 1},
		BallState{Position: r2.Point{X: 0.5}, Velocity: r2.Point{X: -1}, Mass: 1},
	)
	e, _ := newTestEngine(t, bs, PolicySticking)

	require.NoError(t, e.Step(0.5, 0))
	require.NotNil(t, e.Cluster())

	bs.RestartAll()
	assert.Nil(t, e.Cluster())
	assert.Empty(t, e.PendingCollisions())
	assert.Equal(t, -0.5, ball(t, bs, 0).Position.X)
	assert.Equal(t, 1.0, ball(t, bs, 0).Velocity.X)
}

func TestDraggingMemberDissolvesCluster(t *testing.T) {
	area := stickyArea(t, 2)
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.5}, Velocity: r2.Point{X: 1}, Mass: 2},
		BallState{Position: r2.Point{X: 0.5}, Velocity: r2.Point{X: -1}, Mass: 1},
	)
	e, _ := newTestEngine(t, bs, PolicySticking)

	require.NoError(t, e.Step(0.5, 0))
	require.NotNil(t, e.Cluster())

	require.NoError(t, bs.DragBall(1, r2.Point{X: 1, Y: 1}))
	assert.Nil(t, e.Cluster())
	for _, col := range e.PendingCollisions() {
		assert.NotEqual(t, ParticipantCluster, col.A.Kind)
	}
}

func TestClusterAtRestRecordsNoBorderCollision(t *testing.T) {
	area := stickyArea(t, 2)
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.5}, Velocity: r2.Point{X: 1}, Mass: 1},
		BallState{Position: r2.Point{X: 0.5}, Velocity: r2.Point{X: -1}, Mass: 1},
	)
	e, rec := newTestEngine(t, bs, PolicySticking)

	require.NoError(t, e.Step(1, 0))
	require.NotNil(t, e.Cluster())
	assert.Empty(t, e.PendingCollisions())
	assert.Len(t, rec.events, 1)
	for _, b := range bs.Balls() {
		assert.Zero(t, b.Velocity)
	}
}

func TestSpinningClusterWithStillCenterStopsAtWall(t *testing.T) {
	area := stickyArea(t, 1)
	bs := newTestSystem(t, area, 0.1,
		BallState{Position: r2.Point{X: -0.5, Y: 0.88}, Velocity: r2.Point{X: 1}, Mass: 1},
		BallState{Position: r2.Point{X: 0.5, Y: 0.78}, Velocity: r2.Point{X: -1}, Mass: 1},
	)
	e, rec := newTestEngine(t, bs, PolicySticking)

	formed := (1 - math.Sqrt(0.03)) / 2
	require.NoError(t, e.Step(formed+0.01, 0))
	require.Equal(t, []CollisionEventKind{EventStick}, rec.kinds())
	c := e.Cluster()
	require.NotNil(t, c)
	assert.InDelta(t, -5, c.AngularVelocity, 1e-9)
	assert.InDelta(t, 0, c.CenterOfMass().Velocity.Norm(), 1e-12)

	// The upper member swings clockwise from 150 degrees about (0, 0.83)
	// until its top reaches y=1, at sin(theta)=0.7.
	hit := formed + (math.Asin(0.7)-math.Pi/6)/5
	var found bool
	for _, col := range e.PendingCollisions() {
		if col.Involves(ClusterParticipant(c.ID)) {
			found = true
			assert.Equal(t, BorderParticipant(), col.B)
			assert.InDelta(t, hit, col.Time, 1e-6)
		}
	}
	require.True(t, found)

	require.NoError(t, e.Step(1, formed+0.01))
	assert.Equal(t, []CollisionEventKind{EventStick, EventClusterBorder}, rec.kinds())
	assert.Nil(t, e.Cluster())
	for _, b := range bs.Balls() {
		assert.Zero(t, b.Velocity)
		assert.True(t, area.FullyContainsBall(b))
	}
}

func TestBisectionReportsBadBracket(t *testing.T) {
	area := stickyArea(t, 1)
	size := &SizeModel{ConstantRadius: 0.1}
	b1 := mustBall(t, 0, BallState{Position: r2.Point{X: -0.1}, Mass: 1}, size)
	b2 := mustBall(t, 1, BallState{Position: r2.Point{X: 0.1}, Mass: 1}, size)
	c := NewRotatingBallCluster(1, []*Ball{b1, b2}, 0, CenterOfMass{Velocity: r2.Point{X: 1}})

	bs := newTestSystem(t, area, 0.1, b1.State(), b2.State())
	e, _ := newTestEngine(t, bs, PolicySticking)

	// Both ends well before contact.
	_, err := e.bisectClusterToBorder(c, 0, 0.1)
	assert.ErrorIs(t, err, ErrBisectionBracket)

	got, err := e.bisectClusterToBorder(c, 0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got, 1e-8)
}
