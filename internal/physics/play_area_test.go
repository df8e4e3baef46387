package physics

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareArea(t *testing.T, half float64, dim Dimension) *PlayArea {
	t.Helper()
	area, err := NewPlayArea(r2.RectFromPoints(r2.Point{X: -half, Y: -half}, r2.Point{X: half, Y: half}), dim)
	require.NoError(t, err)
	return area
}

func TestNewPlayAreaValidation(t *testing.T) {
	_, err := NewPlayArea(r2.EmptyRect(), Dimension2D)
	assert.ErrorIs(t, err, ErrInvalidBounds)

	_, err = NewPlayArea(r2.RectFromPoints(r2.Point{}, r2.Point{X: 1, Y: 1}), Dimension(3))
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestSetElasticity(t *testing.T) {
	area := squareArea(t, 1, Dimension2D)
	require.NoError(t, area.SetElasticity(0.4))
	assert.Equal(t, 0.4, area.Elasticity)

	for _, e := range []float64{-0.1, 1.01} {
		assert.ErrorIs(t, area.SetElasticity(e), ErrInvalidElasticity)
	}
	assert.Equal(t, 0.4, area.Elasticity)
}

func TestSetInelasticType(t *testing.T) {
	area := squareArea(t, 1, Dimension2D)
	require.NoError(t, area.SetInelasticType(InelasticStick))
	assert.Equal(t, InelasticStick, area.InelasticType)
	assert.Error(t, area.SetInelasticType("glue"))
}

func TestBallTouchingSideAndContainment(t *testing.T) {
	area := squareArea(t, 1, Dimension2D)
	size := &SizeModel{ConstantRadius: 0.5}

	touching := mustBall(t, 0, BallState{Position: r2.Point{X: 0.5}, Mass: 1}, size)
	assert.True(t, area.IsBallTouchingSide(touching, SideRight))
	assert.False(t, area.IsBallTouchingSide(touching, SideLeft))
	assert.True(t, area.IsBallTouchingAnySide(touching))
	assert.True(t, area.FullyContainsBall(touching))

	outside := mustBall(t, 1, BallState{Position: r2.Point{X: 0.7}, Mass: 1}, size)
	assert.False(t, area.FullyContainsBall(outside))
	assert.False(t, area.IsBallTouchingSide(outside, SideRight))

	inside := mustBall(t, 2, BallState{Position: r2.Point{X: 0.1, Y: -0.2}, Mass: 1}, size)
	assert.True(t, area.FullyContainsBall(inside))
	assert.False(t, area.IsBallTouchingAnySide(inside))
}

func TestOneDimensionalAreaIgnoresHorizontalWalls(t *testing.T) {
	area := squareArea(t, 1, Dimension1D)
	assert.Equal(t, []Side{SideLeft, SideRight}, area.Sides())

	b := mustBall(t, 0, BallState{Position: r2.Point{Y: 0.9}, Mass: 1}, &SizeModel{ConstantRadius: 0.5})
	assert.True(t, area.FullyContainsBall(b))
}

func TestErodedBoundsEmptyForHugeRadius(t *testing.T) {
	area := squareArea(t, 1, Dimension2D)
	assert.True(t, area.ErodedBounds(1.5).IsEmpty())
	assert.Equal(t, r2.Point{}, area.ClampBallPosition(r2.Point{X: 5, Y: 5}, 1.5))
}
