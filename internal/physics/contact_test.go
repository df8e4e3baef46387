package physics

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
)

func TestDiscContactTime(t *testing.T) {
	tests := []struct {
		name     string
		p1, v1   r2.Point
		p2, v2   r2.Point
		wantKind contactKind
		wantTime float64
	}{
		{
			name: "head on",
			p1:   r2.Point{X: -1}, v1: r2.Point{X: 1},
			p2: r2.Point{X: 1}, v2: r2.Point{X: -1},
			wantKind: contactFuture, wantTime: 0.9,
		},
		{
			name: "moving apart",
			p1:   r2.Point{X: -1}, v1: r2.Point{X: -1},
			p2: r2.Point{X: 1}, v2: r2.Point{X: 1},
			wantKind: contactNone,
		},
		{
			name: "parallel miss",
			p1:   r2.Point{X: -1}, v1: r2.Point{X: 1},
			p2: r2.Point{X: 1, Y: 0.5}, v2: r2.Point{X: -1},
			wantKind: contactNone,
		},
		{
			name: "glancing",
			p1:   r2.Point{X: -1}, v1: r2.Point{X: 1},
			p2: r2.Point{X: 0, Y: 0.1}, v2: r2.Point{},
			wantKind: contactFuture, wantTime: 1 - math.Sqrt(0.04-0.01),
		},
		{
			name: "tangent and approaching",
			p1:   r2.Point{}, v1: r2.Point{X: 1},
			p2: r2.Point{X: 0.2}, v2: r2.Point{},
			wantKind: contactImmediate,
		},
		{
			name: "tangent and separating",
			p1:   r2.Point{}, v1: r2.Point{X: -1},
			p2: r2.Point{X: 0.2}, v2: r2.Point{},
			wantKind: contactNone,
		},
		{
			name: "overlapping at rest",
			p1:   r2.Point{}, p2: r2.Point{X: 0.1},
			wantKind: contactDegenerate,
		},
		{
			name: "overlapping and separating",
			p1:   r2.Point{}, v1: r2.Point{X: -1},
			p2: r2.Point{X: 0.1}, v2: r2.Point{X: 1},
			wantKind: contactNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, kind := discContactTime(tt.p1, tt.v1, 0.1, tt.p2, tt.v2, 0.1)
			assert.Equal(t, tt.wantKind, kind)
			switch kind {
			case contactFuture:
				assert.InDelta(t, tt.wantTime, got, 1e-12)
			case contactImmediate, contactDegenerate:
				assert.Zero(t, got)
			default:
				assert.True(t, math.IsInf(got, 1))
			}
		})
	}
}

func TestDiscContactTimeMatchesSeparation(t *testing.T) {
	p1, v1 := r2.Point{X: -0.7, Y: 0.3}, r2.Point{X: 2.1, Y: -0.4}
	p2, v2 := r2.Point{X: 0.9, Y: -0.2}, r2.Point{X: -1.3, Y: 0.5}
	got, kind := discContactTime(p1, v1, 0.12, p2, v2, 0.2)
	if kind != contactFuture {
		t.Fatalf("expected a future contact, got kind=%d", kind)
	}
	a := p1.Add(v1.Mul(got))
	b := p2.Add(v2.Mul(got))
	assert.InDelta(t, 0.32, b.Sub(a).Norm(), 1e-12)
}

func TestWallContactTime(t *testing.T) {
	area := squareArea(t, 1, Dimension2D)

	got, side, kind := area.borderContactTime(r2.Point{}, r2.Point{X: 1, Y: 2}, 0.5)
	assert.Equal(t, contactFuture, kind)
	assert.Equal(t, SideTop, side)
	assert.InDelta(t, 0.25, got, 1e-12)

	_, _, kind = area.borderContactTime(r2.Point{}, r2.Point{}, 0.5)
	assert.Equal(t, contactNone, kind)

	// Touching the right wall while moving out of it.
	got, side, kind = area.borderContactTime(r2.Point{X: 0.5}, r2.Point{X: 1}, 0.5)
	assert.Equal(t, contactImmediate, kind)
	assert.Equal(t, SideRight, side)
	assert.Zero(t, got)

	// Beyond the left wall but heading back in.
	_, _, kind = area.borderContactTime(r2.Point{X: -0.8}, r2.Point{X: 1}, 0.5)
	assert.Equal(t, contactFuture, kind)
}

func TestRestituteConservesMomentum(t *testing.T) {
	n := r2.Point{X: 0.6, Y: 0.8}
	v1, v2 := r2.Point{X: 1, Y: -0.5}, r2.Point{X: -0.3, Y: 0.2}
	for _, e := range []float64{0, 0.25, 0.5, 1} {
		w1, w2 := restitute(2, v1, 3, v2, n, e)
		before := v1.Mul(2).Add(v2.Mul(3))
		after := w1.Mul(2).Add(w2.Mul(3))
		assert.InDelta(t, before.X, after.X, 1e-12, "e=%v", e)
		assert.InDelta(t, before.Y, after.Y, 1e-12, "e=%v", e)

		// Relative normal velocity is reversed and scaled by e.
		assert.InDelta(t, -e*v1.Sub(v2).Dot(n), w1.Sub(w2).Dot(n), 1e-12, "e=%v", e)
	}
}
