package physics

import (
	"math"

	"github.com/golang/geo/r2"
)

// Vector helpers on top of r2.Point. Positions and velocities in this
// package are r2.Point values; nothing here rounds, unlike network-facing
// fixed-precision vectors.

// isFinite reports whether both components are real numbers.
func isFinite(v r2.Point) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func isFiniteScalar(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// normalizeOr returns the unit vector of v, or fallback when v has no length.
func normalizeOr(v r2.Point, fallback r2.Point) r2.Point {
	n := v.Norm()
	if n == 0 {
		return fallback
	}
	return v.Mul(1 / n)
}

// polar builds a vector from a magnitude and an angle in radians.
func polar(magnitude, angle float64) r2.Point {
	return r2.Point{X: magnitude * math.Cos(angle), Y: magnitude * math.Sin(angle)}
}

// angleOf returns the angle of v in radians measured from +x.
func angleOf(v r2.Point) float64 {
	return math.Atan2(v.Y, v.X)
}

// crossZ is the z component of a x b for planar vectors.
func crossZ(a, b r2.Point) float64 {
	return a.X*b.Y - a.Y*b.X
}

// perpScaled returns omega * z-hat x r, the tangential velocity of a point at r
// rotating with angular velocity omega.
func perpScaled(omega float64, r r2.Point) r2.Point {
	return r2.Point{X: -omega * r.Y, Y: omega * r.X}
}

// approxEqual compares scalars with the package tolerance scaled by magnitude.
func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
