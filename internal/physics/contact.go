package physics

import (
	"math"

	"github.com/golang/geo/r2"
)

// contactKind describes how a predicted contact was found.
type contactKind int

const (
	contactNone       contactKind = iota
	contactFuture                 // bodies apart, contact at a positive time
	contactImmediate              // touching or overlapping and approaching
	contactDegenerate             // overlapping with no approach along the line of centers
)

// discContactTime predicts when two uniformly moving discs first touch.
// The returned time is relative to now.
//
// With dp = p2-p1, dv = v2-v1 and R = r1+r2 the discs touch when
// |dp + dv t|^2 = R^2, i.e. a t^2 + 2b t + c = 0 with a = dv.dv, b = dp.dv
// and c = dp.dp - R^2. The first contact is the smaller root.
func discContactTime(p1, v1 r2.Point, r1 float64, p2, v2 r2.Point, r2r float64) (float64, contactKind) {
	dp := p2.Sub(p1)
	dv := v2.Sub(v1)
	sum := r1 + r2r

	a := dv.Dot(dv)
	b := dp.Dot(dv)
	c := dp.Dot(dp) - sum*sum
	dist := dp.Norm()

	switch {
	case dist < sum-Tolerance:
		// Overlapping.
		if b < -Tolerance {
			return 0, contactImmediate
		}
		if b <= Tolerance {
			return 0, contactDegenerate
		}
		return math.Inf(1), contactNone
	case dist <= sum+Tolerance:
		// Tangent.
		if b < -Tolerance {
			return 0, contactImmediate
		}
		return math.Inf(1), contactNone
	}

	if a == 0 || b >= 0 {
		return math.Inf(1), contactNone
	}
	disc := b*b - a*c
	if disc < 0 {
		return math.Inf(1), contactNone
	}
	// c / (-b + sqrt(disc)) is the smaller root without cancellation.
	t := c / (-b + math.Sqrt(disc))
	if !isFiniteScalar(t) || t < 0 {
		return math.Inf(1), contactNone
	}
	return t, contactFuture
}

// wallContactTime predicts when a uniformly moving disc reaches side s.
// Relative to now; +Inf when the disc is not heading for that wall.
func (a *PlayArea) wallContactTime(pos, vel r2.Point, radius float64, s Side) (float64, contactKind) {
	vn := vel.Dot(s.Normal())
	gap := a.wallGap(pos, radius, s)
	if gap <= Tolerance {
		if vn > 0 {
			return 0, contactImmediate
		}
		return math.Inf(1), contactNone
	}
	if vn <= 0 {
		return math.Inf(1), contactNone
	}
	return gap / vn, contactFuture
}

// borderContactTime returns the earliest wall contact over every active side.
func (a *PlayArea) borderContactTime(pos, vel r2.Point, radius float64) (float64, Side, contactKind) {
	best := math.Inf(1)
	bestSide := SideLeft
	kind := contactNone
	for _, s := range a.Sides() {
		t, k := a.wallContactTime(pos, vel, radius, s)
		if k != contactNone && t < best {
			best, bestSide, kind = t, s, k
		}
	}
	return best, bestSide, kind
}

// restitute resolves two bodies' velocity components along the unit normal n
// with coefficient e, conserving linear momentum. Tangential components are
// untouched.
func restitute(m1 float64, v1 r2.Point, m2 float64, v2 r2.Point, n r2.Point, e float64) (r2.Point, r2.Point) {
	u1 := v1.Dot(n)
	u2 := v2.Dot(n)
	total := m1 + m2
	w1 := (m1*u1 + m2*u2 - m2*e*(u1-u2)) / total
	w2 := (m1*u1 + m2*u2 + m1*e*(u1-u2)) / total
	return v1.Add(n.Mul(w1 - u1)), v2.Add(n.Mul(w2 - u2))
}
