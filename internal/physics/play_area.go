package physics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Dimension is the number of spatial axes balls may move along.
type Dimension int

const (
	Dimension1D Dimension = 1
	Dimension2D Dimension = 2
)

// InelasticType selects how a perfectly inelastic (elasticity 0) ball-ball
// collision is resolved.
type InelasticType string

const (
	InelasticSlip  InelasticType = "slip"  // line-of-centers components equalize, tangential kept
	InelasticStick InelasticType = "stick" // balls join into a rotating cluster
)

// Side identifies one wall of the play area.
type Side int

const (
	SideLeft Side = iota
	SideRight
	SideBottom
	SideTop
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	case SideBottom:
		return "bottom"
	case SideTop:
		return "top"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// Normal returns the outward unit normal of the wall.
func (s Side) Normal() r2.Point {
	switch s {
	case SideLeft:
		return r2.Point{X: -1}
	case SideRight:
		return r2.Point{X: 1}
	case SideBottom:
		return r2.Point{Y: -1}
	default:
		return r2.Point{Y: 1}
	}
}

var (
	sides1D = []Side{SideLeft, SideRight}
	sides2D = []Side{SideLeft, SideRight, SideBottom, SideTop}
)

// PlayArea is the rectangular region balls move within, plus the
// configuration the engine reads each step.
type PlayArea struct {
	Bounds         r2.Rect       `json:"bounds" msgpack:"bounds"`
	Dimension      Dimension     `json:"dimension" msgpack:"dimension"`
	Elasticity     float64       `json:"elasticity" msgpack:"elasticity"`
	ReflectsBorder bool          `json:"reflects_border" msgpack:"reflects_border"`
	GridVisible    bool          `json:"grid_visible" msgpack:"grid_visible"`
	GridSpacing    float64       `json:"grid_spacing" msgpack:"grid_spacing"`
	InelasticType  InelasticType `json:"inelastic_type" msgpack:"inelastic_type"`
}

// NewPlayArea validates and builds a reflecting, perfectly elastic area.
func NewPlayArea(bounds r2.Rect, dim Dimension) (*PlayArea, error) {
	if bounds.IsEmpty() || bounds.X.Length() <= 0 || bounds.Y.Length() <= 0 {
		return nil, ErrInvalidBounds
	}
	if dim != Dimension1D && dim != Dimension2D {
		return nil, fmt.Errorf("dimension %d: %w", dim, ErrInvalidDimension)
	}
	return &PlayArea{
		Bounds:         bounds,
		Dimension:      dim,
		Elasticity:     DefaultElasticity,
		ReflectsBorder: true,
		GridSpacing:    DefaultGridSize,
		InelasticType:  InelasticSlip,
	}, nil
}

// DefaultPlayArea returns the standard 3.2m x 2m area (3.2m x 1m in 1D).
func DefaultPlayArea(dim Dimension) *PlayArea {
	height := 1.0
	if dim == Dimension1D {
		height = 0.5
	}
	area, err := NewPlayArea(r2.RectFromPoints(r2.Point{X: -1.6, Y: -height}, r2.Point{X: 1.6, Y: height}), dim)
	if err != nil {
		panic(err)
	}
	return area
}

// SetElasticity sets the restitution coefficient.
func (a *PlayArea) SetElasticity(e float64) error {
	if !(e >= 0 && e <= 1) {
		return fmt.Errorf("elasticity %v: %w", e, ErrInvalidElasticity)
	}
	a.Elasticity = e
	return nil
}

func (a *PlayArea) SetReflectsBorder(reflects bool) { a.ReflectsBorder = reflects }

func (a *PlayArea) SetGridVisible(visible bool) { a.GridVisible = visible }

func (a *PlayArea) SetInelasticType(t InelasticType) error {
	if t != InelasticSlip && t != InelasticStick {
		return fmt.Errorf("%q: %w", t, ErrInelasticType)
	}
	a.InelasticType = t
	return nil
}

// Sides returns the walls that matter in the current dimension.
func (a *PlayArea) Sides() []Side {
	if a.Dimension == Dimension1D {
		return sides1D
	}
	return sides2D
}

// ErodedBounds shrinks the bounds by radius on every side. The result is
// the set of legal centers for a disc of that radius and may be empty.
func (a *PlayArea) ErodedBounds(radius float64) r2.Rect {
	return a.Bounds.ExpandedByMargin(-radius)
}

// ClampBallPosition returns the closest legal center to target for a disc of
// the given radius. With the grid visible the result is snapped onto the
// grid inside the eroded bounds.
func (a *PlayArea) ClampBallPosition(target r2.Point, radius float64) r2.Point {
	eroded := a.ErodedBounds(radius)
	var p r2.Point
	if eroded.IsEmpty() {
		p = a.Bounds.Center()
	} else if a.GridVisible && a.GridSpacing > 0 {
		p = r2.Point{
			X: snapToGrid(target.X, eroded.X, a.GridSpacing),
			Y: snapToGrid(target.Y, eroded.Y, a.GridSpacing),
		}
	} else {
		p = eroded.ClampPoint(target)
	}
	if a.Dimension == Dimension1D {
		p.Y = 0
	}
	return p
}

// snapToGrid rounds v to the nearest grid line inside the interval, falling
// back to a plain clamp when no grid line fits.
func snapToGrid(v float64, in r1.Interval, spacing float64) float64 {
	lo := math.Ceil(in.Lo/spacing-Tolerance) * spacing
	hi := math.Floor(in.Hi/spacing+Tolerance) * spacing
	if lo > hi {
		return in.ClampPoint(v)
	}
	snapped := math.Round(v/spacing) * spacing
	return math.Max(lo, math.Min(hi, snapped))
}

// wallGap is the signed distance from a disc center to the eroded wall on
// side s. Negative means the disc overlaps that wall.
func (a *PlayArea) wallGap(pos r2.Point, radius float64, s Side) float64 {
	switch s {
	case SideLeft:
		return pos.X - (a.Bounds.X.Lo + radius)
	case SideRight:
		return (a.Bounds.X.Hi - radius) - pos.X
	case SideBottom:
		return pos.Y - (a.Bounds.Y.Lo + radius)
	default:
		return (a.Bounds.Y.Hi - radius) - pos.Y
	}
}

// IsBallTouchingSide reports whether the disc is tangent to side s within
// Tolerance.
func (a *PlayArea) IsBallTouchingSide(b *Ball, s Side) bool {
	return a.isDiscTouchingSide(b.Position, b.Radius(), s)
}

func (a *PlayArea) isDiscTouchingSide(pos r2.Point, radius float64, s Side) bool {
	return math.Abs(a.wallGap(pos, radius, s)) <= Tolerance
}

// IsBallTouchingAnySide reports whether the disc is tangent to any active wall.
func (a *PlayArea) IsBallTouchingAnySide(b *Ball) bool {
	for _, s := range a.Sides() {
		if a.IsBallTouchingSide(b, s) {
			return true
		}
	}
	return false
}

// FullyContainsBall reports whether the whole disc is inside the bounds,
// allowing Tolerance of overlap.
func (a *PlayArea) FullyContainsBall(b *Ball) bool {
	return a.containsDisc(b.Position, b.Radius())
}

func (a *PlayArea) containsDisc(pos r2.Point, radius float64) bool {
	for _, s := range a.Sides() {
		if a.wallGap(pos, radius, s) < -Tolerance {
			return false
		}
	}
	return true
}
