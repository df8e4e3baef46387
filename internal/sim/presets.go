package sim

import (
	"fmt"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/playmatatu/collisionlab/internal/physics"
)

// Preset is a named starting configuration for a simulation.
type Preset struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Dimension      physics.Dimension      `json:"dimension"`
	Policy         physics.ResponsePolicy `json:"policy"`
	Elasticity     float64                `json:"elasticity"`
	InelasticType  physics.InelasticType  `json:"inelastic_type"`
	ReflectsBorder bool                   `json:"reflects_border"`
	ConstantSize   bool                   `json:"constant_size"`
	GridVisible    bool                   `json:"grid_visible"`
	BallCount      int                    `json:"ball_count"`
	Balls          []physics.BallState    `json:"balls"`
}

func state(x, y, vx, vy, mass float64) physics.BallState {
	return physics.BallState{Position: r2.Point{X: x, Y: y}, Velocity: r2.Point{X: vx, Y: vy}, Mass: mass}
}

var presets = map[string]Preset{
	"intro": {
		Name:           "intro",
		Description:    "Two equal-size balls on a line with a visible grid",
		Dimension:      physics.Dimension1D,
		Policy:         physics.PolicyStandard,
		Elasticity:     1,
		InelasticType:  physics.InelasticSlip,
		ReflectsBorder: true,
		ConstantSize:   true,
		GridVisible:    true,
		BallCount:      2,
		Balls: []physics.BallState{
			state(-1.0, 0, 1, 0, 0.5),
			state(0, 0, -0.5, 0, 1.5),
		},
	},
	"explore-1d": {
		Name:           "explore-1d",
		Description:    "Up to five balls on a line",
		Dimension:      physics.Dimension1D,
		Policy:         physics.PolicyStandard,
		Elasticity:     1,
		InelasticType:  physics.InelasticSlip,
		ReflectsBorder: true,
		BallCount:      2,
		Balls: []physics.BallState{
			state(-1.0, 0, 1, 0, 0.5),
			state(0, 0, -0.5, 0, 1.5),
			state(1.0, 0, -0.5, 0, 1.0),
			state(-0.5, 0, 1.1, 0, 1.0),
			state(0.5, 0, -1.1, 0, 1.0),
		},
	},
	"explore-2d": {
		Name:           "explore-2d",
		Description:    "Up to five balls in a box",
		Dimension:      physics.Dimension2D,
		Policy:         physics.PolicyStandard,
		Elasticity:     1,
		InelasticType:  physics.InelasticSlip,
		ReflectsBorder: true,
		BallCount:      2,
		Balls: []physics.BallState{
			state(-1.0, 0, 1, 0.3, 0.5),
			state(0, 0.5, -0.5, -0.5, 1.5),
			state(-1.0, -0.5, -0.5, -0.25, 1.0),
			state(0.2, -0.65, 1.1, 0.2, 1.0),
			state(-0.8, 0.65, -1.1, 0, 1.0),
		},
	},
	"inelastic": {
		Name:           "inelastic",
		Description:    "Two balls that stick together on a head-on collision",
		Dimension:      physics.Dimension2D,
		Policy:         physics.PolicySticking,
		Elasticity:     0,
		InelasticType:  physics.InelasticStick,
		ReflectsBorder: true,
		BallCount:      2,
		Balls: []physics.BallState{
			state(-1.0, 0, 1, 0, 0.5),
			state(0, 0, -0.5, 0, 1.5),
		},
	},
	"inelastic-offset": {
		Name:           "inelastic-offset",
		Description:    "Two balls that stick off-center and spin as one body",
		Dimension:      physics.Dimension2D,
		Policy:         physics.PolicySticking,
		Elasticity:     0,
		InelasticType:  physics.InelasticStick,
		ReflectsBorder: true,
		BallCount:      2,
		Balls: []physics.BallState{
			state(-1.0, 0.1, 1, 0, 0.5),
			state(0, -0.1, -0.5, 0, 1.5),
		},
	},
}

// LookupPreset returns a copy of the named preset.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("preset %q: %w", name, ErrUnknownPreset)
	}
	p.Balls = append([]physics.BallState(nil), p.Balls...)
	return p, nil
}

// Presets lists every preset ordered by name.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for name := range presets {
		p, _ := LookupPreset(name)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
