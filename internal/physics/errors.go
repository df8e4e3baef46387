package physics

import "errors"

var (
	ErrInvalidMass       = errors.New("mass must be positive")
	ErrInvalidElasticity = errors.New("elasticity must be within [0, 1]")
	ErrInvalidDimension  = errors.New("dimension must be 1 or 2")
	ErrInvalidBounds     = errors.New("play area bounds are empty")
	ErrBallCount         = errors.New("invalid ball count")
	ErrUnknownBall       = errors.New("unknown ball")
	ErrBisectionBracket  = errors.New("bisection bounds classify identically")
	ErrBisectionDiverged = errors.New("bisection did not reach an accepted time")
	ErrNegativeStep      = errors.New("step duration must be non-negative")
	ErrInelasticType     = errors.New("unknown inelastic type")
)
