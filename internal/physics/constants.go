package physics

// Physics constants for the collision lab.
// Units are SI: meters, seconds, kilograms.

const (
	MinMass           = 0.1
	MaxMass           = 10.0
	DefaultMass       = 0.5
	ConstantRadius    = 0.15
	DefaultDensity    = 50.0 // kg/m^3, used by the mass-dependent radius model
	Tolerance         = 1e-9 // governs every "touching" test
	PathLifetime      = 0.6  // seconds a trailing path point survives
	MaxBalls          = 5
	MinBalls          = 1
	DefaultGridSize   = 0.1
	DefaultElasticity = 1.0

	// MaxCollisionsPerStep caps handled collisions in a single Step call.
	MaxCollisionsPerStep = 64

	// MaxBisectionIterations bounds the cluster-to-border root search.
	MaxBisectionIterations = 200

	// SpinSamplesPerTurn is how finely a spinning cluster's border search
	// steps through one revolution; MaxSpinSamples bounds the whole walk.
	SpinSamplesPerTurn = 64
	MaxSpinSamples     = 4096
)
