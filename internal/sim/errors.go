package sim

import "errors"

var (
	ErrUnknownPreset      = errors.New("unknown preset")
	ErrSimulationNotFound = errors.New("simulation not found")
	ErrTooManySimulations = errors.New("too many simulations")
	ErrInvalidSpeed       = errors.New("speed must be in (0, 2]")
	ErrInvalidStep        = errors.New("step must be positive and finite")
	ErrNoDatabase         = errors.New("history database not configured")
	ErrSnapshotNotCached  = errors.New("snapshot not cached")
)
