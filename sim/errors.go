package sim

import "errors"

// Precondition errors returned before any simulation runs.
var (
	// ErrInvalidConfig indicates a cascade configuration that would produce
	// degenerate (NaN or negative) results.
	ErrInvalidConfig = errors.New("sim: invalid cascade configuration")

	// ErrDimensionMismatch indicates vectors whose lengths disagree with the gate count.
	ErrDimensionMismatch = errors.New("sim: dimension mismatch between inputs and cascade")

	// ErrOutOfBounds indicates a gate opening outside the configured opening bounds.
	ErrOutOfBounds = errors.New("sim: gate opening out of bounds")

	// ErrInvalidInput indicates a non-finite or negative inflow, level, time step or step count.
	ErrInvalidInput = errors.New("sim: invalid simulation input")

	// ErrInvalidBounds indicates level safety bounds with y_min >= y_max.
	ErrInvalidBounds = errors.New("sim: invalid level bounds")
)
