package sim

import (
	"fmt"
	"math"
)

// Default physical constants of the reference deployment.
const (
	DefaultGravity         = 9.81
	DefaultHeadFloor       = 0.1
	DefaultTailwaterOffset = 0.5
	DefaultReachLength     = 5.0
	DefaultReservoirArea   = 1e5
	DefaultGateWidth       = 10.0
	DefaultOpeningMin      = 0.1
	DefaultOpeningMax      = 2.0
	DefaultSnapshotDt      = 1.0

	// DefaultDischargeCoefficient is the Cd of every gate in the default cascade.
	DefaultDischargeCoefficient = 0.6

	// DefaultInitialOpening is the starting guess for every gate in both optimizers.
	DefaultInitialOpening = 0.5
)

// CascadeConfig groups the fixed physical description of a gate cascade.
// It is passed by value into every simulation and optimization call so that
// several cascades can coexist in one process.
type CascadeConfig struct {
	Gravity         float64   // gravitational acceleration g
	HeadFloor       float64   // ε, lower bound applied to every head fed to the discharge law
	TailwaterOffset float64   // assumed tailwater depth below a gate (single-step model, last gate)
	ReachLength     float64   // L, reach length used by the single-step model
	ReservoirArea   float64   // A, plan area of each segment in the transient simulator
	GateWidth       float64   // w, width shared by all gates
	Cd              []float64 // discharge coefficient per gate; len(Cd) is the gate count N
	OpeningMin      float64   // lower opening bound
	OpeningMax      float64   // upper opening bound
	SnapshotDt      float64   // time scale of the single level decrement in the single-step model
}

// DefaultCascadeConfig returns the default four-gate cascade.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		Gravity:         DefaultGravity,
		HeadFloor:       DefaultHeadFloor,
		TailwaterOffset: DefaultTailwaterOffset,
		ReachLength:     DefaultReachLength,
		ReservoirArea:   DefaultReservoirArea,
		GateWidth:       DefaultGateWidth,
		Cd:              []float64{DefaultDischargeCoefficient, DefaultDischargeCoefficient, DefaultDischargeCoefficient, DefaultDischargeCoefficient},
		OpeningMin:      DefaultOpeningMin,
		OpeningMax:      DefaultOpeningMax,
		SnapshotDt:      DefaultSnapshotDt,
	}
}

// Gates returns the number of gates N.
func (c CascadeConfig) Gates() int { return len(c.Cd) }

// InitialOpenings returns the midpoint starting guess used by the optimizers,
// clamped into the opening bounds.
func (c CascadeConfig) InitialOpenings() []float64 {
	h := math.Min(math.Max(DefaultInitialOpening, c.OpeningMin), c.OpeningMax)
	out := make([]float64, c.Gates())
	for i := range out {
		out[i] = h
	}
	return out
}

// Validate rejects configurations that cannot produce finite results.
func (c CascadeConfig) Validate() error {
	if c.Gates() == 0 {
		return fmt.Errorf("%w: at least one gate required", ErrInvalidConfig)
	}
	positives := []struct {
		name string
		val  float64
	}{
		{"gravity", c.Gravity},
		{"head_floor", c.HeadFloor},
		{"reach_length", c.ReachLength},
		{"reservoir_area", c.ReservoirArea},
		{"gate_width", c.GateWidth},
		{"snapshot_dt", c.SnapshotDt},
	}
	for _, p := range positives {
		if err := validateFinitePositive(p.name, p.val); err != nil {
			return err
		}
	}
	if math.IsNaN(c.TailwaterOffset) || math.IsInf(c.TailwaterOffset, 0) || c.TailwaterOffset < 0 {
		return fmt.Errorf("%w: tailwater_offset must be a finite non-negative number, got %f", ErrInvalidConfig, c.TailwaterOffset)
	}
	for i, cd := range c.Cd {
		if err := validateFinitePositive(fmt.Sprintf("cd[%d]", i), cd); err != nil {
			return err
		}
	}
	if err := validateFinitePositive("opening_min", c.OpeningMin); err != nil {
		return err
	}
	if math.IsNaN(c.OpeningMax) || math.IsInf(c.OpeningMax, 0) || c.OpeningMax <= c.OpeningMin {
		return fmt.Errorf("%w: opening_max must be finite and greater than opening_min (%f), got %f",
			ErrInvalidConfig, c.OpeningMin, c.OpeningMax)
	}
	return nil
}

// ValidateOpenings checks that h has one opening per gate, each within bounds.
func (c CascadeConfig) ValidateOpenings(h []float64) error {
	if len(h) != c.Gates() {
		return fmt.Errorf("%w: %d openings for %d gates", ErrDimensionMismatch, len(h), c.Gates())
	}
	for i, v := range h {
		if math.IsNaN(v) || v < c.OpeningMin || v > c.OpeningMax {
			return fmt.Errorf("%w: opening[%d]=%f not in [%g, %g]", ErrOutOfBounds, i, v, c.OpeningMin, c.OpeningMax)
		}
	}
	return nil
}

// ValidateLevelBounds rejects safety bounds that do not satisfy yMin < yMax.
func ValidateLevelBounds(yMin, yMax float64) error {
	if math.IsNaN(yMin) || math.IsNaN(yMax) || yMin >= yMax {
		return fmt.Errorf("%w: y_min (%f) must be less than y_max (%f)", ErrInvalidBounds, yMin, yMax)
	}
	return nil
}

// Clone returns a deep copy so callers can modify coefficients independently.
func (c CascadeConfig) Clone() CascadeConfig {
	out := c
	out.Cd = append([]float64(nil), c.Cd...)
	return out
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%w: %s must be a finite number, got %f", ErrInvalidConfig, name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %f", ErrInvalidConfig, name, val)
	}
	return nil
}

func validateFiniteNonNegative(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
		return fmt.Errorf("%w: %s must be a finite non-negative number, got %f", ErrInvalidInput, name, val)
	}
	return nil
}
