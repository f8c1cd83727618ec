// Package optim minimizes scalar objectives over a box of decision variables.
//
// The hydraulic model never depends on this package: optimizers in
// sim/control wrap a simulation in an Objective and hand it to any Minimizer.
package optim

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidBounds indicates bounds whose dimensions or ordering are unusable.
	ErrInvalidBounds = errors.New("optim: invalid bounds")
	// ErrUnknownMethod indicates an unrecognized minimization method name.
	ErrUnknownMethod = errors.New("optim: unknown method")
)

// Objective maps a decision vector to the loss to minimize. It must not
// retain x.
type Objective func(x []float64) float64

// Bounds is a box constraint Lower[i] <= x[i] <= Upper[i].
type Bounds struct {
	Lower []float64
	Upper []float64
}

// UniformBounds returns n identical [lo, hi] intervals.
func UniformBounds(n int, lo, hi float64) Bounds {
	b := Bounds{Lower: make([]float64, n), Upper: make([]float64, n)}
	for i := 0; i < n; i++ {
		b.Lower[i] = lo
		b.Upper[i] = hi
	}
	return b
}

// Validate checks that b describes a non-empty box of dimension n.
func (b Bounds) Validate(n int) error {
	if len(b.Lower) != n || len(b.Upper) != n {
		return fmt.Errorf("%w: need %d lower and upper bounds, got %d and %d", ErrInvalidBounds, n, len(b.Lower), len(b.Upper))
	}
	for i := range b.Lower {
		lo, hi := b.Lower[i], b.Upper[i]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) || lo >= hi {
			return fmt.Errorf("%w: dimension %d has [%f, %f]", ErrInvalidBounds, i, lo, hi)
		}
	}
	return nil
}

// Clamp returns a copy of x projected into the box.
func (b Bounds) Clamp(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(math.Max(v, b.Lower[i]), b.Upper[i])
	}
	return out
}

// Result is the best point found by a minimization.
type Result struct {
	X           []float64 `json:"x"`
	F           float64   `json:"f"`
	Evaluations int       `json:"evaluations"`
	Status      string    `json:"status"`
}

// Minimizer searches a box for the minimum of an objective starting at x0.
// Implementations return the best evaluated point, never one worse than x0,
// and treat non-convergence as a normal outcome rather than an error.
type Minimizer interface {
	Minimize(obj Objective, x0 []float64, b Bounds) (*Result, error)
}
