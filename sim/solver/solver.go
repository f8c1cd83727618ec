// Package solver finds roots of square nonlinear systems F(x) = 0.
//
// The transient cascade simulator uses it once per time step to solve the
// coupled mass balance of all segments for the new levels. Implementations
// never fail hard: they return their last iterate and report whether the
// residual met the tolerance.
package solver

// System evaluates the residual F(x) into dst. len(dst) == len(x).
type System func(dst, x []float64)

// Result is the outcome of one solve.
type Result struct {
	X          []float64 // last iterate
	Residual   float64   // max-norm of F(X)
	Iterations int
	Converged  bool
}

// Solver solves N equations in N unknowns seeded from x0. x0 is not modified.
type Solver interface {
	Solve(f System, x0 []float64) Result
}
