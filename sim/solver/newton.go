package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultTolerance     = 1e-9
	DefaultMaxIterations = 50
	maxHalvings          = 30
)

// Newton is a damped Newton–Raphson solver with a finite-difference Jacobian.
// Each step is halved until the residual max-norm decreases.
// Zero-valued fields fall back to DefaultTolerance and DefaultMaxIterations.
type Newton struct {
	Tolerance     float64 // stop when max|F(x)| <= Tolerance
	MaxIterations int     // Newton steps before giving up
	Step          float64 // finite-difference step (0 = gonum default)
}

// Solve implements Solver.
func (n Newton) Solve(f System, x0 []float64) Result {
	tol := n.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	maxIter := n.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	dim := len(x0)
	x := append([]float64(nil), x0...)
	if dim == 0 {
		return Result{X: x, Converged: true}
	}
	fx := make([]float64, dim)
	f(fx, x)
	norm := maxNorm(fx)

	jac := mat.NewDense(dim, dim, nil)
	settings := &fd.JacobianSettings{Formula: fd.Central, Step: n.Step}
	var dx mat.VecDense
	trial := make([]float64, dim)
	ftrial := make([]float64, dim)

	iter := 0
	for ; iter < maxIter && !(norm <= tol); iter++ {
		fd.Jacobian(jac, f, x, settings)
		if err := dx.SolveVec(jac, mat.NewVecDense(dim, fx)); err != nil {
			// An ill-conditioned Jacobian still yields a direction; a singular one does not.
			var cond mat.Condition
			if !errors.As(err, &cond) {
				break
			}
		}
		dir := dx.RawVector().Data
		if !allFinite(dir) {
			break
		}

		lambda := 1.0
		improved := false
		for k := 0; k < maxHalvings; k++ {
			for i := range x {
				trial[i] = x[i] - lambda*dir[i]
			}
			f(ftrial, trial)
			if tn := maxNorm(ftrial); tn < norm {
				copy(x, trial)
				copy(fx, ftrial)
				norm = tn
				improved = true
				break
			}
			lambda /= 2
		}
		if !improved {
			break
		}
	}
	return Result{X: x, Residual: norm, Iterations: iter, Converged: norm <= tol}
}

func maxNorm(v []float64) float64 {
	if !allFinite(v) {
		return math.Inf(1)
	}
	return floats.Norm(v, math.Inf(1))
}

func allFinite(v []float64) bool {
	for _, e := range v {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return false
		}
	}
	return true
}
