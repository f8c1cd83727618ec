package optim

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// Method names a gonum minimization algorithm.
type Method string

const (
	// MethodNelderMead is the derivative-free downhill simplex (default).
	MethodNelderMead Method = "nelder-mead"
	// MethodLBFGS is limited-memory BFGS with central finite-difference gradients.
	MethodLBFGS Method = "lbfgs"
)

// validMethods maps accepted method strings.
var validMethods = map[Method]bool{
	MethodNelderMead: true,
	MethodLBFGS:      true,
	"":               true, // empty defaults to nelder-mead
}

// IsValidMethod returns true if the given method string is recognized.
func IsValidMethod(name string) bool {
	return validMethods[Method(name)]
}

// nelderMeadSimplexSize is the initial simplex edge in the unconstrained
// coordinates; the gonum default of 0.05 crawls across a box this size.
const nelderMeadSimplexSize = 0.25

// GonumMinimizer adapts gonum/optimize to a box-constrained Minimizer.
//
// gonum's methods are unconstrained, so the search runs in coordinates u with
// x = lo + (hi-lo)·(1+sin u)/2. Every evaluated x lies inside the box and the
// mapping is smooth, which keeps L-BFGS usable. Zero limits mean the gonum
// default stopping rule alone decides when to stop.
type GonumMinimizer struct {
	Method         Method
	MaxEvaluations int           // cap on objective calls, gradient probes and the start included (0 = none)
	MaxRuntime     time.Duration // wall-clock cap (0 = none)
}

// Minimize implements Minimizer.
func (m GonumMinimizer) Minimize(obj Objective, x0 []float64, b Bounds) (*Result, error) {
	n := len(x0)
	if err := b.Validate(n); err != nil {
		return nil, err
	}
	if !IsValidMethod(string(m.Method)) {
		return nil, fmt.Errorf("%w: %q; valid: nelder-mead, lbfgs", ErrUnknownMethod, m.Method)
	}
	start := b.Clamp(x0)

	best := append([]float64(nil), start...)
	bestF := obj(start)
	evals := 1
	exhausted := func() bool { return m.MaxEvaluations > 0 && evals >= m.MaxEvaluations }
	x := make([]float64, n)
	last := bestF
	f := func(u []float64) float64 {
		// Finite-difference gradients call f outside gonum's evaluation
		// count, so the budget is enforced here on every objective call.
		if exhausted() {
			return last
		}
		toBox(x, u, b)
		last = obj(x)
		evals++
		if last < bestF || math.IsNaN(bestF) {
			bestF = last
			copy(best, x)
		}
		return last
	}

	problem := optimize.Problem{
		Func: f,
		Status: func() (optimize.Status, error) {
			if exhausted() {
				return optimize.FunctionEvaluationLimit, nil
			}
			return optimize.NotTerminated, nil
		},
	}
	var method optimize.Method
	switch m.Method {
	case MethodLBFGS:
		gradSettings := &fd.Settings{Formula: fd.Central}
		problem.Grad = func(grad, u []float64) {
			fd.Gradient(grad, f, u, gradSettings)
		}
		method = &optimize.LBFGS{}
	default:
		method = &optimize.NelderMead{SimplexSize: nelderMeadSimplexSize}
	}

	settings := &optimize.Settings{Runtime: m.MaxRuntime}
	status := "Unknown"
	res, err := optimize.Minimize(problem, toFree(start, b), settings, method)
	if res != nil {
		status = res.Status.String()
	}
	if err != nil {
		logrus.Warnf("minimizer %s stopped early after %d evaluations: %v; returning best point (f=%.6g)",
			methodName(m.Method), evals, err, bestF)
	}
	logrus.Debugf("minimizer %s finished: status=%s evaluations=%d f=%.6g", methodName(m.Method), status, evals, bestF)
	return &Result{X: best, F: bestF, Evaluations: evals, Status: status}, nil
}

func methodName(m Method) Method {
	if m == "" {
		return MethodNelderMead
	}
	return m
}

// toBox maps unconstrained u into the box.
func toBox(dst, u []float64, b Bounds) {
	for i, v := range u {
		dst[i] = b.Lower[i] + (b.Upper[i]-b.Lower[i])*(1+math.Sin(v))/2
	}
}

// toFree is the inverse of toBox on the box.
func toFree(x []float64, b Bounds) []float64 {
	u := make([]float64, len(x))
	for i, v := range x {
		s := 2*(v-b.Lower[i])/(b.Upper[i]-b.Lower[i]) - 1
		u[i] = math.Asin(math.Min(math.Max(s, -1), 1))
	}
	return u
}
