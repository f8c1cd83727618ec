package control

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/gatecascade/gatecascade/sim"
)

// SteadyResult is the outcome of OptimizeSteadyState.
type SteadyResult struct {
	Openings    []float64     `json:"openings"`
	Loss        float64       `json:"loss"`
	Snapshot    *sim.Snapshot `json:"snapshot"`
	Evaluations int           `json:"evaluations"`
	Status      string        `json:"status"`
}

// LevelSpread is the sum of squared deviations of levels from their mean.
func LevelSpread(levels []float64) float64 {
	if len(levels) == 0 {
		return 0
	}
	mean := stat.Mean(levels, nil)
	sum := 0.0
	for _, y := range levels {
		d := y - mean
		sum += d * d
	}
	return sum
}

// SteadyLoss evaluates the steady-state objective for one opening vector.
func SteadyLoss(cfg sim.CascadeConfig, inflow, upstreamLevel float64, openings []float64) (float64, error) {
	snap, err := sim.SimulateSnapshot(cfg, inflow, openings, upstreamLevel)
	if err != nil {
		return math.Inf(1), err
	}
	return LevelSpread(snap.Levels), nil
}

// OptimizeSteadyState finds openings that minimize the spread of levels the
// single-step model produces for the given inflow and upstream level.
// Minimizer non-convergence is not an error: the best point found is returned.
func OptimizeSteadyState(cfg sim.CascadeConfig, inflow, upstreamLevel float64, opts Options) (*SteadyResult, error) {
	x0 := cfg.InitialOpenings()
	// Validates everything once; the objective below can then only fail on
	// openings, which the minimizer keeps in bounds.
	if _, err := sim.SimulateSnapshot(cfg, inflow, x0, upstreamLevel); err != nil {
		return nil, err
	}

	obj := func(h []float64) float64 {
		loss, err := SteadyLoss(cfg, inflow, upstreamLevel, h)
		if err != nil {
			return math.Inf(1)
		}
		return loss
	}
	res, err := opts.minimizer().Minimize(traced(obj, opts.Trace), x0, openingBounds(cfg))
	if err != nil {
		return nil, err
	}
	snap, err := sim.SimulateSnapshot(cfg, inflow, res.X, upstreamLevel)
	if err != nil {
		return nil, err
	}
	logrus.Infof("steady-state optimization: loss=%.6g after %d evaluations (%s), openings=%v",
		res.F, res.Evaluations, res.Status, res.X)
	return &SteadyResult{
		Openings:    res.X,
		Loss:        res.F,
		Snapshot:    snap,
		Evaluations: res.Evaluations,
		Status:      res.Status,
	}, nil
}
