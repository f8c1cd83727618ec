package control

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/gatecascade/gatecascade/sim"
)

// DefaultPenaltyWeight is the bound-violation weight of the reference dashboard.
const DefaultPenaltyWeight = 100.0

// GoalInputs describes a goal-directed optimization. Inputs.Openings is
// ignored: the openings are the decision variables.
//
// With TargetLevels set the loss matches levels; otherwise it matches the
// final outflow to TargetFlow and softly penalizes levels outside
// [LevelMin, LevelMax]. Levels of segment 0, which receives the boundary
// inflow, never enter the loss.
type GoalInputs struct {
	sim.Inputs
	TargetLevels  []float64 // one per segment after the source segment (len N-1)
	TargetFlow    float64
	LevelMin      float64
	LevelMax      float64
	PenaltyWeight float64
}

// Validate checks g against cfg.
func (g GoalInputs) Validate(cfg sim.CascadeConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := g.Inputs.ValidateState(cfg); err != nil {
		return err
	}
	if len(g.TargetLevels) > 0 {
		if len(g.TargetLevels) != cfg.Gates()-1 {
			return fmt.Errorf("%w: %d target levels for %d controlled segments",
				sim.ErrDimensionMismatch, len(g.TargetLevels), cfg.Gates()-1)
		}
		for i, y := range g.TargetLevels {
			if math.IsNaN(y) || math.IsInf(y, 0) || y < 0 {
				return fmt.Errorf("%w: target_levels[%d] must be a finite non-negative number, got %f", sim.ErrInvalidInput, i, y)
			}
		}
		return nil
	}
	if math.IsNaN(g.TargetFlow) || math.IsInf(g.TargetFlow, 0) || g.TargetFlow < 0 {
		return fmt.Errorf("%w: target_flow must be a finite non-negative number, got %f", sim.ErrInvalidInput, g.TargetFlow)
	}
	if err := sim.ValidateLevelBounds(g.LevelMin, g.LevelMax); err != nil {
		return err
	}
	if math.IsNaN(g.PenaltyWeight) || math.IsInf(g.PenaltyWeight, 0) || g.PenaltyWeight < 0 {
		return fmt.Errorf("%w: penalty_weight must be a finite non-negative number, got %f", sim.ErrInvalidInput, g.PenaltyWeight)
	}
	return nil
}

// GoalResult is the outcome of OptimizeGoal. Trajectory comes from one
// confirmatory run with the best openings; search evaluations are not kept
// unless a trace was supplied.
type GoalResult struct {
	Openings    []float64       `json:"openings"`
	Loss        float64         `json:"loss"`
	Trajectory  *sim.Trajectory `json:"trajectory"`
	Evaluations int             `json:"evaluations"`
	Status      string          `json:"status"`
}

// TrajectoryLoss scores the final step of traj against g.
func TrajectoryLoss(g GoalInputs, traj *sim.Trajectory) float64 {
	final := traj.FinalLevels()
	if len(final) == 0 {
		return math.Inf(1)
	}
	levels := final[1:]
	if len(g.TargetLevels) > 0 {
		loss := 0.0
		for i, y := range levels {
			d := y - g.TargetLevels[i]
			loss += d * d
		}
		return loss
	}
	d := traj.FinalOutflow() - g.TargetFlow
	penalty := 0.0
	for _, y := range levels {
		switch {
		case y < g.LevelMin:
			penalty += (g.LevelMin - y) * (g.LevelMin - y)
		case y > g.LevelMax:
			penalty += (y - g.LevelMax) * (y - g.LevelMax)
		}
	}
	return d*d + g.PenaltyWeight*penalty
}

// HybridLoss runs the transient simulator with openings to completion and
// scores its final step.
func HybridLoss(s *sim.Simulator, g GoalInputs, openings []float64) (float64, *sim.Trajectory, error) {
	traj, err := s.Run(g.Inputs.WithOpenings(openings))
	if err != nil {
		return math.Inf(1), nil, err
	}
	return TrajectoryLoss(g, traj), traj, nil
}

// OptimizeGoal finds openings minimizing the hybrid loss. Each objective
// evaluation costs a full transient run, so callers bound the cost through
// g.Steps and the minimizer's evaluation cap.
func OptimizeGoal(cfg sim.CascadeConfig, g GoalInputs, opts Options) (*GoalResult, error) {
	if err := g.Validate(cfg); err != nil {
		return nil, err
	}
	s, err := sim.NewSimulator(cfg, opts.Solver)
	if err != nil {
		return nil, err
	}

	obj := func(h []float64) float64 {
		loss, _, err := HybridLoss(s, g, h)
		if err != nil {
			return math.Inf(1)
		}
		return loss
	}
	res, err := opts.minimizer().Minimize(traced(obj, opts.Trace), cfg.InitialOpenings(), openingBounds(cfg))
	if err != nil {
		return nil, err
	}
	loss, traj, err := HybridLoss(s, g, res.X)
	if err != nil {
		return nil, err
	}
	if n := traj.NonConverged(); n > 0 {
		logrus.Warnf("goal optimization: %d of %d steps of the final run did not converge", n, traj.Steps())
	}
	logrus.Infof("goal optimization: loss=%.6g final outflow=%.4g after %d evaluations (%s), openings=%v",
		loss, traj.FinalOutflow(), res.Evaluations, res.Status, res.X)
	return &GoalResult{
		Openings:    res.X,
		Loss:        loss,
		Trajectory:  traj,
		Evaluations: res.Evaluations,
		Status:      res.Status,
	}, nil
}
