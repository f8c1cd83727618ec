package sim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/gatecascade/gatecascade/sim/solver"
)

// Inputs are the per-run inputs of the transient simulator.
type Inputs struct {
	Inflow        float64   // boundary inflow of the first step
	Openings      []float64 // one opening per gate
	InitialLevels []float64 // one level per segment; segment i drains through gate i
	Dt            float64   // time step (seconds)
	Steps         int       // number of steps, e.g. horizon / Dt

	// InflowSeries, when non-empty, replaces self-feeding: step k uses
	// InflowSeries[k], holding the last value once the series runs out.
	InflowSeries []float64
}

// Validate checks the inputs against cfg.
func (in Inputs) Validate(cfg CascadeConfig) error {
	if err := cfg.ValidateOpenings(in.Openings); err != nil {
		return err
	}
	return in.ValidateState(cfg)
}

// ValidateState checks the initial state, inflow and stepping of in without
// looking at the openings, which optimizers supply.
func (in Inputs) ValidateState(cfg CascadeConfig) error {
	if len(in.InitialLevels) != cfg.Gates() {
		return fmt.Errorf("%w: %d initial levels for %d gates", ErrDimensionMismatch, len(in.InitialLevels), cfg.Gates())
	}
	for i, y := range in.InitialLevels {
		if err := validateFiniteNonNegative(fmt.Sprintf("initial_levels[%d]", i), y); err != nil {
			return err
		}
	}
	if err := validateFiniteNonNegative("inflow", in.Inflow); err != nil {
		return err
	}
	for i, q := range in.InflowSeries {
		if err := validateFiniteNonNegative(fmt.Sprintf("inflow_series[%d]", i), q); err != nil {
			return err
		}
	}
	if math.IsNaN(in.Dt) || math.IsInf(in.Dt, 0) || in.Dt <= 0 {
		return fmt.Errorf("%w: dt must be a finite positive number, got %f", ErrInvalidInput, in.Dt)
	}
	if in.Steps < 1 {
		return fmt.Errorf("%w: steps must be at least 1, got %d", ErrInvalidInput, in.Steps)
	}
	return nil
}

// WithOpenings returns a copy of in using h as the opening vector.
func (in Inputs) WithOpenings(h []float64) Inputs {
	in.Openings = h
	return in
}

// Simulator advances a cascade through discrete time steps. Each step solves
// the coupled mass balance of all segments implicitly for the new levels.
// A Simulator holds no per-run state and is safe for concurrent use when its
// Solver is.
type Simulator struct {
	cfg    CascadeConfig
	solver solver.Solver
}

// NewSimulator validates cfg and returns a simulator using s for the per-step
// solve. A nil s selects a default Newton solver.
func NewSimulator(cfg CascadeConfig, s solver.Solver) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		s = solver.Newton{}
	}
	return &Simulator{cfg: cfg.Clone(), solver: s}, nil
}

// Config returns a copy of the simulator's cascade configuration.
func (s *Simulator) Config() CascadeConfig { return s.cfg.Clone() }

// SimulateTransient runs a transient simulation with the default solver.
func SimulateTransient(cfg CascadeConfig, in Inputs) (*Trajectory, error) {
	s, err := NewSimulator(cfg, nil)
	if err != nil {
		return nil, err
	}
	return s.Run(in)
}

// Run simulates exactly in.Steps steps; there is no early stop at steady state.
// A step whose solve does not converge keeps the solver's last iterate and is
// flagged in the trajectory rather than failing the run.
func (s *Simulator) Run(in Inputs) (*Trajectory, error) {
	if err := in.Validate(s.cfg); err != nil {
		return nil, err
	}
	n := s.cfg.Gates()
	openings := append([]float64(nil), in.Openings...)
	traj := &Trajectory{
		Levels:    make([][]float64, 0, in.Steps+1),
		Flows:     make([][]float64, 0, in.Steps),
		Converged: make([]bool, 0, in.Steps),
		Residuals: make([]float64, 0, in.Steps),
	}
	levels := append([]float64(nil), in.InitialLevels...)
	traj.Levels = append(traj.Levels, levels)

	inflow := in.Inflow
	for step := 0; step < in.Steps; step++ {
		if len(in.InflowSeries) > 0 {
			inflow = in.InflowSeries[min(step, len(in.InflowSeries)-1)]
		}
		res := s.solver.Solve(s.massBalance(openings, levels, inflow, in.Dt), levels)
		if !res.Converged {
			logrus.Debugf("[step %04d] level solve did not converge after %d iterations (residual %.3g)",
				step, res.Iterations, res.Residual)
		}
		next := make([]float64, n)
		for i, y := range res.X {
			next[i] = math.Max(y, 0)
		}
		flows := s.stepFlows(openings, next, inflow)

		traj.Levels = append(traj.Levels, next)
		traj.Flows = append(traj.Flows, flows)
		traj.Converged = append(traj.Converged, res.Converged)
		traj.Residuals = append(traj.Residuals, res.Residual)

		levels = next
		inflow = flows[n]
	}
	return traj, nil
}

// massBalance returns the residual y_i - y_i^old - (q_in_i - q_out_i(y))·dt/A
// for every segment. Inflow to segment i is gate i-1's outflow; the level
// below the last gate is held at zero.
func (s *Simulator) massBalance(openings, prev []float64, inflow, dt float64) solver.System {
	n := len(prev)
	k := dt / s.cfg.ReservoirArea
	return func(dst, y []float64) {
		qIn := inflow
		for i := 0; i < n; i++ {
			down := 0.0
			if i+1 < n {
				down = y[i+1]
			}
			qOut := s.cfg.Outflow(i, openings[i], y[i], down)
			dst[i] = y[i] - prev[i] - (qIn-qOut)*k
			qIn = qOut
		}
	}
}

// stepFlows derives the reported flows from solved levels. Like the
// single-step model, every gate discharges against the fixed tailwater offset
// rather than the next segment's level, so reported intermediate flows are not
// the chained outflows of the mass balance.
func (s *Simulator) stepFlows(openings, y []float64, inflow float64) []float64 {
	n := len(y)
	q := make([]float64, n+1)
	q[0] = inflow
	for i := 0; i < n; i++ {
		q[i+1] = s.cfg.Outflow(i, openings[i], y[i], s.cfg.TailwaterOffset)
	}
	return q
}
