package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatecascade/gatecascade/sim/solver"
)

func defaultInputs() Inputs {
	return Inputs{
		Inflow:        100,
		Openings:      []float64{0.5, 0.5, 0.5, 0.5},
		InitialLevels: []float64{10, 8, 7, 6},
		Dt:            10,
		Steps:         36,
	}
}

func TestSimulateTransient_TrajectoryShape(t *testing.T) {
	in := defaultInputs()
	in.Steps = 5
	traj, err := SimulateTransient(DefaultCascadeConfig(), in)
	require.NoError(t, err)

	// THEN levels include the seed and flows do not
	assert.Len(t, traj.Levels, 6)
	assert.Len(t, traj.Flows, 5)
	assert.Len(t, traj.Converged, 5)
	assert.Len(t, traj.Residuals, 5)
	assert.Equal(t, []float64{10, 8, 7, 6}, traj.Levels[0])
	for _, q := range traj.Flows {
		assert.Len(t, q, 5)
	}
	assert.Equal(t, 5, traj.Steps())
	assert.Equal(t, []float64{10, 8, 7, 6}, in.InitialLevels, "initial levels must not be mutated")
}

func TestSimulateTransient_MassBalanceHoldsEveryStep(t *testing.T) {
	// GIVEN the default cascade
	cfg := DefaultCascadeConfig()
	in := defaultInputs()
	traj, err := SimulateTransient(cfg, in)
	require.NoError(t, err)
	require.Equal(t, 0, traj.NonConverged())

	// THEN y_new - y_old - (q_in - q_out)·dt/A vanishes for every segment, with
	// outflows chained and the level below the last gate held at zero
	k := in.Dt / cfg.ReservoirArea
	n := cfg.Gates()
	for step := 0; step < traj.Steps(); step++ {
		prev, next := traj.Levels[step], traj.Levels[step+1]
		qIn := traj.Flows[step][0]
		for i := 0; i < n; i++ {
			down := 0.0
			if i+1 < n {
				down = next[i+1]
			}
			qOut := cfg.Outflow(i, in.Openings[i], next[i], down)
			residual := next[i] - prev[i] - (qIn-qOut)*k
			assert.Less(t, math.Abs(residual), 1e-8, "step %d segment %d", step, i)
			qIn = qOut
		}
	}
}

func TestSimulateTransient_ReportedFlowsUseTailwaterOffset(t *testing.T) {
	// GIVEN the default cascade with distinct openings
	cfg := DefaultCascadeConfig()
	in := defaultInputs()
	in.Openings = []float64{0.4, 0.8, 1.2, 1.6}
	in.Steps = 3
	traj, err := SimulateTransient(cfg, in)
	require.NoError(t, err)

	// THEN every gate reports its discharge against the fixed tailwater
	// offset at the solved level, not against the next segment's level
	for step := 0; step < traj.Steps(); step++ {
		levels := traj.Levels[step+1]
		for i, h := range in.Openings {
			want := cfg.Outflow(i, h, levels[i], cfg.TailwaterOffset)
			assert.InDelta(t, want, traj.Flows[step][i+1], 1e-12, "step %d gate %d", step, i)
		}
	}
	// and the first gate passes far more than its chained mass-balance outflow
	chained := cfg.Outflow(0, in.Openings[0], traj.Levels[1][0], traj.Levels[1][1])
	assert.Greater(t, traj.Flows[0][1], chained)
}

func TestSimulateTransient_SelfFeedsBoundaryInflow(t *testing.T) {
	traj, err := SimulateTransient(DefaultCascadeConfig(), defaultInputs())
	require.NoError(t, err)

	assert.Equal(t, 100.0, traj.Flows[0][0])
	for step := 1; step < traj.Steps(); step++ {
		prev := traj.Flows[step-1]
		assert.Equal(t, prev[len(prev)-1], traj.Flows[step][0], "step %d", step)
	}
}

func TestSimulateTransient_InflowSeriesReplacesSelfFeeding(t *testing.T) {
	in := defaultInputs()
	in.Steps = 6
	in.InflowSeries = []float64{50, 60, 70}
	traj, err := SimulateTransient(DefaultCascadeConfig(), in)
	require.NoError(t, err)

	want := []float64{50, 60, 70, 70, 70, 70}
	for step, q := range want {
		assert.Equal(t, q, traj.Flows[step][0], "step %d", step)
	}
}

func TestSimulateTransient_FirstStepFlowsNonNegativeFinite(t *testing.T) {
	cfg := DefaultCascadeConfig()
	for _, h := range []float64{0.1, 1.0, 2.0} {
		in := defaultInputs()
		in.Openings = []float64{h, h, h, h}
		in.Steps = 1
		traj, err := SimulateTransient(cfg, in)
		require.NoError(t, err)
		for _, q := range traj.Flows[0] {
			assert.False(t, math.IsNaN(q) || math.IsInf(q, 0))
			assert.GreaterOrEqual(t, q, 0.0)
		}
	}
}

func TestSimulateTransient_NoInflowDrainsCascade(t *testing.T) {
	// GIVEN small segments with the upstream source shut off
	cfg := DefaultCascadeConfig()
	cfg.ReservoirArea = 50
	for _, h := range []float64{0.1, 2.0} {
		in := Inputs{
			Inflow:        0,
			Openings:      []float64{h, h, h, h},
			InitialLevels: []float64{10, 9.5, 9, 8.5},
			Dt:            2,
			Steps:         2000,
			InflowSeries:  []float64{0},
		}

		// WHEN simulated over a long horizon
		traj, err := SimulateTransient(cfg, in)
		require.NoError(t, err)

		// THEN every outflow has decayed to zero
		for i, q := range traj.FinalFlows()[1:] {
			assert.Less(t, q, 1e-3, "opening %v gate %d", h, i)
		}
		for _, y := range traj.FinalLevels() {
			assert.GreaterOrEqual(t, y, 0.0)
		}
	}
}

// stuckSolver never moves from its seed.
type stuckSolver struct{}

func (stuckSolver) Solve(f solver.System, x0 []float64) solver.Result {
	return solver.Result{X: append([]float64(nil), x0...), Residual: 1, Converged: false}
}

func TestSimulator_NonConvergenceIsFlaggedNotFatal(t *testing.T) {
	s, err := NewSimulator(DefaultCascadeConfig(), stuckSolver{})
	require.NoError(t, err)

	in := defaultInputs()
	in.Steps = 3
	traj, err := s.Run(in)
	require.NoError(t, err)

	assert.Equal(t, 3, traj.NonConverged())
	assert.Equal(t, in.InitialLevels, traj.FinalLevels())
}

func TestSimulateTransient_RejectsInvalidInputs(t *testing.T) {
	cfg := DefaultCascadeConfig()
	tests := []struct {
		name   string
		mutate func(in *Inputs)
		want   error
	}{
		{"zero steps", func(in *Inputs) { in.Steps = 0 }, ErrInvalidInput},
		{"zero dt", func(in *Inputs) { in.Dt = 0 }, ErrInvalidInput},
		{"negative inflow", func(in *Inputs) { in.Inflow = -5 }, ErrInvalidInput},
		{"negative level", func(in *Inputs) { in.InitialLevels = []float64{10, -1, 9, 8} }, ErrInvalidInput},
		{"short levels", func(in *Inputs) { in.InitialLevels = []float64{10, 9} }, ErrDimensionMismatch},
		{"opening out of bounds", func(in *Inputs) { in.Openings = []float64{0.5, 0.5, 0.5, 3} }, ErrOutOfBounds},
		{"NaN in series", func(in *Inputs) { in.InflowSeries = []float64{math.NaN()} }, ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := defaultInputs()
			tc.mutate(&in)
			_, err := SimulateTransient(cfg, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestTrajectory_EmptyAccessors(t *testing.T) {
	var traj Trajectory
	assert.Nil(t, traj.FinalLevels())
	assert.Nil(t, traj.FinalFlows())
	assert.Equal(t, 0.0, traj.FinalOutflow())
	assert.Equal(t, 0, traj.NonConverged())
}
