package sim

// Trajectory is the time series produced by one transient run.
//
// Levels has steps+1 rows: row 0 is the initial seed and row k the levels
// after step k. Flows has steps rows, one per step, each of length N+1 with
// element 0 the boundary inflow that step used. The asymmetry is deliberate:
// the initial flows are never computed. Converged and Residuals hold the
// per-step status of the nonlinear solve.
type Trajectory struct {
	Levels    [][]float64 `json:"levels"`
	Flows     [][]float64 `json:"flows"`
	Converged []bool      `json:"converged"`
	Residuals []float64   `json:"residuals"`
}

// Steps returns the number of simulated steps.
func (t *Trajectory) Steps() int { return len(t.Flows) }

// FinalLevels returns the levels after the last step.
func (t *Trajectory) FinalLevels() []float64 {
	if len(t.Levels) == 0 {
		return nil
	}
	return t.Levels[len(t.Levels)-1]
}

// FinalFlows returns the flow trace of the last step.
func (t *Trajectory) FinalFlows() []float64 {
	if len(t.Flows) == 0 {
		return nil
	}
	return t.Flows[len(t.Flows)-1]
}

// FinalOutflow returns the discharge through the last gate at the last step.
func (t *Trajectory) FinalOutflow() float64 {
	q := t.FinalFlows()
	if len(q) == 0 {
		return 0
	}
	return q[len(q)-1]
}

// NonConverged counts steps whose solve did not meet the tolerance.
func (t *Trajectory) NonConverged() int {
	n := 0
	for _, ok := range t.Converged {
		if !ok {
			n++
		}
	}
	return n
}
