// Package control searches gate openings that meet operational targets.
//
// Both optimizers reduce a simulation to an optim.Objective and hand it to an
// optim.Minimizer, so the search algorithm can be swapped without touching
// the hydraulic model. The decision variables are the N gate openings, boxed
// to the cascade's opening bounds and started from the midpoint guess.
package control

import (
	"github.com/gatecascade/gatecascade/sim"
	"github.com/gatecascade/gatecascade/sim/optim"
	"github.com/gatecascade/gatecascade/sim/solver"
	"github.com/gatecascade/gatecascade/sim/trace"
)

// Options selects the collaborators of an optimization run.
// The zero value searches with Nelder–Mead over the default Newton solver without tracing.
type Options struct {
	Minimizer optim.Minimizer
	Solver    solver.Solver      // transient runs only
	Trace     *trace.SearchTrace // optional; records every objective evaluation
}

func (o Options) minimizer() optim.Minimizer {
	if o.Minimizer == nil {
		return optim.GonumMinimizer{Method: optim.MethodNelderMead}
	}
	return o.Minimizer
}

func openingBounds(cfg sim.CascadeConfig) optim.Bounds {
	return optim.UniformBounds(cfg.Gates(), cfg.OpeningMin, cfg.OpeningMax)
}

// traced wraps obj so every evaluation lands in st.
func traced(obj optim.Objective, st *trace.SearchTrace) optim.Objective {
	if !st.Enabled() {
		return obj
	}
	index := 0
	return func(x []float64) float64 {
		v := obj(x)
		st.RecordEvaluation(trace.EvaluationRecord{Index: index, Openings: x, Loss: v})
		index++
		return v
	}
}
