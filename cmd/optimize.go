package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gatecascade/gatecascade/sim/control"
	"github.com/gatecascade/gatecascade/sim/scenario"
	"github.com/gatecascade/gatecascade/sim/trace"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search gate openings for a scenario",
}

var optimizeSteadyCmd = &cobra.Command{
	Use:   "steady",
	Short: "Minimize the level spread of the single-instant model",
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario(scenarioPath)
		report, err := optimizeSteady(sc)
		if err != nil {
			logrus.Fatalf("Steady-state optimization failed: %v", err)
		}
		w, done := openOutput(outputPath)
		defer done()
		if err := writeJSON(w, report); err != nil {
			logrus.Fatalf("Failed to write result: %v", err)
		}
	},
}

var optimizeGoalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Minimize the hybrid target/penalty loss of the transient model",
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario(scenarioPath)
		if sc.Goal == nil {
			logrus.Fatalf("Scenario %s has no goal block", scenarioPath)
		}
		report, err := optimizeGoal(sc)
		if err != nil {
			logrus.Fatalf("Goal optimization failed: %v", err)
		}
		w, done := openOutput(outputPath)
		defer done()
		if err := writeJSON(w, report); err != nil {
			logrus.Fatalf("Failed to write result: %v", err)
		}
	},
}

// optimizationReport is the JSON document written by optimize, sweep and serve.
type optimizationReport struct {
	Scenario string                `json:"scenario,omitempty"`
	Mode     string                `json:"mode"`
	Steady   *control.SteadyResult `json:"steady,omitempty"`
	Goal     *control.GoalResult   `json:"goal,omitempty"`
	Trace    *traceReport          `json:"trace,omitempty"`
}

type traceReport struct {
	Summary     *trace.TraceSummary      `json:"summary"`
	Evaluations []trace.EvaluationRecord `json:"evaluations"`
	Dropped     int                      `json:"dropped"`
}

func newTraceReport(st *trace.SearchTrace) *traceReport {
	if st == nil {
		return nil
	}
	return &traceReport{Summary: trace.Summarize(st), Evaluations: st.Evaluations, Dropped: st.Dropped}
}

func optimizeSteady(sc *scenario.Scenario) (*optimizationReport, error) {
	opts := sc.ControlOptions()
	res, err := control.OptimizeSteadyState(sc.CascadeConfig(), sc.Inflow, sc.UpstreamLevel, opts)
	if err != nil {
		return nil, err
	}
	return &optimizationReport{Scenario: sc.Name, Mode: "steady", Steady: res, Trace: newTraceReport(opts.Trace)}, nil
}

func optimizeGoal(sc *scenario.Scenario) (*optimizationReport, error) {
	opts := sc.ControlOptions()
	res, err := control.OptimizeGoal(sc.CascadeConfig(), sc.GoalInputs(), opts)
	if err != nil {
		return nil, err
	}
	return &optimizationReport{Scenario: sc.Name, Mode: "goal", Goal: res, Trace: newTraceReport(opts.Trace)}, nil
}

// optimizeScenario runs the goal optimizer when the scenario has a goal and
// the steady-state optimizer otherwise.
func optimizeScenario(sc *scenario.Scenario) (*optimizationReport, error) {
	if sc.Goal != nil {
		return optimizeGoal(sc)
	}
	return optimizeSteady(sc)
}
