package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gatecascade/gatecascade/sim"
)

// snapshotCmd evaluates the single-step model for the scenario's openings.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Evaluate the single-instant cascade model",
	Run: func(cmd *cobra.Command, args []string) {
		sc := mustLoadScenario(scenarioPath)
		snap, err := sim.SimulateSnapshot(sc.CascadeConfig(), sc.Inflow, sc.SimOpenings(), sc.UpstreamLevel)
		if err != nil {
			logrus.Fatalf("Snapshot failed: %v", err)
		}
		w, done := openOutput(outputPath)
		defer done()
		if err := writeSnapshotTable(w, snap); err != nil {
			logrus.Fatalf("Failed to write snapshot: %v", err)
		}
	},
}

// runCmd executes the transient simulation using the scenario's openings.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the transient cascade simulation",
	Run: func(cmd *cobra.Command, args []string) {
		if err := validateOutputFormat(outputFormat); err != nil {
			logrus.Fatalf("Invalid --output: %v", err)
		}
		sc := mustLoadScenario(scenarioPath)
		cfg := sc.CascadeConfig()
		in := sc.Inputs()

		logrus.Infof("Starting simulation with %d gates, dt=%gs, steps=%d, inflow=%g",
			cfg.Gates(), in.Dt, in.Steps, in.Inflow)
		startTime := time.Now()
		traj, err := sim.SimulateTransient(cfg, in)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		if n := traj.NonConverged(); n > 0 {
			logrus.Warnf("%d of %d steps did not converge", n, traj.Steps())
		}
		logrus.Infof("Simulation complete in %s: final outflow %.4g", time.Since(startTime), traj.FinalOutflow())

		w, done := openOutput(outputPath)
		defer done()
		if err := writeTrajectory(w, outputFormat, traj, in.Dt); err != nil {
			logrus.Fatalf("Failed to write trajectory: %v", err)
		}
	},
}
