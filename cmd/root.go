package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gatecascade/gatecascade/sim/scenario"
)

var (
	logLevel     string // Log verbosity level
	scenarioPath string // Scenario YAML file
	outputFormat string // json or csv
	outputPath   string // output file ("" = stdout)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "gatecascade",
	Short: "Sluice-gate cascade simulator and gate-opening optimizer",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// mustLoadScenario loads and validates a scenario or exits.
func mustLoadScenario(path string) *scenario.Scenario {
	if path == "" {
		logrus.Fatalf("Scenario file not provided (--scenario). Exiting.")
	}
	sc, err := scenario.Load(path)
	if err != nil {
		logrus.Fatalf("Failed to load scenario: %v", err)
	}
	if err := sc.Validate(); err != nil {
		logrus.Fatalf("Invalid scenario %s: %v", path, err)
	}
	return sc
}

// openOutput returns the writer selected by --out and a close function.
func openOutput(path string) (*os.File, func()) {
	if path == "" {
		return os.Stdout, func() {}
	}
	f, err := os.Create(path)
	if err != nil {
		logrus.Fatalf("Error creating file %s: %v", path, err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logrus.Fatalf("Error closing file %s: %v", path, err)
		}
		logrus.Debugf("Successfully wrote to '%s'", path)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	for _, c := range []*cobra.Command{snapshotCmd, runCmd, optimizeSteadyCmd, optimizeGoalCmd} {
		c.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a scenario YAML file")
		c.Flags().StringVar(&outputPath, "out", "", "Write results to this file instead of stdout")
	}
	runCmd.Flags().StringVar(&outputFormat, "output", "json", "Trajectory output format (json, csv)")

	optimizeCmd.AddCommand(optimizeSteadyCmd, optimizeGoalCmd)
	rootCmd.AddCommand(snapshotCmd, runCmd, optimizeCmd, sweepCmd, serveCmd)
}
