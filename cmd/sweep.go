package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gatecascade/gatecascade/sim/scenario"
)

var (
	sweepScenarios []string // scenario files to optimize
	sweepParallel  int      // concurrent optimizations
)

// sweepCmd optimizes several scenarios concurrently. Every optimization is a
// pure function of its scenario, so runs share nothing.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Optimize several scenarios concurrently",
	Run: func(cmd *cobra.Command, args []string) {
		if len(sweepScenarios) == 0 {
			logrus.Fatalf("No scenarios provided (--scenario). Exiting.")
		}
		scenarios := make([]*scenario.Scenario, 0, len(sweepScenarios))
		for _, path := range sweepScenarios {
			sc := mustLoadScenario(path)
			if sc.Name == "" {
				sc.Name = path
			}
			scenarios = append(scenarios, sc)
		}

		startTime := time.Now()
		reports, err := runSweep(cmd.Context(), scenarios, sweepParallel)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		logrus.Infof("Sweep of %d scenarios complete in %s", len(reports), time.Since(startTime))

		w, done := openOutput(outputPath)
		defer done()
		if err := writeJSON(w, reports); err != nil {
			logrus.Fatalf("Failed to write results: %v", err)
		}
	},
}

// runSweep optimizes scenarios with at most parallel concurrent runs and
// returns reports in input order. The first failure cancels runs not yet started.
func runSweep(ctx context.Context, scenarios []*scenario.Scenario, parallel int) ([]*optimizationReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if parallel < 1 {
		parallel = 1
	}
	reports := make([]*optimizationReport, len(scenarios))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report, err := optimizeScenario(sc)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func init() {
	sweepCmd.Flags().StringArrayVar(&sweepScenarios, "scenario", nil, "Scenario YAML file (repeatable)")
	sweepCmd.Flags().IntVar(&sweepParallel, "parallel", 4, "Maximum concurrent optimizations")
	sweepCmd.Flags().StringVar(&outputPath, "out", "", "Write results to this file instead of stdout")
}
