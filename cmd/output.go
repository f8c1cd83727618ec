package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/gatecascade/gatecascade/sim"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeSnapshotTable prints one row per node of the single-step model.
func writeSnapshotTable(w io.Writer, snap *sim.Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "node\tflow\tlevel")
	for i := range snap.Flows {
		name := "inflow"
		if i > 0 {
			name = fmt.Sprintf("gate %d", i-1)
		}
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\n", name, snap.Flows[i], snap.Levels[i])
	}
	return tw.Flush()
}

// validOutputFormats maps accepted --output values.
var validOutputFormats = map[string]bool{
	"":     true, // empty defaults to json
	"json": true,
	"csv":  true,
}

// validateOutputFormat rejects unknown trajectory output formats.
func validateOutputFormat(format string) error {
	if !validOutputFormats[format] {
		return fmt.Errorf("unknown output format %q; valid: json, csv", format)
	}
	return nil
}

func writeTrajectory(w io.Writer, format string, traj *sim.Trajectory, dt float64) error {
	if err := validateOutputFormat(format); err != nil {
		return err
	}
	if format == "csv" {
		return writeTrajectoryCSV(w, traj, dt)
	}
	return writeJSON(w, traj)
}

// writeTrajectoryCSV writes one row per recorded state. Row 0 is the initial
// seed and has empty flow and solver columns.
func writeTrajectoryCSV(w io.Writer, traj *sim.Trajectory, dt float64) error {
	if len(traj.Levels) == 0 {
		return nil
	}
	n := len(traj.Levels[0])
	header := []string{"step", "time_s"}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("y_%d", i))
	}
	header = append(header, "q_in")
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("q_%d", i))
	}
	header = append(header, "converged", "residual")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', 10, 64) }
	for k, levels := range traj.Levels {
		row := []string{strconv.Itoa(k), format(float64(k) * dt)}
		for _, y := range levels {
			row = append(row, format(y))
		}
		if k == 0 {
			for i := 0; i < n+3; i++ {
				row = append(row, "")
			}
		} else {
			for _, q := range traj.Flows[k-1] {
				row = append(row, format(q))
			}
			row = append(row, strconv.FormatBool(traj.Converged[k-1]), format(traj.Residuals[k-1]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
