package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatecascade/gatecascade/sim"
)

func sampleTrajectory() *sim.Trajectory {
	return &sim.Trajectory{
		Levels:    [][]float64{{2, 1}, {1.5, 1.25}},
		Flows:     [][]float64{{3, 2.5, 0.75}},
		Converged: []bool{true},
		Residuals: []float64{1e-12},
	}
}

func TestWriteTrajectoryCSV_SeedRowHasEmptyFlowColumns(t *testing.T) {
	// GIVEN a two-segment, one-step trajectory
	var buf bytes.Buffer

	// WHEN written as CSV
	require.NoError(t, writeTrajectoryCSV(&buf, sampleTrajectory(), 10))

	// THEN there is a header, a seed row and one step row of equal width
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"step", "time_s", "y_0", "y_1", "q_in", "q_0", "q_1", "converged", "residual"}, rows[0])
	assert.Equal(t, []string{"0", "0", "2", "1", "", "", "", "", ""}, rows[1])
	assert.Equal(t, []string{"1", "10", "1.5", "1.25", "3", "2.5", "0.75", "true", "1e-12"}, rows[2])
}

func TestWriteTrajectoryCSV_EmptyTrajectoryWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTrajectoryCSV(&buf, &sim.Trajectory{}, 1))
	assert.Empty(t, buf.String())
}

func TestWriteTrajectory_Formats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTrajectory(&buf, "json", sampleTrajectory(), 1))
	var decoded sim.Trajectory
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleTrajectory().Levels, decoded.Levels)

	err := writeTrajectory(&buf, "parquet", sampleTrajectory(), 1)
	assert.ErrorContains(t, err, "parquet")
}

func TestValidateOutputFormat(t *testing.T) {
	for _, format := range []string{"", "json", "csv"} {
		assert.NoError(t, validateOutputFormat(format), "format %q", format)
	}
	// an unknown format is rejected before any output is attempted
	var buf bytes.Buffer
	assert.ErrorContains(t, validateOutputFormat("xlsx"), "xlsx")
	assert.Error(t, writeTrajectory(&buf, "xlsx", sampleTrajectory(), 1))
	assert.Empty(t, buf.String())
}

func TestWriteSnapshotTable_OneRowPerNode(t *testing.T) {
	var buf bytes.Buffer
	snap := &sim.Snapshot{Flows: []float64{100, 40, 30}, Levels: []float64{10, 9, 8}}

	require.NoError(t, writeSnapshotTable(&buf, snap))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "flow")
	assert.Contains(t, lines[1], "inflow")
	assert.Contains(t, lines[3], "gate 1")
	assert.Contains(t, lines[3], "30.0000")
}
