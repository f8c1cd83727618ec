package trace

import (
	"testing"
)

func TestSearchTrace_RecordEvaluation_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for evaluations
	st := NewSearchTrace(TraceConfig{Level: TraceLevelEvaluations})

	// WHEN an evaluation is recorded
	st.RecordEvaluation(EvaluationRecord{Index: 0, Openings: []float64{0.5, 0.5}, Loss: 12.5})

	// THEN the trace contains one record with correct data
	if len(st.Evaluations) != 1 {
		t.Fatalf("expected 1 evaluation, got %d", len(st.Evaluations))
	}
	if st.Evaluations[0].Loss != 12.5 {
		t.Errorf("expected loss 12.5, got %f", st.Evaluations[0].Loss)
	}
}

func TestSearchTrace_RecordEvaluation_CopiesOpenings(t *testing.T) {
	// GIVEN a caller that reuses its openings buffer
	st := NewSearchTrace(TraceConfig{Level: TraceLevelEvaluations})
	buf := []float64{0.5, 1.0}

	// WHEN the buffer changes after recording
	st.RecordEvaluation(EvaluationRecord{Openings: buf})
	buf[0] = 2.0

	// THEN the recorded openings are unaffected
	if st.Evaluations[0].Openings[0] != 0.5 {
		t.Errorf("expected recorded opening 0.5, got %f", st.Evaluations[0].Openings[0])
	}
}

func TestSearchTrace_LevelNone_RecordsNothing(t *testing.T) {
	// GIVEN a trace with tracing disabled
	st := NewSearchTrace(TraceConfig{Level: TraceLevelNone})

	// WHEN evaluations are recorded
	st.RecordEvaluation(EvaluationRecord{Index: 0, Loss: 1})

	// THEN nothing is kept
	if len(st.Evaluations) != 0 {
		t.Errorf("expected 0 evaluations, got %d", len(st.Evaluations))
	}
}

func TestSearchTrace_NilTrace_IsNoOp(t *testing.T) {
	var st *SearchTrace
	if st.Enabled() {
		t.Error("nil trace must not be enabled")
	}
	st.RecordEvaluation(EvaluationRecord{Loss: 1}) // must not panic
}

func TestSearchTrace_MaxRecords_DropsOverflow(t *testing.T) {
	// GIVEN a trace capped at two records
	st := NewSearchTrace(TraceConfig{Level: TraceLevelEvaluations, MaxRecords: 2})

	// WHEN five evaluations are recorded
	for i := 0; i < 5; i++ {
		st.RecordEvaluation(EvaluationRecord{Index: i, Loss: float64(i)})
	}

	// THEN two are kept and three counted as dropped
	if len(st.Evaluations) != 2 {
		t.Errorf("expected 2 evaluations, got %d", len(st.Evaluations))
	}
	if st.Dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", st.Dropped)
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"evaluations", true},
		{"", true},
		{"decisions", false},
		{"verbose", false},
	}
	for _, tc := range tests {
		t.Run(tc.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tc.level); got != tc.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.valid)
			}
		})
	}
}
