package trace

// TraceLevel controls the verbosity of search tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvaluations captures every objective evaluation of a search.
	TraceLevelEvaluations TraceLevel = "evaluations"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelEvaluations: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level      TraceLevel
	MaxRecords int // 0 = unlimited
}

// SearchTrace collects evaluation records during an optimizer search.
// It is not safe for concurrent use; give each search its own trace.
type SearchTrace struct {
	Config      TraceConfig
	Evaluations []EvaluationRecord
	Dropped     int // evaluations not kept because MaxRecords was reached
}

// NewSearchTrace creates a SearchTrace ready for recording.
func NewSearchTrace(config TraceConfig) *SearchTrace {
	return &SearchTrace{
		Config:      config,
		Evaluations: make([]EvaluationRecord, 0),
	}
}

// Enabled reports whether records will be kept. Safe on a nil trace.
func (st *SearchTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelEvaluations
}

// RecordEvaluation appends an evaluation record. The openings slice is copied.
func (st *SearchTrace) RecordEvaluation(record EvaluationRecord) {
	if !st.Enabled() {
		return
	}
	if st.Config.MaxRecords > 0 && len(st.Evaluations) >= st.Config.MaxRecords {
		st.Dropped++
		return
	}
	record.Openings = append([]float64(nil), record.Openings...)
	st.Evaluations = append(st.Evaluations, record)
}
