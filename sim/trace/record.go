// Package trace provides evaluation-trace recording for optimizer searches.
// This package has no dependencies on sim/ or its other sub-packages; it stores pure data types.
package trace

// EvaluationRecord captures one objective evaluation during a search.
type EvaluationRecord struct {
	Index    int       `json:"index"`    // 0-based evaluation order
	Openings []float64 `json:"openings"` // candidate gate openings
	Loss     float64   `json:"loss"`     // objective value (+Inf when the candidate could not be simulated)
}
