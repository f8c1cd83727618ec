package trace

import "math"

// TraceSummary aggregates statistics from a SearchTrace.
type TraceSummary struct {
	TotalEvaluations int
	FiniteCount      int
	BestIndex        int // -1 when no finite evaluation was recorded
	BestLoss         float64
	WorstLoss        float64
	MeanLoss         float64 // over finite losses
}

// Summarize computes aggregate statistics from a SearchTrace.
// Safe for nil or empty traces (returns zero-value fields and BestIndex -1).
func Summarize(st *SearchTrace) *TraceSummary {
	summary := &TraceSummary{BestIndex: -1}
	if st == nil {
		return summary
	}

	summary.TotalEvaluations = len(st.Evaluations)
	total := 0.0
	for _, e := range st.Evaluations {
		if math.IsNaN(e.Loss) || math.IsInf(e.Loss, 0) {
			continue
		}
		if summary.FiniteCount == 0 || e.Loss < summary.BestLoss {
			summary.BestLoss = e.Loss
			summary.BestIndex = e.Index
		}
		if summary.FiniteCount == 0 || e.Loss > summary.WorstLoss {
			summary.WorstLoss = e.Loss
		}
		summary.FiniteCount++
		total += e.Loss
	}
	if summary.FiniteCount > 0 {
		summary.MeanLoss = total / float64(summary.FiniteCount)
	}
	return summary
}
