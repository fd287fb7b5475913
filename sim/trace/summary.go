package trace

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TraceSummary aggregates statistics from a RunTrace.
type TraceSummary struct {
	TotalRuns             int
	TotalGenerations      int
	MeanBestFitness       float64
	StdDevBestFitness     float64
	MaxBestFitness        float64
	ImprovedRuns          int     // runs whose best beat the initial best
	MeanImprovement       float64 // mean of BestFitness - InitialBestFitness
	TotalEvaluations      int
	DegenerateEvaluations int
	TruncatedEvaluations  int
	UniqueMachines        int
	MachineDistribution   map[int]int // machine id → tasks bound to it
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *TraceSummary {
	summary := &TraceSummary{
		MachineDistribution: make(map[int]int),
	}
	if rt == nil || len(rt.Runs) == 0 {
		return summary
	}

	summary.TotalRuns = len(rt.Runs)
	best := make([]float64, len(rt.Runs))
	improvement := make([]float64, len(rt.Runs))
	for i, r := range rt.Runs {
		best[i] = r.BestFitness
		improvement[i] = r.Improvement()
		if improvement[i] > 0 {
			summary.ImprovedRuns++
		}
		summary.TotalGenerations += r.Generations
		summary.TotalEvaluations += r.Evaluations
		summary.DegenerateEvaluations += r.Degenerate
		summary.TruncatedEvaluations += r.Truncated
		for _, m := range r.BestGenes {
			summary.MachineDistribution[m]++
		}
	}

	summary.MeanBestFitness = stat.Mean(best, nil)
	if len(best) > 1 {
		summary.StdDevBestFitness = stat.StdDev(best, nil)
	}
	summary.MaxBestFitness = floats.Max(best)
	summary.MeanImprovement = stat.Mean(improvement, nil)
	summary.UniqueMachines = len(summary.MachineDistribution)

	return summary
}
