// Package trace provides run-trace recording for GA scheduling analysis.
// This package has no dependencies on sim/ or sim/cluster/; it stores pure data types.
package trace

// RunRecord captures the outcome of one GA run for a (window, site) pair.
type RunRecord struct {
	RunID              string
	Window             int
	Site               int
	Generations        int
	InitialBestFitness float64
	BestFitness        float64
	BestGenes          []int // machine id per slot of the winning candidate
	Evaluations        int
	Degenerate         int
	Truncated          int
	DurationSeconds    float64
}

// Improvement returns BestFitness - InitialBestFitness.
func (r RunRecord) Improvement() float64 {
	return r.BestFitness - r.InitialBestFitness
}

// GenerationRecord captures population statistics after one evaluation pass.
// Generation 0 is the initial population.
type GenerationRecord struct {
	RunID        string
	Window       int
	Site         int
	Generation   int
	BestFitness  float64
	MeanFitness  float64
	TotalFitness float64
	Evaluated    int
	Degenerate   int
	Truncated    int
}
