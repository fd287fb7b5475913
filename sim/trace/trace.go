package trace

// TraceLevel controls how much of each GA run is recorded.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelRuns records one RunRecord per (window, site) pair.
	TraceLevelRuns TraceLevel = "runs"
	// TraceLevelGenerations additionally records one GenerationRecord per generation.
	TraceLevelGenerations TraceLevel = "generations"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelRuns:        true,
	TraceLevelGenerations: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
	RunID string // batch run identifier stamped on every record
}

// Enabled reports whether run records are collected.
func (c TraceConfig) Enabled() bool {
	return c.Level == TraceLevelRuns || c.Level == TraceLevelGenerations
}

// PerGeneration reports whether generation records are collected.
func (c TraceConfig) PerGeneration() bool {
	return c.Level == TraceLevelGenerations
}

// RunTrace collects records during a batch scheduling run.
type RunTrace struct {
	Config      TraceConfig
	Runs        []RunRecord
	Generations []GenerationRecord
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace(config TraceConfig) *RunTrace {
	return &RunTrace{
		Config:      config,
		Runs:        make([]RunRecord, 0),
		Generations: make([]GenerationRecord, 0),
	}
}

// RecordRun appends a run record.
func (rt *RunTrace) RecordRun(record RunRecord) {
	rt.Runs = append(rt.Runs, record)
}

// RecordGeneration appends a generation record.
func (rt *RunTrace) RecordGeneration(record GenerationRecord) {
	rt.Generations = append(rt.Generations, record)
}
