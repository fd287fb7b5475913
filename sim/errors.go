package sim

import "errors"

// ErrInvalidConfig is returned when an optimizer, population or machine pool
// is constructed with non-positive sizes, out-of-range rates or inconsistent
// task tables. It is the only error kind that fails a run.
var ErrInvalidConfig = errors.New("invalid config")

// ErrDegenerateFitness marks an evaluation whose execution-time or
// failure-probability term had a zero or non-finite denominator. The candidate
// receives DegenerateFitnessValue and the run continues.
var ErrDegenerateFitness = errors.New("degenerate fitness")

// ErrOutOfRangeGene marks an evaluation that hit a gene mapping to no speed
// tier. Accumulation of execution time stopped at that gene.
var ErrOutOfRangeGene = errors.New("out-of-range gene")
