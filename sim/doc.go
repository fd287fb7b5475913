// Package sim provides the genetic-algorithm core of the batch scheduler.
//
// # Reading Guide
//
// Start with these files to understand one optimizer run:
//   - candidate.go: a task-to-machine chromosome with cached fitness
//   - fitness.go: execution time and Poisson failure-risk scoring
//   - optimizer.go: init, roulette selection, crossover, mutation, the generation loop
//
// # Architecture
//
// A run optimizes one (window, site) pair. Machine ids are global
// (MachinePool), task ids are global (TaskIndex), and each run draws from its
// own *rand.Rand handed out by PartitionedRNG. Sub-packages build on this:
//   - sim/cluster/: BatchScheduler enumerating all pairs and binding results
//   - sim/workload/: task length sources (dataset file, synthetic samplers)
//   - sim/trace/: per-run and per-generation trace recording and summaries
//
// Recoverable evaluation problems (ErrDegenerateFitness, ErrOutOfRangeGene)
// are recorded on the Evaluation and never abort a run; only ErrInvalidConfig
// fails construction.
package sim
