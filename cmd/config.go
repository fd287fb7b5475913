package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inference-sim/gasched/sim"
	"github.com/inference-sim/gasched/sim/cluster"
	"github.com/inference-sim/gasched/sim/trace"
	"github.com/inference-sim/gasched/sim/workload"
)

// workloadConfig says where task lengths come from.
type workloadConfig struct {
	Dataset    string  // whitespace-separated integers; empty means synthetic
	BaseLength float64 // added to every dataset value
	Tasks      int
	Lengths    workload.LengthSpec // synthetic sampler when Dataset is empty
}

// runConfig is the fully resolved configuration of one `gasched run`.
type runConfig struct {
	Scheduler   cluster.SchedulerConfig
	Workload    workloadConfig
	LogLevel    string
	BindingsOut string
	TraceLevel  trace.TraceLevel
	Summary     bool
	MetricsOut  string
}

func defaultLengthSpec() workload.LengthSpec {
	return workload.LengthSpec{Type: "uniform", Params: map[string]float64{"min": 1000, "max": 2000}}
}

// resolveRunConfig layers configuration: built-in defaults, then the YAML
// bundle, then GASCHED_* environment, then flags explicitly set on cmd.
func resolveRunConfig(cmd *cobra.Command, envCfg EnvConfig) (*runConfig, error) {
	flags := cmd.Flags()

	opt := sim.DefaultOptimizerConfig()
	fit := sim.DefaultFitnessConfig()
	pool := sim.DefaultMachinePool()
	rc := &runConfig{
		Workload: workloadConfig{
			BaseLength: 1000,
			Tasks:      1000,
			Lengths:    defaultLengthSpec(),
		},
		LogLevel:    logLevel,
		BindingsOut: bindingsOut,
		TraceLevel:  trace.TraceLevel(traceLevel),
		Summary:     printSummary,
		MetricsOut:  metricsOut,
	}
	runSeed := seed
	runWorkers := workers

	path := configPath
	if !flags.Changed("config") && envCfg.Config != "" {
		path = envCfg.Config
	}
	if path != "" {
		bundle, err := sim.LoadConfigBundle(path)
		if err != nil {
			return nil, err
		}
		if err := bundle.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scheduler config %s: %w", path, err)
		}
		bundle.ApplyOptimizer(&opt)
		bundle.ApplyFitness(&fit)
		bundle.ApplyPool(pool)
		if bundle.Seed != nil {
			runSeed = *bundle.Seed
		}
		if bundle.Workers != nil {
			runWorkers = *bundle.Workers
		}
		if err := applyWorkloadBundle(&rc.Workload, bundle.Workload); err != nil {
			return nil, err
		}
	}

	if !flags.Changed("log") && envCfg.LogLevel != "" {
		rc.LogLevel = envCfg.LogLevel
	}
	if !flags.Changed("workers") && envCfg.Workers != nil {
		runWorkers = *envCfg.Workers
	}
	if !flags.Changed("metrics-out") && envCfg.MetricsOut != "" {
		rc.MetricsOut = envCfg.MetricsOut
	}

	if flags.Changed("seed") {
		runSeed = seed
	}
	if flags.Changed("workers") {
		runWorkers = workers
	}
	if flags.Changed("population") {
		opt.PopulationSize = populationSize
	}
	if flags.Changed("mutation-rate") {
		opt.MutationRate = mutationRate
	}
	if flags.Changed("crossover-rate") {
		opt.CrossoverRate = crossoverRate
	}
	if flags.Changed("elitism") {
		opt.ElitismCount = elitismCount
	}
	if flags.Changed("generations") {
		opt.Generations = generations
	}
	if flags.Changed("sites") {
		pool.Sites = sites
	}
	if flags.Changed("machines-per-site") {
		pool.MachinesPerSite = machinesPerSite
	}
	if flags.Changed("failure-rate") {
		fit.FailureRate = failureRate
	}
	if flags.Changed("dataset") {
		rc.Workload.Dataset = datasetPath
	}
	if flags.Changed("base-length") {
		rc.Workload.BaseLength = baseLength
	}
	if flags.Changed("tasks") {
		rc.Workload.Tasks = taskCount
	}

	rc.Scheduler = cluster.SchedulerConfig{
		Optimizer: opt,
		Fitness:   fit,
		Pool:      pool,
		Seed:      runSeed,
		Workers:   runWorkers,
	}
	if err := rc.Scheduler.Validate(); err != nil {
		return nil, err
	}
	if rc.Workload.Tasks <= 0 {
		return nil, fmt.Errorf("%w: task count must be positive, got %d", sim.ErrInvalidConfig, rc.Workload.Tasks)
	}
	if !trace.IsValidTraceLevel(string(rc.TraceLevel)) {
		return nil, fmt.Errorf("unknown trace level %q", rc.TraceLevel)
	}
	traceCfg := trace.TraceConfig{Level: rc.TraceLevel}
	if rc.Summary && !traceCfg.Enabled() {
		rc.TraceLevel = trace.TraceLevelRuns
	}
	return rc, nil
}

// applyWorkloadBundle maps the YAML workload section onto wc. A named
// distribution replaces the default sampler; constant uses mean as its value.
func applyWorkloadBundle(wc *workloadConfig, b sim.WorkloadBundle) error {
	if b.Dataset != "" {
		wc.Dataset = b.Dataset
	}
	if b.BaseLength != nil {
		wc.BaseLength = *b.BaseLength
	}
	if b.Tasks != nil {
		wc.Tasks = *b.Tasks
	}
	if b.Distribution == "" {
		return nil
	}
	params := make(map[string]float64)
	put := func(key string, v *float64) {
		if v != nil {
			params[key] = *v
		}
	}
	put("mean", b.Mean)
	put("std_dev", b.StdDev)
	put("min", b.Min)
	put("max", b.Max)
	if b.Distribution == "constant" {
		put("value", b.Mean)
	}
	spec := workload.LengthSpec{Type: b.Distribution, Params: params}
	if _, err := workload.NewLengthSampler(spec); err != nil {
		return fmt.Errorf("workload distribution: %w", err)
	}
	wc.Lengths = spec
	return nil
}

// loadTaskLengths reads the dataset, or draws synthetic lengths from the
// workload RNG stream of seed.
func loadTaskLengths(wc workloadConfig, seed int64) ([]float64, error) {
	if wc.Dataset != "" {
		return workload.LoadTaskLengths(wc.Dataset, wc.Tasks, wc.BaseLength)
	}
	sampler, err := workload.NewLengthSampler(wc.Lengths)
	if err != nil {
		return nil, err
	}
	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	return workload.GenerateTaskLengths(rng.ForSubsystem(sim.SubsystemWorkload), wc.Tasks, sampler), nil
}
