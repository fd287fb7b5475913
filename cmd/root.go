package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/gasched/sim"
	"github.com/inference-sim/gasched/sim/cluster"
	"github.com/inference-sim/gasched/sim/trace"
)

var (
	// CLI flags for the run
	seed         int64  // Master seed for task generation and every GA run
	logLevel     string // Log verbosity level
	configPath   string // YAML scheduler config
	workers      int    // Concurrent GA runs
	bindingsOut  string // CSV file for task→machine bindings
	traceLevel   string // none, runs or generations
	printSummary bool   // Print the run trace summary
	metricsOut   string // Prometheus text file

	// CLI flags for the genetic algorithm
	populationSize int     // Candidates per generation
	mutationRate   float64 // Per-gene mutation probability
	crossoverRate  float64 // Per-candidate crossover probability
	elitismCount   int     // Top candidates carried over unchanged
	generations    int     // Generations per run

	// CLI flags for the machine pool and fitness model
	sites           int     // Number of sites
	machinesPerSite int     // Machines (and task slots) per site
	failureRate     float64 // Poisson failure rate λ

	// CLI flags for the task workload
	datasetPath string  // Task length dataset
	baseLength  float64 // Added to each dataset value
	taskCount   int     // Number of tasks
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "gasched",
	Short: "Genetic-algorithm batch scheduler assigning tasks to machines per window and site",
}

// runCmd schedules one task batch using parameters from flags, YAML and environment
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Schedule a task batch onto the machine pool",
	Run: func(cmd *cobra.Command, args []string) {
		envCfg, err := LoadEnv()
		if err != nil {
			logrus.Fatalf("Invalid environment: %v", err)
		}
		rc, err := resolveRunConfig(cmd, envCfg)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		// Set up logging
		level, err := logrus.ParseLevel(rc.LogLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", rc.LogLevel)
		}
		logrus.SetLevel(level)

		if err := runSchedule(rc, os.Stdout); err != nil {
			logrus.Fatalf("Scheduling failed: %v", err)
		}
		logrus.Info("Scheduling complete.")
	},
}

// runSchedule loads tasks, runs the batch scheduler and writes the requested outputs.
// Trace lines and the summary go to out.
func runSchedule(rc *runConfig, out io.Writer) error {
	cfg := rc.Scheduler
	lengths, err := loadTaskLengths(rc.Workload, cfg.Seed)
	if err != nil {
		return err
	}

	logrus.Infof("Starting scheduler: %d tasks, %d sites x %d machines, population=%d, generations=%d, seed=%d",
		len(lengths), cfg.Pool.Sites, cfg.Pool.MachinesPerSite, cfg.Optimizer.PopulationSize, cfg.Optimizer.Generations, cfg.Seed)
	startTime := time.Now()

	broker := cluster.NewBroker(cfg.Pool)
	opts := []cluster.Option{cluster.WithTraceWriter(out)}
	var rt *trace.RunTrace
	if rc.TraceLevel != "" && rc.TraceLevel != trace.TraceLevelNone {
		rt = trace.NewRunTrace(trace.TraceConfig{Level: rc.TraceLevel})
		opts = append(opts, cluster.WithTrace(rt))
	}
	s, err := cluster.NewBatchScheduler(cfg, lengths, broker, opts...)
	if err != nil {
		return err
	}
	if rt != nil {
		rt.Config.RunID = s.RunID()
	}
	result, err := s.Run()
	if err != nil {
		return err
	}
	logrus.WithField("run_id", result.RunID).Infof("Bound %d tasks in %v (%d unscheduled)",
		result.Bound, time.Since(startTime), result.Unscheduled)

	if rc.BindingsOut != "" {
		if err := writeBindings(rc.BindingsOut, broker); err != nil {
			return err
		}
	}
	if rc.Summary {
		printTraceSummary(out, trace.Summarize(rt), broker)
	}
	if rc.MetricsOut != "" {
		if err := sim.WriteMetrics(rc.MetricsOut); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

func writeBindings(path string, broker *cluster.Broker) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating bindings file: %w", err)
	}
	if err := broker.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing bindings: %w", err)
	}
	return f.Close()
}

func printTraceSummary(w io.Writer, summary *trace.TraceSummary, broker *cluster.Broker) {
	fmt.Fprintln(w, "=== Scheduling Summary ===")
	fmt.Fprintf(w, "GA Runs              : %d\n", summary.TotalRuns)
	fmt.Fprintf(w, "Generations          : %d\n", summary.TotalGenerations)
	fmt.Fprintf(w, "Bound Tasks          : %d\n", broker.Len())
	fmt.Fprintf(w, "Mean Best Fitness    : %.6f\n", summary.MeanBestFitness)
	fmt.Fprintf(w, "StdDev Best Fitness  : %.6f\n", summary.StdDevBestFitness)
	fmt.Fprintf(w, "Max Best Fitness     : %.6f\n", summary.MaxBestFitness)
	fmt.Fprintf(w, "Improved Runs        : %d\n", summary.ImprovedRuns)
	fmt.Fprintf(w, "Mean Improvement     : %.6f\n", summary.MeanImprovement)
	fmt.Fprintf(w, "Evaluations          : %d (degenerate %d, truncated %d)\n",
		summary.TotalEvaluations, summary.DegenerateEvaluations, summary.TruncatedEvaluations)
	fmt.Fprintf(w, "Machines Used        : %d\n", summary.UniqueMachines)

	load := broker.MachineLoad()
	machines := make([]int, 0, len(load))
	for m := range load {
		machines = append(machines, m)
	}
	sort.Ints(machines)
	for _, m := range machines {
		fmt.Fprintf(w, "  machine %-4d: %d tasks\n", m, load[m])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags binds the run flags to their package variables and resets
// them to their defaults.
func registerRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for task generation and GA runs")
	cmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML scheduler config (GASCHED_CONFIG)")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent GA runs (GASCHED_WORKERS)")
	cmd.Flags().StringVar(&bindingsOut, "bindings-out", "", "Write task→machine bindings as CSV")
	cmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Run trace level (none, runs, generations)")
	cmd.Flags().BoolVar(&printSummary, "summary", false, "Print a scheduling summary")
	cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this file (GASCHED_METRICS_OUT)")

	// GA parameters
	def := sim.DefaultOptimizerConfig()
	cmd.Flags().IntVar(&populationSize, "population", def.PopulationSize, "Candidates per generation")
	cmd.Flags().Float64Var(&mutationRate, "mutation-rate", def.MutationRate, "Per-gene mutation probability")
	cmd.Flags().Float64Var(&crossoverRate, "crossover-rate", def.CrossoverRate, "Per-candidate crossover probability")
	cmd.Flags().IntVar(&elitismCount, "elitism", def.ElitismCount, "Top candidates carried over unchanged")
	cmd.Flags().IntVar(&generations, "generations", def.Generations, "Generations per GA run")

	// Machine pool and fitness model
	pool := sim.DefaultMachinePool()
	cmd.Flags().IntVar(&sites, "sites", pool.Sites, "Number of sites")
	cmd.Flags().IntVar(&machinesPerSite, "machines-per-site", pool.MachinesPerSite, "Machines and task slots per site")
	cmd.Flags().Float64Var(&failureRate, "failure-rate", sim.DefaultFitnessConfig().FailureRate, "Poisson failure rate λ")

	// Task workload
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Task length dataset (whitespace-separated integers)")
	cmd.Flags().Float64Var(&baseLength, "base-length", 1000, "Length added to every dataset value")
	cmd.Flags().IntVar(&taskCount, "tasks", 1000, "Number of tasks")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
