package cluster

import (
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/gasched/sim"
	"github.com/inference-sim/gasched/sim/trace"
)

// SchedulerConfig describes one batch scheduling pass. Every (window, site)
// pair shares these parameters; only the RNG stream differs between runs.
type SchedulerConfig struct {
	Optimizer sim.OptimizerConfig
	Fitness   sim.FitnessConfig
	Pool      *sim.MachinePool
	Seed      int64
	Workers   int // concurrent GA runs; 0 or 1 runs sequentially
}

// Validate checks every nested configuration. Errors wrap sim.ErrInvalidConfig.
func (c SchedulerConfig) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if err := c.Fitness.Validate(); err != nil {
		return err
	}
	if err := c.Pool.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be non-negative, got %d", sim.ErrInvalidConfig, c.Workers)
	}
	return nil
}

// Option configures optional BatchScheduler behavior.
type Option func(*BatchScheduler)

// WithTraceWriter emits one "window=W site=S task:machine ..." line per pair to w.
func WithTraceWriter(w io.Writer) Option {
	return func(s *BatchScheduler) { s.traceOut = w }
}

// WithTrace records run (and optionally generation) records into rt.
func WithTrace(rt *trace.RunTrace) Option {
	return func(s *BatchScheduler) { s.trace = rt }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(s *BatchScheduler) { s.runID = id }
}

// PairResult is the outcome of the GA run for one (window, site) pair.
type PairResult struct {
	Window   int
	Site     int
	Run      *sim.RunResult
	Bindings []Binding // slot order
}

// Result is the outcome of a whole batch scheduling pass.
type Result struct {
	RunID       string
	Windows     int
	Runs        []PairResult // window-major, site-minor order
	Bound       int
	Unscheduled int // trailing tasks that did not fill a window
}

// BatchScheduler partitions the task list into windows and runs one
// independent Optimizer per (window, site) pair.
type BatchScheduler struct {
	cfg      SchedulerConfig
	lengths  []float64
	binder   Binder
	rng      *sim.PartitionedRNG
	traceOut io.Writer
	trace    *trace.RunTrace
	runID    string
	hasRun   bool
}

// NewBatchScheduler validates cfg and prepares a scheduler over taskLengths.
// Task i of taskLengths has global task id i.
func NewBatchScheduler(cfg SchedulerConfig, taskLengths []float64, binder Binder, opts ...Option) (*BatchScheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if binder == nil {
		return nil, fmt.Errorf("%w: binder is nil", sim.ErrInvalidConfig)
	}
	s := &BatchScheduler{
		cfg:     cfg,
		lengths: taskLengths,
		binder:  binder,
		rng:     sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = uuid.New().String()
	}
	return s, nil
}

// RunID returns the identifier stamped on logs, trace records and the result.
func (s *BatchScheduler) RunID() string {
	return s.runID
}

type pairJob struct {
	window, site int
	rng          *rand.Rand
}

// Run executes every (window, site) GA run, then binds the winners in
// window/site order. Results are identical for any worker count given the
// same seed. Returns an error if called more than once.
func (s *BatchScheduler) Run() (*Result, error) {
	if s.hasRun {
		return nil, fmt.Errorf("batch scheduler %s already ran", s.runID)
	}
	s.hasRun = true

	pool := s.cfg.Pool
	windows := sim.WindowCount(len(s.lengths), pool.Sites, pool.MachinesPerSite)
	log := logrus.WithField("run_id", s.runID)
	result := &Result{
		RunID:       s.runID,
		Windows:     windows,
		Unscheduled: len(s.lengths) - windows*pool.TotalMachines(),
	}
	if result.Unscheduled > 0 {
		log.Warnf("%d trailing tasks do not fill a window of %d and stay unbound", result.Unscheduled, pool.TotalMachines())
	}

	// PartitionedRNG is not thread-safe: derive every stream here, then hand
	// each one to exactly one worker.
	jobs := make([]pairJob, 0, windows*pool.Sites)
	for w := 0; w < windows; w++ {
		for site := 1; site <= pool.Sites; site++ {
			jobs = append(jobs, pairJob{window: w, site: site, rng: s.rng.ForRun(w, site)})
		}
	}
	log.Infof("scheduling %d tasks over %d windows x %d sites", len(s.lengths), windows, pool.Sites)

	runs, err := s.runAll(jobs)
	if err != nil {
		return nil, err
	}

	result.Runs = make([]PairResult, len(runs))
	for i, run := range runs {
		pr, err := s.bind(run)
		if err != nil {
			return nil, err
		}
		result.Runs[i] = pr
		result.Bound += len(pr.Bindings)
		s.record(run)
	}
	log.Infof("bound %d tasks", result.Bound)
	return result, nil
}

func (s *BatchScheduler) runAll(jobs []pairJob) ([]*sim.RunResult, error) {
	runs := make([]*sim.RunResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(max(s.cfg.Workers, 1))
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			opt, err := sim.NewOptimizer(s.cfg.Optimizer, sim.RunContext{
				Pool:        s.cfg.Pool,
				TaskLengths: s.lengths,
				Window:      job.window,
				Site:        job.site,
				Fitness:     s.cfg.Fitness,
			}, job.rng)
			if err != nil {
				return fmt.Errorf("window %d site %d: %w", job.window, job.site, err)
			}
			run, err := opt.Run()
			if err != nil {
				return fmt.Errorf("window %d site %d: %w", job.window, job.site, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}

// bind hands the winning genes of one run to the binder and writes its trace line.
func (s *BatchScheduler) bind(run *sim.RunResult) (PairResult, error) {
	pool := s.cfg.Pool
	pr := PairResult{
		Window:   run.Window,
		Site:     run.Site,
		Run:      run,
		Bindings: make([]Binding, run.Best.Len()),
	}
	for i := range pr.Bindings {
		task := sim.TaskIndex(run.Window, run.Site, i, pool.Sites, pool.MachinesPerSite)
		machine := run.Best.Gene(i)
		if err := s.binder.BindTask(task, machine); err != nil {
			return pr, fmt.Errorf("binding window %d site %d: %w", run.Window, run.Site, err)
		}
		pr.Bindings[i] = Binding{TaskID: task, MachineID: machine}
	}

	logrus.WithFields(logrus.Fields{
		"run_id": s.runID,
		"window": run.Window,
		"site":   run.Site,
	}).Debugf("best fitness %.6f (initial %.6f)", run.Best.Fitness(), run.InitialBest.Fitness())

	if s.traceOut != nil {
		if _, err := io.WriteString(s.traceOut, FormatTraceLine(pr)+"\n"); err != nil {
			return pr, fmt.Errorf("writing trace line: %w", err)
		}
	}
	return pr, nil
}

func (s *BatchScheduler) record(run *sim.RunResult) {
	if s.trace == nil || !s.trace.Config.Enabled() {
		return
	}
	var evaluated, degenerate, truncated int
	for _, h := range run.History {
		evaluated += h.Evaluated
		degenerate += h.Degenerate
		truncated += h.Truncated
		if s.trace.Config.PerGeneration() {
			s.trace.RecordGeneration(trace.GenerationRecord{
				RunID:        s.runID,
				Window:       run.Window,
				Site:         run.Site,
				Generation:   h.Generation,
				BestFitness:  h.BestFitness,
				MeanFitness:  h.MeanFitness,
				TotalFitness: h.TotalFitness,
				Evaluated:    h.Evaluated,
				Degenerate:   h.Degenerate,
				Truncated:    h.Truncated,
			})
		}
	}
	s.trace.RecordRun(trace.RunRecord{
		RunID:              s.runID,
		Window:             run.Window,
		Site:               run.Site,
		Generations:        run.Generations,
		InitialBestFitness: run.InitialBest.Fitness(),
		BestFitness:        run.Best.Fitness(),
		BestGenes:          run.Best.Genes(),
		Evaluations:        evaluated,
		Degenerate:         degenerate,
		Truncated:          truncated,
		DurationSeconds:    run.Duration.Seconds(),
	})
}

// FormatTraceLine renders "window=W site=S task:machine task:machine ...".
func FormatTraceLine(pr PairResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "window=%d site=%d", pr.Window, pr.Site)
	for _, binding := range pr.Bindings {
		fmt.Fprintf(&b, " %d:%d", binding.TaskID, binding.MachineID)
	}
	return b.String()
}
