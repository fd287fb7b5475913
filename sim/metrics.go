package sim

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// OptimizerRunsTotal counts completed GA runs.
	OptimizerRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gasched_optimizer_runs_total",
			Help: "Total number of completed GA runs",
		},
	)

	// GenerationsTotal counts generations executed across all runs.
	GenerationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gasched_generations_total",
			Help: "Total number of GA generations executed",
		},
	)

	// EvaluationsTotal counts fitness evaluations by outcome.
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gasched_fitness_evaluations_total",
			Help: "Total number of fitness evaluations by outcome (ok, degenerate, truncated)",
		},
		[]string{"outcome"},
	)

	// RunDuration observes wall time per GA run.
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "gasched_optimizer_run_duration_seconds",
			Help:    "Wall time of a single GA run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
	)

	// BestFitness holds the terminal best fitness of the latest run per site.
	BestFitness = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gasched_best_fitness",
			Help: "Best fitness of the most recent GA run by site",
		},
		[]string{"site"},
	)
)

func init() {
	prometheus.MustRegister(OptimizerRunsTotal)
	prometheus.MustRegister(GenerationsTotal)
	prometheus.MustRegister(EvaluationsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(BestFitness)
}

// WriteMetrics dumps the default registry in text exposition format to path.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func observeRun(r *RunResult) {
	OptimizerRunsTotal.Inc()
	GenerationsTotal.Add(float64(r.Generations))
	RunDuration.Observe(r.Duration.Seconds())
	BestFitness.WithLabelValues(strconv.Itoa(r.Site)).Set(r.Best.Fitness())

	var clean, degenerate, truncated int
	for _, h := range r.History {
		clean += h.Clean
		degenerate += h.Degenerate
		truncated += h.Truncated
	}
	EvaluationsTotal.WithLabelValues("ok").Add(float64(clean))
	EvaluationsTotal.WithLabelValues("degenerate").Add(float64(degenerate))
	EvaluationsTotal.WithLabelValues("truncated").Add(float64(truncated))
}
