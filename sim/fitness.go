package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// DegenerateFitnessValue is the fitness assigned when a term of the fitness
// formula has a zero or non-finite denominator. It is the worst possible
// value, so roulette selection never picks such a candidate while any
// candidate with positive fitness exists.
const DegenerateFitnessValue = 0.0

// Evaluation is the breakdown of one fitness computation.
type Evaluation struct {
	ExecutionTime float64 // sum of task length / tier rate over the evaluated genes
	FailureCount  int     // sampled Poisson failure count k
	FailureMass   float64 // probability mass at (λ, k, n)
	Fitness       float64
	Truncated     bool // accumulation stopped at an out-of-range gene
	TruncatedAt   int  // slot of the offending gene when Truncated
	Degenerate    bool // Fitness is DegenerateFitnessValue
}

// Err reports the recovered error kinds of this evaluation, or nil.
func (e Evaluation) Err() error {
	var errs []error
	if e.Truncated {
		errs = append(errs, fmt.Errorf("%w at slot %d", ErrOutOfRangeGene, e.TruncatedAt))
	}
	if e.Degenerate {
		errs = append(errs, ErrDegenerateFitness)
	}
	return errors.Join(errs...)
}

// FitnessEvaluator scores candidates of one (window, site) pair against a
// read-only task length table.
type FitnessEvaluator struct {
	pool    *MachinePool
	lengths []float64
	window  int
	site    int
	cfg     FitnessConfig
}

// NewFitnessEvaluator binds an evaluator to a window and 1-based site.
// The task table must cover every slot of that window/site.
func NewFitnessEvaluator(pool *MachinePool, taskLengths []float64, window, site int, cfg FitnessConfig) (*FitnessEvaluator, error) {
	if err := pool.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if window < 0 || !pool.ValidSite(site) {
		return nil, fmt.Errorf("%w: window %d site %d outside pool", ErrInvalidConfig, window, site)
	}
	last := TaskIndex(window, site, pool.MachinesPerSite-1, pool.Sites, pool.MachinesPerSite)
	if last >= len(taskLengths) {
		return nil, fmt.Errorf("%w: window %d site %d needs task %d, only %d tasks given",
			ErrInvalidConfig, window, site, last, len(taskLengths))
	}
	return &FitnessEvaluator{
		pool:    pool,
		lengths: taskLengths,
		window:  window,
		site:    site,
		cfg:     cfg,
	}, nil
}

// ExecutionTime sums task length / tier rate over the genes of c, stopping at
// the first gene with no tier. It returns the sum, whether it stopped early,
// and the slot where it stopped.
func (e *FitnessEvaluator) ExecutionTime(c *Candidate) (total float64, truncated bool, at int) {
	slots := min(c.Len(), e.pool.MachinesPerSite)
	for i := 0; i < slots; i++ {
		tier, ok := e.pool.TierOf(c.Gene(i))
		if !ok {
			return total, true, i
		}
		idx := TaskIndex(e.window, e.site, i, e.pool.Sites, e.pool.MachinesPerSite)
		total += e.lengths[idx] / tier.Rate
	}
	return total, false, 0
}

// Evaluate computes the fitness of c, stores it in the candidate and returns
// the breakdown:
//
//	fitness = ExecutionWeight/execution_time + RiskWeight/failure_mass
//
// The failure term does not depend on the genes; it draws a fresh Poisson
// failure count from rng on every call.
func (e *FitnessEvaluator) Evaluate(rng *rand.Rand, c *Candidate) Evaluation {
	var ev Evaluation
	ev.ExecutionTime, ev.Truncated, ev.TruncatedAt = e.ExecutionTime(c)
	ev.FailureCount = SamplePoissonCount(rng, e.cfg.FailureRate)
	ev.FailureMass = PoissonMass(e.cfg.FailureRate, ev.FailureCount, e.cfg.FailureWindow)

	if usableDenominator(ev.ExecutionTime) && usableDenominator(ev.FailureMass) {
		ev.Fitness = e.cfg.ExecutionWeight/ev.ExecutionTime + e.cfg.RiskWeight/ev.FailureMass
	}
	if !usableDenominator(ev.ExecutionTime) || !usableDenominator(ev.FailureMass) || !isFinite(ev.Fitness) {
		ev.Fitness = DegenerateFitnessValue
		ev.Degenerate = true
	}

	if ev.Truncated || ev.Degenerate {
		logrus.WithFields(logrus.Fields{
			"window": e.window,
			"site":   e.site,
			"genes":  c.genes,
		}).Debugf("recovered fitness evaluation: %v", ev.Err())
	}

	c.setFitness(ev.Fitness)
	return ev
}

// SamplePoissonCount draws a Poisson(lambda) count by multiplying uniform
// draws until the running product falls to e^-lambda or below; the number of
// multiplications minus one is the count.
func SamplePoissonCount(rng *rand.Rand, lambda float64) int {
	limit := math.Exp(-lambda)
	p := 1.0
	k := 0
	for {
		k++
		p *= rng.Float64()
		if p <= limit {
			break
		}
	}
	return k - 1
}

// PoissonMass returns e^-lambda * n * (lambda*n)^k / k!, the failure
// probability term of the fitness model for n exposed machines.
func PoissonMass(lambda float64, k, n int) float64 {
	return math.Exp(-lambda) * float64(n) * math.Pow(lambda*float64(n), float64(k)) / factorial(k)
}

func factorial(k int) float64 {
	f := 1.0
	for i := 2; i <= k; i++ {
		f *= float64(i)
	}
	return f
}

func usableDenominator(v float64) bool {
	return v > 0 && isFinite(v)
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}
