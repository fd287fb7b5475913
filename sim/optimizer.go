package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// crossoverMixProbability is the chance that uniform crossover takes a gene
// from the rank-i parent rather than the roulette-selected mate.
const crossoverMixProbability = 0.5

// RunContext is the read-only input of one GA run: which slice of the task
// table to assign and onto which site of the pool.
type RunContext struct {
	Pool        *MachinePool
	TaskLengths []float64
	Window      int // 0-based window index
	Site        int // 1-based site id
	Fitness     FitnessConfig
}

// GenerationStats summarizes a population right after an evaluation pass.
// Generation 0 is the initial random population.
type GenerationStats struct {
	Generation   int
	BestFitness  float64
	MeanFitness  float64
	TotalFitness float64
	Evaluated    int
	Clean        int
	Degenerate   int
	Truncated    int
}

// RunResult is the outcome of one GA run.
type RunResult struct {
	Window      int
	Site        int
	Best        *Candidate // fittest candidate of the terminal generation
	InitialBest *Candidate // fittest candidate of generation 0
	Generations int        // generations executed after initialization
	History     []GenerationStats
	Duration    time.Duration
}

// Optimizer runs the genetic algorithm for a single (window, site) pair.
// It owns its RNG and population; nothing is shared with other runs.
type Optimizer struct {
	cfg       OptimizerConfig
	ctx       RunContext
	evaluator *FitnessEvaluator
	rng       *rand.Rand
}

// NewOptimizer validates the configuration and binds a fitness evaluator to
// the run context. All failures wrap ErrInvalidConfig.
func NewOptimizer(cfg OptimizerConfig, ctx RunContext, rng *rand.Rand) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: optimizer requires a random source", ErrInvalidConfig)
	}
	evaluator, err := NewFitnessEvaluator(ctx.Pool, ctx.TaskLengths, ctx.Window, ctx.Site, ctx.Fitness)
	if err != nil {
		return nil, err
	}
	return &Optimizer{
		cfg:       cfg,
		ctx:       ctx,
		evaluator: evaluator,
		rng:       rng,
	}, nil
}

// Config returns the optimizer parameters.
func (o *Optimizer) Config() OptimizerConfig {
	return o.cfg
}

// InitPopulation builds the random generation-0 population for the run's site.
func (o *Optimizer) InitPopulation() (*Population, error) {
	return NewPopulation(o.rng, o.cfg.PopulationSize, o.ctx.Pool, o.ctx.Site)
}

// Evaluate scores stale candidates and sorts the population.
func (o *Optimizer) Evaluate(pop *Population) EvalStats {
	return pop.Evaluate(o.evaluator, o.rng)
}

// Select spins a roulette wheel over the population in its current order.
// A candidate is picked with probability proportional to its fitness; if
// rounding leaves the wheel position unreached, the last candidate is returned.
func (o *Optimizer) Select(pop *Population) *Candidate {
	position := o.rng.Float64() * pop.TotalFitness()
	spin := 0.0
	for _, c := range pop.individuals {
		spin += c.Fitness()
		if spin >= position {
			return c
		}
	}
	return pop.individuals[pop.Size()-1]
}

// Crossover produces the next population. Ranks below ElitismCount are
// cloned unchanged. Every other rank i, with probability CrossoverRate, is
// replaced by a uniform crossover of the rank-i candidate and a
// roulette-selected mate; otherwise it is cloned unchanged.
// pop must be sorted; the returned population keeps rank positions.
func (o *Optimizer) Crossover(pop *Population) *Population {
	next := newEmptyPopulation(pop.Size())
	for i, parent1 := range pop.individuals {
		if i < o.cfg.ElitismCount || o.rng.Float64() >= o.cfg.CrossoverRate {
			next.individuals[i] = parent1.Clone()
			continue
		}

		parent2 := o.Select(pop)
		offspring := NewCandidate(parent1.Len())
		for g := range offspring.genes {
			if o.rng.Float64() < crossoverMixProbability {
				offspring.genes[g] = parent1.genes[g]
			} else {
				offspring.genes[g] = parent2.genes[g]
			}
		}
		next.individuals[i] = offspring
	}
	return next
}

// Mutate walks every gene of every non-elite position and, with probability
// MutationRate, moves it to a different machine of the same site.
func (o *Optimizer) Mutate(pop *Population) {
	if o.ctx.Pool.MachinesPerSite < 2 {
		return
	}
	for i := o.cfg.ElitismCount; i < pop.Size(); i++ {
		c := pop.individuals[i]
		for g := range c.genes {
			if o.rng.Float64() < o.cfg.MutationRate {
				c.SetGene(g, o.mutateGene(c.genes[g]))
			}
		}
	}
}

// mutateGene picks uniformly among the other W-1 machines of the site.
// A gene outside the site is redrawn from the whole site.
func (o *Optimizer) mutateGene(gene int) int {
	w := o.ctx.Pool.MachinesPerSite
	lo, hi := o.ctx.Pool.SiteRange(o.ctx.Site)
	if gene < lo || gene >= hi {
		return lo + o.rng.Intn(w)
	}
	return lo + (gene-lo+1+o.rng.Intn(w-1))%w
}

// Run executes init, evaluation and exactly Generations
// select/crossover/mutate/evaluate cycles, then returns the fittest candidate.
// There is no early termination.
func (o *Optimizer) Run() (*RunResult, error) {
	start := time.Now()
	log := logrus.WithFields(logrus.Fields{"window": o.ctx.Window, "site": o.ctx.Site})

	pop, err := o.InitPopulation()
	if err != nil {
		return nil, err
	}
	stats := o.Evaluate(pop)

	result := &RunResult{
		Window:      o.ctx.Window,
		Site:        o.ctx.Site,
		InitialBest: pop.Fittest(0).Clone(),
		History:     make([]GenerationStats, 0, o.cfg.Generations+1),
	}
	result.History = append(result.History, generationStats(0, pop, stats))

	for gen := 1; gen <= o.cfg.Generations; gen++ {
		pop = o.Crossover(pop)
		o.Mutate(pop)
		stats = o.Evaluate(pop)
		result.History = append(result.History, generationStats(gen, pop, stats))
		log.Debugf("generation %d: best=%.6f mean=%.6f", gen, pop.Fittest(0).Fitness(), pop.MeanFitness())
	}

	result.Best = pop.Fittest(0).Clone()
	result.Generations = o.cfg.Generations
	result.Duration = time.Since(start)
	observeRun(result)
	return result, nil
}

func generationStats(gen int, pop *Population, stats EvalStats) GenerationStats {
	return GenerationStats{
		Generation:   gen,
		BestFitness:  pop.Fittest(0).Fitness(),
		MeanFitness:  pop.MeanFitness(),
		TotalFitness: pop.TotalFitness(),
		Evaluated:    stats.Evaluated,
		Clean:        stats.Clean,
		Degenerate:   stats.Degenerate,
		Truncated:    stats.Truncated,
	}
}
