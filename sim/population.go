package sim

import (
	"fmt"
	"math/rand"
	"sort"
)

// Population is the ordered set of candidates of one generation.
// After Evaluate, individuals are sorted by descending fitness so that
// Fittest(k) is an index lookup.
type Population struct {
	individuals  []*Candidate
	totalFitness float64
}

// EvalStats tallies one evaluation pass over a population.
type EvalStats struct {
	Evaluated  int // candidates whose fitness was (re)computed
	Clean      int // of which were neither degenerate nor truncated
	Degenerate int // of which had a degenerate fitness term
	Truncated  int // of which stopped at an out-of-range gene
}

// NewPopulation builds size random candidates for a 1-based site. Each gene is
// drawn uniformly and independently from the site's machine range.
func NewPopulation(rng *rand.Rand, size int, pool *MachinePool, site int) (*Population, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidConfig, size)
	}
	if pool == nil || pool.MachinesPerSite <= 0 {
		return nil, fmt.Errorf("%w: chromosome length must be positive", ErrInvalidConfig)
	}
	if !pool.ValidSite(site) {
		return nil, fmt.Errorf("%w: site %d outside [1,%d]", ErrInvalidConfig, site, pool.Sites)
	}

	lo, _ := pool.SiteRange(site)
	pop := newEmptyPopulation(size)
	for i := range pop.individuals {
		c := NewCandidate(pool.MachinesPerSite)
		for g := range c.genes {
			c.genes[g] = lo + rng.Intn(pool.MachinesPerSite)
		}
		pop.individuals[i] = c
	}
	return pop, nil
}

// NewPopulationFromCandidates wraps existing candidates without copying them.
func NewPopulationFromCandidates(candidates []*Candidate) *Population {
	return &Population{individuals: candidates}
}

func newEmptyPopulation(size int) *Population {
	return &Population{individuals: make([]*Candidate, size)}
}

// Size returns the number of candidates.
func (p *Population) Size() int {
	return len(p.individuals)
}

// Individuals returns the candidates in current order. The slice is shared.
func (p *Population) Individuals() []*Candidate {
	return p.individuals
}

// SetIndividual places c at position i.
func (p *Population) SetIndividual(i int, c *Candidate) {
	p.individuals[i] = c
}

// Fittest returns the candidate at rank k (0 = best). Only meaningful after
// Evaluate has sorted the population.
func (p *Population) Fittest(k int) *Candidate {
	return p.individuals[k]
}

// TotalFitness returns the sum of fitness computed by the last Evaluate.
func (p *Population) TotalFitness() float64 {
	return p.totalFitness
}

// MeanFitness returns TotalFitness / Size.
func (p *Population) MeanFitness() float64 {
	if len(p.individuals) == 0 {
		return 0
	}
	return p.totalFitness / float64(len(p.individuals))
}

// Evaluate computes the fitness of every candidate whose cached value is
// stale, recomputes the total and sorts by descending fitness. Candidates
// with a valid cache keep their fitness untouched.
func (p *Population) Evaluate(evaluator *FitnessEvaluator, rng *rand.Rand) EvalStats {
	var stats EvalStats
	total := 0.0
	for _, c := range p.individuals {
		if !c.Evaluated() {
			ev := evaluator.Evaluate(rng, c)
			stats.Evaluated++
			if ev.Degenerate {
				stats.Degenerate++
			}
			if ev.Truncated {
				stats.Truncated++
			}
			if !ev.Degenerate && !ev.Truncated {
				stats.Clean++
			}
		}
		total += c.Fitness()
	}
	p.totalFitness = total
	p.sortByFitness()
	return stats
}

// sortByFitness orders candidates by descending fitness; ties keep their
// previous relative order.
func (p *Population) sortByFitness() {
	sort.SliceStable(p.individuals, func(i, j int) bool {
		return p.individuals[i].Fitness() > p.individuals[j].Fitness()
	})
}
