package sim

// Candidate is one proposed task-to-machine assignment for a (window, site)
// pair: gene i holds the machine id for task slot i.
// The fitness value is cached and only meaningful while Evaluated() is true;
// SetGene clears it.
type Candidate struct {
	genes     []int
	fitness   float64
	evaluated bool
}

// NewCandidate returns an unevaluated candidate with length zero-valued genes.
func NewCandidate(length int) *Candidate {
	return &Candidate{genes: make([]int, length)}
}

// NewCandidateFromGenes returns an unevaluated candidate holding a copy of genes.
func NewCandidateFromGenes(genes []int) *Candidate {
	c := NewCandidate(len(genes))
	copy(c.genes, genes)
	return c
}

// Len returns the chromosome length.
func (c *Candidate) Len() int {
	return len(c.genes)
}

// Gene returns the machine id at slot i.
func (c *Candidate) Gene(i int) int {
	return c.genes[i]
}

// SetGene assigns slot i and invalidates the cached fitness.
func (c *Candidate) SetGene(i, machine int) {
	c.genes[i] = machine
	c.evaluated = false
}

// Genes returns a copy of the chromosome.
func (c *Candidate) Genes() []int {
	out := make([]int, len(c.genes))
	copy(out, c.genes)
	return out
}

// Fitness returns the cached fitness (0 when never evaluated).
func (c *Candidate) Fitness() float64 {
	return c.fitness
}

// Evaluated reports whether the cached fitness matches the current genes.
func (c *Candidate) Evaluated() bool {
	return c.evaluated
}

func (c *Candidate) setFitness(f float64) {
	c.fitness = f
	c.evaluated = true
}

// Clone returns a deep copy, including the cached fitness and its validity.
func (c *Candidate) Clone() *Candidate {
	return &Candidate{
		genes:     c.Genes(),
		fitness:   c.fitness,
		evaluated: c.evaluated,
	}
}
