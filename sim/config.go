package sim

import (
	"fmt"
	"math"
)

// OptimizerConfig groups the genetic algorithm parameters of one run.
type OptimizerConfig struct {
	PopulationSize int     // candidates per generation (must be > 0)
	MutationRate   float64 // per-gene mutation probability in [0,1]
	CrossoverRate  float64 // per-candidate crossover probability in [0,1]
	ElitismCount   int     // top-ranked candidates carried over unchanged (>= 0)
	Generations    int     // fixed number of select/crossover/mutate cycles (must be > 0)
}

// FitnessConfig groups the constants of the fitness model.
type FitnessConfig struct {
	FailureRate     float64 // λ, expected machine failures per window
	FailureWindow   int     // n, machines exposed to failure per site
	ExecutionWeight float64 // weight of 1/execution_time
	RiskWeight      float64 // weight of 1/failure_mass
}

// NewOptimizerConfig creates an OptimizerConfig. Zero values are kept as given.
func NewOptimizerConfig(populationSize int, mutationRate, crossoverRate float64, elitismCount, generations int) OptimizerConfig {
	return OptimizerConfig{
		PopulationSize: populationSize,
		MutationRate:   mutationRate,
		CrossoverRate:  crossoverRate,
		ElitismCount:   elitismCount,
		Generations:    generations,
	}
}

// DefaultOptimizerConfig returns the reference configuration:
// 20 candidates, mutation 0.3, crossover 0.95, 2 elites, 15 generations.
func DefaultOptimizerConfig() OptimizerConfig {
	return NewOptimizerConfig(20, 0.3, 0.95, 2, 15)
}

// DefaultFitnessConfig returns the reference fitness model.
func DefaultFitnessConfig() FitnessConfig {
	return FitnessConfig{
		FailureRate:     0.04847468455,
		FailureWindow:   9,
		ExecutionWeight: 0.95,
		RiskWeight:      0.05,
	}
}

// Validate checks sizes and rate ranges. Errors wrap ErrInvalidConfig.
func (c OptimizerConfig) Validate() error {
	if c.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidConfig, c.PopulationSize)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("%w: generation count must be positive, got %d", ErrInvalidConfig, c.Generations)
	}
	if !inUnitInterval(c.MutationRate) {
		return fmt.Errorf("%w: mutation rate must be in [0,1], got %f", ErrInvalidConfig, c.MutationRate)
	}
	if !inUnitInterval(c.CrossoverRate) {
		return fmt.Errorf("%w: crossover rate must be in [0,1], got %f", ErrInvalidConfig, c.CrossoverRate)
	}
	if c.ElitismCount < 0 || c.ElitismCount > c.PopulationSize {
		return fmt.Errorf("%w: elitism count must be in [0,%d], got %d", ErrInvalidConfig, c.PopulationSize, c.ElitismCount)
	}
	return nil
}

// Validate checks the fitness constants. Errors wrap ErrInvalidConfig.
func (c FitnessConfig) Validate() error {
	if c.FailureRate <= 0 || math.IsInf(c.FailureRate, 0) || math.IsNaN(c.FailureRate) {
		return fmt.Errorf("%w: failure rate must be positive and finite, got %f", ErrInvalidConfig, c.FailureRate)
	}
	if c.FailureWindow <= 0 {
		return fmt.Errorf("%w: failure window must be positive, got %d", ErrInvalidConfig, c.FailureWindow)
	}
	if c.ExecutionWeight < 0 || c.RiskWeight < 0 {
		return fmt.Errorf("%w: fitness weights must be non-negative, got %f/%f", ErrInvalidConfig, c.ExecutionWeight, c.RiskWeight)
	}
	return nil
}

func inUnitInterval(v float64) bool {
	return v >= 0 && v <= 1
}
