package sim

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ConfigBundle holds scheduler configuration, loadable from a YAML file.
// Nil pointer fields mean "not set in YAML" and leave the defaults untouched.
// String fields use empty string for "not set".
type ConfigBundle struct {
	Optimizer OptimizerBundle `yaml:"optimizer"`
	Fitness   FitnessBundle   `yaml:"fitness"`
	Pool      PoolBundle      `yaml:"pool"`
	Workload  WorkloadBundle  `yaml:"workload"`
	Seed      *int64          `yaml:"seed"`
	Workers   *int            `yaml:"workers"`
}

// OptimizerBundle holds GA parameters.
type OptimizerBundle struct {
	PopulationSize *int     `yaml:"population_size"`
	MutationRate   *float64 `yaml:"mutation_rate"`
	CrossoverRate  *float64 `yaml:"crossover_rate"`
	ElitismCount   *int     `yaml:"elitism_count"`
	Generations    *int     `yaml:"generations"`
}

// FitnessBundle holds fitness model constants.
type FitnessBundle struct {
	FailureRate     *float64 `yaml:"failure_rate"`
	FailureWindow   *int     `yaml:"failure_window"`
	ExecutionWeight *float64 `yaml:"execution_weight"`
	RiskWeight      *float64 `yaml:"risk_weight"`
}

// PoolBundle holds the machine capacity model. A non-empty Tiers list
// replaces the default tiers entirely.
type PoolBundle struct {
	Sites           *int   `yaml:"sites"`
	MachinesPerSite *int   `yaml:"machines_per_site"`
	Tiers           []Tier `yaml:"tiers"`
}

// WorkloadBundle describes where task lengths come from: a dataset file, or a
// synthetic distribution when Dataset is empty.
type WorkloadBundle struct {
	Dataset      string   `yaml:"dataset"`
	BaseLength   *float64 `yaml:"base_length"`
	Tasks        *int     `yaml:"tasks"`
	Distribution string   `yaml:"distribution"`
	Mean         *float64 `yaml:"mean"`
	StdDev       *float64 `yaml:"std_dev"`
	Min          *float64 `yaml:"min"`
	Max          *float64 `yaml:"max"`
}

// ValidDistributions is the set of recognized synthetic length distributions.
var ValidDistributions = map[string]bool{"": true, "constant": true, "uniform": true, "gaussian": true}

// ValidDistributionNames returns the non-empty distribution names, sorted.
func ValidDistributionNames() []string {
	names := make([]string, 0, len(ValidDistributions))
	for name := range ValidDistributions {
		if name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// LoadConfigBundle reads and strictly parses a YAML configuration file.
// Unknown keys are errors so that typos do not silently fall back to defaults.
func LoadConfigBundle(path string) (*ConfigBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scheduler config: %w", err)
	}
	var bundle ConfigBundle
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bundle); err != nil {
		return nil, fmt.Errorf("parsing scheduler config: %w", err)
	}
	return &bundle, nil
}

// Validate checks names and parameter ranges of the fields that are set.
func (b *ConfigBundle) Validate() error {
	o := b.Optimizer
	if o.PopulationSize != nil && *o.PopulationSize <= 0 {
		return fmt.Errorf("population_size must be positive, got %d", *o.PopulationSize)
	}
	if o.Generations != nil && *o.Generations <= 0 {
		return fmt.Errorf("generations must be positive, got %d", *o.Generations)
	}
	if o.MutationRate != nil && !inUnitInterval(*o.MutationRate) {
		return fmt.Errorf("mutation_rate must be in [0,1], got %f", *o.MutationRate)
	}
	if o.CrossoverRate != nil && !inUnitInterval(*o.CrossoverRate) {
		return fmt.Errorf("crossover_rate must be in [0,1], got %f", *o.CrossoverRate)
	}
	if o.ElitismCount != nil && *o.ElitismCount < 0 {
		return fmt.Errorf("elitism_count must be non-negative, got %d", *o.ElitismCount)
	}

	f := b.Fitness
	if f.FailureRate != nil && *f.FailureRate <= 0 {
		return fmt.Errorf("failure_rate must be positive, got %f", *f.FailureRate)
	}
	if f.FailureWindow != nil && *f.FailureWindow <= 0 {
		return fmt.Errorf("failure_window must be positive, got %d", *f.FailureWindow)
	}
	if f.ExecutionWeight != nil && *f.ExecutionWeight < 0 {
		return fmt.Errorf("execution_weight must be non-negative, got %f", *f.ExecutionWeight)
	}
	if f.RiskWeight != nil && *f.RiskWeight < 0 {
		return fmt.Errorf("risk_weight must be non-negative, got %f", *f.RiskWeight)
	}

	p := b.Pool
	if p.Sites != nil && *p.Sites <= 0 {
		return fmt.Errorf("sites must be positive, got %d", *p.Sites)
	}
	if p.MachinesPerSite != nil && *p.MachinesPerSite <= 0 {
		return fmt.Errorf("machines_per_site must be positive, got %d", *p.MachinesPerSite)
	}
	for i, t := range p.Tiers {
		if t.Rate <= 0 {
			return fmt.Errorf("tier %d (%q) rate must be positive, got %f", i, t.Name, t.Rate)
		}
	}

	w := b.Workload
	if !ValidDistributions[w.Distribution] {
		return fmt.Errorf("unknown workload distribution %q", w.Distribution)
	}
	if w.Tasks != nil && *w.Tasks <= 0 {
		return fmt.Errorf("tasks must be positive, got %d", *w.Tasks)
	}
	if w.BaseLength != nil && *w.BaseLength < 0 {
		return fmt.Errorf("base_length must be non-negative, got %f", *w.BaseLength)
	}
	if b.Workers != nil && *b.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", *b.Workers)
	}
	return nil
}

// ApplyOptimizer overwrites the fields of cfg that are set in the bundle.
func (b *ConfigBundle) ApplyOptimizer(cfg *OptimizerConfig) {
	o := b.Optimizer
	setIfPresent(&cfg.PopulationSize, o.PopulationSize)
	setIfPresent(&cfg.MutationRate, o.MutationRate)
	setIfPresent(&cfg.CrossoverRate, o.CrossoverRate)
	setIfPresent(&cfg.ElitismCount, o.ElitismCount)
	setIfPresent(&cfg.Generations, o.Generations)
}

// ApplyFitness overwrites the fields of cfg that are set in the bundle.
func (b *ConfigBundle) ApplyFitness(cfg *FitnessConfig) {
	f := b.Fitness
	setIfPresent(&cfg.FailureRate, f.FailureRate)
	setIfPresent(&cfg.FailureWindow, f.FailureWindow)
	setIfPresent(&cfg.ExecutionWeight, f.ExecutionWeight)
	setIfPresent(&cfg.RiskWeight, f.RiskWeight)
}

// ApplyPool overwrites the fields of pool that are set in the bundle.
func (b *ConfigBundle) ApplyPool(pool *MachinePool) {
	setIfPresent(&pool.Sites, b.Pool.Sites)
	setIfPresent(&pool.MachinesPerSite, b.Pool.MachinesPerSite)
	if len(b.Pool.Tiers) > 0 {
		pool.Tiers = append([]Tier(nil), b.Pool.Tiers...)
	}
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
