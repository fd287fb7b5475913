package sim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }
func intPtr(v int) *int             { return &v }

func TestLoadConfigBundle_ValidYAML(t *testing.T) {
	yaml := `
seed: 7
workers: 4
optimizer:
  population_size: 30
  mutation_rate: 0.2
  crossover_rate: 0.9
  elitism_count: 3
  generations: 25
fitness:
  failure_rate: 0.05
  failure_window: 9
pool:
  sites: 3
  machines_per_site: 6
  tiers:
    - name: slow
      rate: 300
    - name: fast
      rate: 900
workload:
  dataset: data/RandomDataset.txt
  base_length: 1000
  tasks: 500
`
	path := writeTempYAML(t, yaml)
	bundle, err := LoadConfigBundle(path)
	require.NoError(t, err)
	require.NoError(t, bundle.Validate())

	require.NotNil(t, bundle.Seed)
	assert.Equal(t, int64(7), *bundle.Seed)
	require.NotNil(t, bundle.Workers)
	assert.Equal(t, 4, *bundle.Workers)
	require.NotNil(t, bundle.Optimizer.PopulationSize)
	assert.Equal(t, 30, *bundle.Optimizer.PopulationSize)
	require.NotNil(t, bundle.Fitness.FailureRate)
	assert.Equal(t, 0.05, *bundle.Fitness.FailureRate)
	assert.Nil(t, bundle.Fitness.RiskWeight)
	assert.Equal(t, []Tier{{Name: "slow", Rate: 300}, {Name: "fast", Rate: 900}}, bundle.Pool.Tiers)
	assert.Equal(t, "data/RandomDataset.txt", bundle.Workload.Dataset)
}

func TestLoadConfigBundle_ZeroValueIsDistinctFromUnset(t *testing.T) {
	yaml := `
optimizer:
  elitism_count: 0
  mutation_rate: 0.0
`
	path := writeTempYAML(t, yaml)
	bundle, err := LoadConfigBundle(path)
	require.NoError(t, err)

	// elitism_count: 0 is explicitly set, not "unset"
	require.NotNil(t, bundle.Optimizer.ElitismCount)
	assert.Equal(t, 0, *bundle.Optimizer.ElitismCount)
	require.NotNil(t, bundle.Optimizer.MutationRate)
	assert.Nil(t, bundle.Optimizer.CrossoverRate)

	cfg := DefaultOptimizerConfig()
	bundle.ApplyOptimizer(&cfg)
	assert.Equal(t, 0, cfg.ElitismCount)
	assert.Equal(t, 0.0, cfg.MutationRate)
	assert.Equal(t, 0.95, cfg.CrossoverRate, "unset field must keep the default")
}

func TestLoadConfigBundle_UnknownKeyRejected(t *testing.T) {
	path := writeTempYAML(t, "optimizer:\n  populaton_size: 10\n")
	_, err := LoadConfigBundle(path)
	assert.Error(t, err, "typo in a key must not silently fall back to defaults")
}

func TestLoadConfigBundle_NonexistentFile(t *testing.T) {
	_, err := LoadConfigBundle("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestLoadConfigBundle_MalformedYAML(t *testing.T) {
	path := writeTempYAML(t, "{{invalid yaml")
	_, err := LoadConfigBundle(path)
	assert.Error(t, err)
}

func TestConfigBundle_Validate_EmptyIsValid(t *testing.T) {
	bundle := &ConfigBundle{}
	assert.NoError(t, bundle.Validate())
}

func TestConfigBundle_Validate_InvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		bundle ConfigBundle
	}{
		{"zero population", ConfigBundle{Optimizer: OptimizerBundle{PopulationSize: intPtr(0)}}},
		{"zero generations", ConfigBundle{Optimizer: OptimizerBundle{Generations: intPtr(0)}}},
		{"mutation above one", ConfigBundle{Optimizer: OptimizerBundle{MutationRate: float64Ptr(1.5)}}},
		{"negative crossover", ConfigBundle{Optimizer: OptimizerBundle{CrossoverRate: float64Ptr(-0.1)}}},
		{"negative elitism", ConfigBundle{Optimizer: OptimizerBundle{ElitismCount: intPtr(-1)}}},
		{"zero failure rate", ConfigBundle{Fitness: FitnessBundle{FailureRate: float64Ptr(0)}}},
		{"zero failure window", ConfigBundle{Fitness: FitnessBundle{FailureWindow: intPtr(0)}}},
		{"negative risk weight", ConfigBundle{Fitness: FitnessBundle{RiskWeight: float64Ptr(-1)}}},
		{"zero sites", ConfigBundle{Pool: PoolBundle{Sites: intPtr(0)}}},
		{"zero machines", ConfigBundle{Pool: PoolBundle{MachinesPerSite: intPtr(0)}}},
		{"zero tier rate", ConfigBundle{Pool: PoolBundle{Tiers: []Tier{{Name: "dead", Rate: 0}}}}},
		{"unknown distribution", ConfigBundle{Workload: WorkloadBundle{Distribution: "zipf"}}},
		{"zero tasks", ConfigBundle{Workload: WorkloadBundle{Tasks: intPtr(0)}}},
		{"zero workers", ConfigBundle{Workers: intPtr(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.bundle.Validate())
		})
	}
}

func TestConfigBundle_ApplyPool_ReplacesTiers(t *testing.T) {
	// GIVEN the default pool and a bundle overriding sites and tiers
	pool := DefaultMachinePool()
	bundle := &ConfigBundle{Pool: PoolBundle{
		Sites: intPtr(2),
		Tiers: []Tier{{Name: "uniform", Rate: 500}},
	}}

	// WHEN applied
	bundle.ApplyPool(pool)

	// THEN set fields change and unset fields keep defaults
	assert.Equal(t, 2, pool.Sites)
	assert.Equal(t, 9, pool.MachinesPerSite)
	assert.Equal(t, []Tier{{Name: "uniform", Rate: 500}}, pool.Tiers)
}

func TestConfigBundle_ApplyFitness(t *testing.T) {
	cfg := DefaultFitnessConfig()
	bundle := &ConfigBundle{Fitness: FitnessBundle{FailureRate: float64Ptr(0.1), FailureWindow: intPtr(4)}}
	bundle.ApplyFitness(&cfg)
	assert.Equal(t, 0.1, cfg.FailureRate)
	assert.Equal(t, 4, cfg.FailureWindow)
	assert.Equal(t, 0.95, cfg.ExecutionWeight)
}

func TestValidDistributionNames_Sorted(t *testing.T) {
	names := ValidDistributionNames()
	assert.NotContains(t, names, "")
	assert.Contains(t, names, "gaussian")
	for i := 1; i < len(names); i++ {
		assert.True(t, names[i-1] < names[i], "names must be sorted: %q >= %q", names[i-1], names[i])
	}
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gasched.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
