package sim

import (
	"math/rand"
	"testing"
)

// singleTierPool returns a pool whose machines all share one rate, so every
// assignment of equal-length tasks has the same execution time.
func singleTierPool(sites, perSite int, rate float64) *MachinePool {
	return &MachinePool{
		Sites:           sites,
		MachinesPerSite: perSite,
		Tiers:           []Tier{{Name: "uniform", Rate: rate}},
	}
}

func constantLengths(n int, length float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = length
	}
	return out
}

// rampLengths returns lengths 1000, 1001, ... so slot order matters.
func rampLengths(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1000 + float64(i)
	}
	return out
}

func testRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func mustOptimizer(t *testing.T, cfg OptimizerConfig, ctx RunContext, seed int64) *Optimizer {
	t.Helper()
	opt, err := NewOptimizer(cfg, ctx, testRand(seed))
	if err != nil {
		t.Fatalf("NewOptimizer: %v", err)
	}
	return opt
}

func defaultRunContext(lengths []float64, window, site int) RunContext {
	return RunContext{
		Pool:        DefaultMachinePool(),
		TaskLengths: lengths,
		Window:      window,
		Site:        site,
		Fitness:     DefaultFitnessConfig(),
	}
}
