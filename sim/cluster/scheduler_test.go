package cluster

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/gasched/sim"
	"github.com/inference-sim/gasched/sim/trace"
)

func newTestConfig(seed int64, workers int) SchedulerConfig {
	opt := sim.DefaultOptimizerConfig()
	opt.Generations = 5
	return SchedulerConfig{
		Optimizer: opt,
		Fitness:   sim.DefaultFitnessConfig(),
		Pool:      sim.DefaultMachinePool(),
		Seed:      seed,
		Workers:   workers,
	}
}

func testLengths(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1000 + float64((i*37)%500)
	}
	return out
}

func TestBatchScheduler_BindsEveryTaskOfCompleteWindows(t *testing.T) {
	// GIVEN 120 tasks on the 6x9 pool: two complete windows and 12 leftovers
	cfg := newTestConfig(42, 1)
	broker := NewBroker(cfg.Pool)
	s, err := NewBatchScheduler(cfg, testLengths(120), broker)
	require.NoError(t, err)

	// WHEN scheduled
	result, err := s.Run()
	require.NoError(t, err)

	// THEN tasks 0..107 are bound to a machine of their own site
	assert.Equal(t, 2, result.Windows)
	assert.Equal(t, 12, result.Unscheduled)
	assert.Equal(t, 108, result.Bound)
	require.Len(t, result.Runs, 12)
	assert.Equal(t, 108, broker.Len())
	for task := 0; task < 108; task++ {
		machine, ok := broker.MachineOf(task)
		require.True(t, ok, "task %d unbound", task)
		site := (task%54)/9 + 1
		lo, hi := cfg.Pool.SiteRange(site)
		assert.True(t, machine >= lo && machine < hi, "task %d on machine %d outside site %d", task, machine, site)
	}
	_, ok := broker.MachineOf(108)
	assert.False(t, ok)
}

func TestBatchScheduler_RunsInWindowSiteOrder(t *testing.T) {
	cfg := newTestConfig(1, 4)
	s, err := NewBatchScheduler(cfg, testLengths(108), NewBroker(cfg.Pool))
	require.NoError(t, err)
	result, err := s.Run()
	require.NoError(t, err)

	i := 0
	for w := 0; w < 2; w++ {
		for site := 1; site <= 6; site++ {
			pr := result.Runs[i]
			assert.Equal(t, w, pr.Window)
			assert.Equal(t, site, pr.Site)
			for slot, b := range pr.Bindings {
				assert.Equal(t, sim.TaskIndex(w, site, slot, 6, 9), b.TaskID)
				assert.Equal(t, pr.Run.Best.Gene(slot), b.MachineID)
			}
			i++
		}
	}
}

func TestBatchScheduler_DeterministicAcrossWorkerCounts(t *testing.T) {
	// GIVEN the same seed and tasks
	lengths := testLengths(162)

	// WHEN scheduled sequentially and with 8 workers
	bindings := make([][]Binding, 0, 2)
	traces := make([]string, 0, 2)
	for _, workers := range []int{1, 8} {
		cfg := newTestConfig(99, workers)
		broker := NewBroker(cfg.Pool)
		var out bytes.Buffer
		s, err := NewBatchScheduler(cfg, lengths, broker, WithTraceWriter(&out))
		require.NoError(t, err)
		_, err = s.Run()
		require.NoError(t, err)
		bindings = append(bindings, broker.Bindings())
		traces = append(traces, out.String())
	}

	// THEN bindings and trace output are identical
	assert.Equal(t, bindings[0], bindings[1])
	assert.Equal(t, traces[0], traces[1])
}

func TestBatchScheduler_DifferentSeedsDiffer(t *testing.T) {
	lengths := testLengths(54)
	run := func(seed int64) []Binding {
		cfg := newTestConfig(seed, 1)
		broker := NewBroker(cfg.Pool)
		s, err := NewBatchScheduler(cfg, lengths, broker)
		require.NoError(t, err)
		_, err = s.Run()
		require.NoError(t, err)
		return broker.Bindings()
	}
	assert.NotEqual(t, run(1), run(2))
}

func TestBatchScheduler_TraceLines(t *testing.T) {
	// GIVEN one window on a 2x3 pool
	cfg := newTestConfig(5, 1)
	cfg.Pool = &sim.MachinePool{Sites: 2, MachinesPerSite: 3, Tiers: []sim.Tier{{Name: "uniform", Rate: 500}}}
	var out bytes.Buffer
	s, err := NewBatchScheduler(cfg, testLengths(6), NewBroker(cfg.Pool), WithTraceWriter(&out))
	require.NoError(t, err)

	// WHEN scheduled
	result, err := s.Run()
	require.NoError(t, err)

	// THEN one line per pair in "window=W site=S task:machine" form
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "window=0 site=1 0:"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "window=0 site=2 3:"), lines[1])
	assert.Equal(t, FormatTraceLine(result.Runs[1]), lines[1])
	assert.Len(t, strings.Fields(lines[0]), 2+3)
}

func TestFormatTraceLine(t *testing.T) {
	pr := PairResult{Window: 2, Site: 3, Bindings: []Binding{{130, 20}, {131, 18}}}
	assert.Equal(t, "window=2 site=3 130:20 131:18", FormatTraceLine(pr))
}

func TestBatchScheduler_RecordsTrace(t *testing.T) {
	cfg := newTestConfig(3, 2)
	rt := trace.NewRunTrace(trace.TraceConfig{Level: trace.TraceLevelGenerations})
	s, err := NewBatchScheduler(cfg, testLengths(54), NewBroker(cfg.Pool), WithTrace(rt), WithRunID("fixed"))
	require.NoError(t, err)
	_, err = s.Run()
	require.NoError(t, err)

	require.Len(t, rt.Runs, 6)
	assert.Len(t, rt.Generations, 6*(cfg.Optimizer.Generations+1))
	for i, r := range rt.Runs {
		assert.Equal(t, "fixed", r.RunID)
		assert.Equal(t, i+1, r.Site)
		assert.Len(t, r.BestGenes, 9)
		assert.GreaterOrEqual(t, r.BestFitness, r.InitialBestFitness)
	}
	summary := trace.Summarize(rt)
	assert.Equal(t, 6, summary.TotalRuns)
	assert.Equal(t, 6*cfg.Optimizer.Generations, summary.TotalGenerations)
}

func TestBatchScheduler_TooFewTasksIsNotFatal(t *testing.T) {
	cfg := newTestConfig(1, 1)
	broker := NewBroker(cfg.Pool)
	s, err := NewBatchScheduler(cfg, testLengths(20), broker)
	require.NoError(t, err)
	result, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, result.Windows)
	assert.Equal(t, 20, result.Unscheduled)
	assert.Empty(t, result.Runs)
	assert.Equal(t, 0, broker.Len())
}

func TestBatchScheduler_RunTwiceFails(t *testing.T) {
	cfg := newTestConfig(1, 1)
	s, err := NewBatchScheduler(cfg, testLengths(54), NewBroker(cfg.Pool))
	require.NoError(t, err)
	_, err = s.Run()
	require.NoError(t, err)
	_, err = s.Run()
	assert.Error(t, err)
}

type failingBinder struct{ after int }

func (f *failingBinder) BindTask(taskID, machineID int) error {
	if f.after == 0 {
		return fmt.Errorf("environment rejected task %d", taskID)
	}
	f.after--
	return nil
}

func TestBatchScheduler_BinderErrorPropagates(t *testing.T) {
	cfg := newTestConfig(1, 1)
	s, err := NewBatchScheduler(cfg, testLengths(54), &failingBinder{after: 10})
	require.NoError(t, err)
	_, err = s.Run()
	assert.ErrorContains(t, err, "environment rejected task 10")
}

func TestNewBatchScheduler_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SchedulerConfig)
	}{
		{"zero population", func(c *SchedulerConfig) { c.Optimizer.PopulationSize = 0 }},
		{"zero generations", func(c *SchedulerConfig) { c.Optimizer.Generations = 0 }},
		{"bad failure rate", func(c *SchedulerConfig) { c.Fitness.FailureRate = 0 }},
		{"nil pool", func(c *SchedulerConfig) { c.Pool = nil }},
		{"negative workers", func(c *SchedulerConfig) { c.Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig(1, 1)
			tt.mutate(&cfg)
			_, err := NewBatchScheduler(cfg, testLengths(54), NewBroker(sim.DefaultMachinePool()))
			assert.True(t, errors.Is(err, sim.ErrInvalidConfig), "got %v", err)
		})
	}

	_, err := NewBatchScheduler(newTestConfig(1, 1), testLengths(54), nil)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}

func TestNewBatchScheduler_GeneratesRunID(t *testing.T) {
	cfg := newTestConfig(1, 1)
	a, err := NewBatchScheduler(cfg, nil, NewBroker(cfg.Pool))
	require.NoError(t, err)
	b, err := NewBatchScheduler(cfg, nil, NewBroker(cfg.Pool))
	require.NoError(t, err)
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}
