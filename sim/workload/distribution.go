package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// LengthSampler generates task lengths in million instructions.
type LengthSampler interface {
	// Sample returns a positive task length (>= 1).
	Sample(rng *rand.Rand) int
}

// LengthSpec names a sampler and its parameters.
type LengthSpec struct {
	Type   string             // constant, uniform, gaussian or exponential
	Params map[string]float64 // per-type parameters, see NewLengthSampler
}

// GaussianSampler produces clamped Gaussian task lengths.
type GaussianSampler struct {
	mean, stdDev float64
	min, max     int
}

func (s *GaussianSampler) Sample(rng *rand.Rand) int {
	if s.min == s.max {
		return s.min
	}
	val := rng.NormFloat64()*s.stdDev + s.mean
	clamped := math.Min(float64(s.max), math.Max(float64(s.min), val))
	return atLeastOne(int(math.Round(clamped)))
}

// UniformSampler draws task lengths uniformly from [min, max].
type UniformSampler struct {
	min, max int
}

func (s *UniformSampler) Sample(rng *rand.Rand) int {
	if s.max <= s.min {
		return atLeastOne(s.min)
	}
	return atLeastOne(s.min + rng.Intn(s.max-s.min+1))
}

// ExponentialSampler produces exponentially-distributed task lengths.
type ExponentialSampler struct {
	mean float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) int {
	return atLeastOne(int(math.Round(rng.ExpFloat64() * s.mean)))
}

// ConstantSampler always returns the same fixed value.
type ConstantSampler struct {
	value int
}

func (s *ConstantSampler) Sample(_ *rand.Rand) int {
	return atLeastOne(s.value)
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewLengthSampler creates a LengthSampler from a LengthSpec.
//
//	constant:    value
//	uniform:     min, max
//	gaussian:    mean, std_dev, min, max
//	exponential: mean
func NewLengthSampler(spec LengthSpec) (LengthSampler, error) {
	switch spec.Type {
	case "constant":
		if err := requireParam(spec.Params, "value"); err != nil {
			return nil, err
		}
		return &ConstantSampler{value: int(spec.Params["value"])}, nil

	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		lo, hi := int(spec.Params["min"]), int(spec.Params["max"])
		if hi < lo {
			return nil, fmt.Errorf("uniform distribution max %d below min %d", hi, lo)
		}
		return &UniformSampler{min: lo, max: hi}, nil

	case "gaussian":
		if err := requireParam(spec.Params, "mean", "std_dev", "min", "max"); err != nil {
			return nil, err
		}
		if spec.Params["std_dev"] < 0 {
			return nil, fmt.Errorf("gaussian std_dev must be non-negative, got %f", spec.Params["std_dev"])
		}
		return &GaussianSampler{
			mean:   spec.Params["mean"],
			stdDev: spec.Params["std_dev"],
			min:    int(spec.Params["min"]),
			max:    int(spec.Params["max"]),
		}, nil

	case "exponential":
		if err := requireParam(spec.Params, "mean"); err != nil {
			return nil, err
		}
		return &ExponentialSampler{mean: spec.Params["mean"]}, nil

	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}

// GenerateTaskLengths draws n task lengths from sampler.
func GenerateTaskLengths(rng *rand.Rand, n int, sampler LengthSampler) []float64 {
	lengths := make([]float64, n)
	for i := range lengths {
		lengths[i] = float64(sampler.Sample(rng))
	}
	return lengths
}
