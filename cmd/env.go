package cmd

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds GASCHED_* environment overrides. Each one applies only
// when the matching flag was not set on the command line.
type EnvConfig struct {
	Config     string `env:"CONFIG"`
	LogLevel   string `env:"LOG_LEVEL"`
	Workers    *int   `env:"WORKERS"`
	MetricsOut string `env:"METRICS_OUT"`
}

// LoadEnv parses GASCHED_* variables.
func LoadEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "GASCHED_"}); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// first error only, keeps the log readable
			return cfg, aggErr.Errors[0]
		}
		return cfg, err
	}
	return cfg, nil
}
