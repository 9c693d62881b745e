package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/striide/walkgraph/associate"
	"github.com/striide/walkgraph/featureio"
	"gopkg.in/yaml.v3"
)

// Config is the optional --config file. Zero values keep the defaults.
type Config struct {
	Threads  int    `yaml:"threads"`
	LogLevel string `yaml:"log_level"`

	// OTLP/HTTP endpoint, telemetry export is off when empty.
	TelemetryEndpoint string `yaml:"telemetry_endpoint"`

	Associate struct {
		K               int     `yaml:"k"`
		MaxDistSquared  float64 `yaml:"max_dist_squared"`
		LengthThreshold float64 `yaml:"length_threshold"`
		IntervalFactor  float64 `yaml:"interval_factor"`
		Sampling        string  `yaml:"sampling"`
		CandidateCutoff int     `yaml:"candidate_cutoff"`
	} `yaml:"associate"`

	// Round input coordinates to this many decimals, negative disables it.
	Quantize *int `yaml:"quantize"`
}

func loadConfig(name string) (Config, error) {
	var cfg Config
	if name == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config %s: %w", name, err)
	}
	if _, err := associate.ParseSamplingMode(cfg.Associate.Sampling); err != nil {
		return cfg, fmt.Errorf("config %s: %w", name, err)
	}
	return cfg, nil
}

func (c Config) associateConfig(log *slog.Logger) associate.Config {
	cfg := associate.ConfigDefault()
	cfg.Logger = log
	if c.Threads > 0 {
		cfg.Threads = c.Threads
	}

	a := c.Associate
	if a.K > 0 {
		cfg.K = a.K
	}
	if a.MaxDistSquared > 0 {
		cfg.MaxDistSquared = a.MaxDistSquared
	}
	if a.LengthThreshold > 0 {
		cfg.LengthThreshold = a.LengthThreshold
	}
	if a.IntervalFactor > 0 {
		cfg.IntervalFactor = a.IntervalFactor
	}
	// validated in loadConfig
	cfg.Sampling, _ = associate.ParseSamplingMode(a.Sampling)
	cfg.CandidateCutoff = a.CandidateCutoff
	return cfg
}

func (c Config) readOptions(log *slog.Logger) []featureio.Option {
	opts := []featureio.Option{featureio.WithLogger(log)}
	if c.Quantize != nil {
		opts = append(opts, featureio.WithQuantize(*c.Quantize))
	}
	return opts
}

func (c Config) logLevel() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}
