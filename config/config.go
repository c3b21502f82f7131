package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hyperpolymath/anamnesis/errors"
	"github.com/hyperpolymath/anamnesis/ingest"
	"github.com/hyperpolymath/anamnesis/store"
	"github.com/hyperpolymath/anamnesis/worker"
)

// Config is the complete runtime configuration: logging, the worker binary,
// one pool per stage kind, the store client, and the coordinator.
type Config struct {
	Logging      Logging `yaml:"logging"`
	WorkerBinary string  `yaml:"worker_binary" env:"ANAMNESIS_WORKER_BINARY"`
	Pools        Pools   `yaml:"pools"`

	Store  store.Config  `yaml:"store"`
	Ingest ingest.Config `yaml:"ingest"`
}

// Logging selects the handler the CLI installs.
type Logging struct {
	Level  string `yaml:"level" env:"ANAMNESIS_LOG_LEVEL"`
	Format string `yaml:"format" env:"ANAMNESIS_LOG_FORMAT"`
}

// Pools sizes the three stage pools independently. Environment overrides
// on pool fields apply to all three kinds at once.
type Pools struct {
	Parse    worker.PoolConfig `yaml:"parse"`
	Reason   worker.PoolConfig `yaml:"reason"`
	Generate worker.PoolConfig `yaml:"generate"`
}

// Default returns the complete default configuration.
func Default() Config {
	return Config{
		Logging:      Logging{Level: "info", Format: "json"},
		WorkerBinary: "anamnesis-worker",
		Pools: Pools{
			Parse:    worker.DefaultPoolConfig("parse"),
			Reason:   worker.DefaultPoolConfig("reason"),
			Generate: worker.DefaultPoolConfig("generate"),
		},
		Store:  store.DefaultConfig(),
		Ingest: ingest.DefaultConfig(),
	}
}

// Load builds the effective configuration: defaults, overlaid with the
// YAML file when path is non-empty, overlaid with environment variables,
// then validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.WrapInvalid(err, "Config", "Load", "file read")
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, errors.WrapInvalid(
				fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
				"Config", "Load", "yaml decode")
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Config", "Load", "environment overlay")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: log level %q", errors.ErrInvalidConfig, c.Logging.Level),
			"Config", "Validate", "logging check")
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(
			fmt.Errorf("%w: log format %q", errors.ErrInvalidConfig, c.Logging.Format),
			"Config", "Validate", "logging check")
	}
	if c.WorkerBinary == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: worker_binary is required", errors.ErrMissingConfig),
			"Config", "Validate", "worker binary check")
	}

	for _, pool := range []worker.PoolConfig{c.Pools.Parse, c.Pools.Reason, c.Pools.Generate} {
		if err := pool.Validate(); err != nil {
			return err
		}
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	return c.Ingest.Validate()
}
