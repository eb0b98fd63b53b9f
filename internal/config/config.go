// Package config loads service configuration from the environment and an
// optional hyperparameters file. Every variable is prefixed CREDIT_RISK_
// and has a default suitable for local development.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
)

//go:embed hyperparams.yaml
var defaultHyperparams []byte

// Config is the root configuration assembled by Load.
type Config struct {
	Server   ServerConfig   `envconfig:"SERVER"`
	Database DatabaseConfig `envconfig:"DATABASE"`
	Auth     AuthConfig     `envconfig:"AUTH"`
	Storage  StorageConfig  `envconfig:"STORAGE"`
	Jobs     JobsConfig     `envconfig:"JOBS"`
	Training TrainingConfig `envconfig:"TRAINING"`

	LogLevel        string `envconfig:"LOG_LEVEL" default:"info"`
	HyperparamsPath string `envconfig:"HYPERPARAMS_PATH"`

	// Hyperparameters come from the embedded defaults or the file at
	// HyperparamsPath, never from individual environment variables.
	Hyperparameters ml.Hyperparameters `ignored:"true"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"PORT" default:"8000"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"5m"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Addr returns the host:port pair the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds the optional Postgres connection used for the
// audit trail. An empty URL leaves auditing on the log-only sink.
type DatabaseConfig struct {
	URL             string        `envconfig:"URL"`
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"30m"`
}

// AuthConfig holds API key authentication settings.
type AuthConfig struct {
	Enabled bool   `envconfig:"ENABLED" default:"false"`
	APIKey  string `envconfig:"API_KEY"`
}

// StorageConfig holds model registry settings.
type StorageConfig struct {
	ModelDir            string        `envconfig:"MODEL_DIR" default:"models"`
	PersistModels       bool          `envconfig:"PERSIST_MODELS" default:"true"`
	SessionTTL          time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	MaxModelsPerSession int           `envconfig:"MAX_MODELS_PER_SESSION" default:"50"`
}

// JobsConfig holds the background worker pool and feature selection
// rate limit settings.
type JobsConfig struct {
	MaxWorkers          int           `envconfig:"MAX_WORKERS" default:"4"`
	SelectionRateLimit  int           `envconfig:"SELECTION_RATE_LIMIT" default:"20"`
	SelectionRateWindow time.Duration `envconfig:"SELECTION_RATE_WINDOW" default:"1h"`
	SelectionTimeout    time.Duration `envconfig:"SELECTION_TIMEOUT" default:"4m"`
}

// TrainingConfig carries the training defaults applied when a request
// leaves them unset, and the dataset source. An empty DataPath puts the
// service in dev mode with a seeded synthetic dataset.
type TrainingConfig struct {
	TestSize      float64 `envconfig:"TEST_SIZE" default:"0.2"`
	RandomState   int64   `envconfig:"RANDOM_STATE" default:"42"`
	DataPath      string  `envconfig:"DATA_PATH"`
	SyntheticRows int     `envconfig:"SYNTHETIC_ROWS" default:"1000"`
}

// Load reads configuration from environment variables, merges the
// hyperparameters file, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("credit_risk", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	hp, err := loadHyperparameters(cfg.HyperparamsPath)
	if err != nil {
		return nil, err
	}
	cfg.Hyperparameters = hp

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadHyperparameters(path string) (ml.Hyperparameters, error) {
	hp := ml.DefaultHyperparameters()

	raw := defaultHyperparams
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return hp, fmt.Errorf("read hyperparameters file: %w", err)
		}
		raw = b
	}
	if err := yaml.Unmarshal(raw, &hp); err != nil {
		return hp, fmt.Errorf("parse hyperparameters: %w", err)
	}
	return hp, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server port %d out of range", c.Server.Port)
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("invalid config: test size %.3f must be in (0, 1)", c.Training.TestSize)
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("invalid config: auth enabled without an API key")
	}
	if c.Jobs.MaxWorkers < 1 {
		return fmt.Errorf("invalid config: jobs need at least one worker")
	}
	if c.Jobs.SelectionRateLimit < 1 {
		return fmt.Errorf("invalid config: selection rate limit must be positive")
	}
	if c.Storage.MaxModelsPerSession < 1 {
		return fmt.Errorf("invalid config: session model cap must be positive")
	}
	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("invalid config: database pool needs at least one connection")
	}
	if c.Training.DataPath == "" && c.Training.SyntheticRows < 10 {
		return fmt.Errorf("invalid config: synthetic dataset needs at least 10 rows")
	}
	return nil
}
