// Package config loads pipeline configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the file omits a value.
const (
	DefaultTimeout         = 10 * time.Second
	DefaultWorkers         = 1
	DefaultSPARQLSpacing   = time.Second
	DefaultMetaSpacing     = time.Second
	DefaultCrossrefSpacing = 100 * time.Millisecond
	DefaultArtifactsDir    = "artifacts"
)

// MaxWorkers bounds the worker pool size.
const MaxWorkers = 64

// Endpoints holds the downstream service URLs. Empty values fall back to
// each client's production default.
type Endpoints struct {
	SPARQL   string `yaml:"sparql"`
	Meta     string `yaml:"meta"`
	Crossref string `yaml:"crossref"`
}

// Spacing holds the per-host minimum inter-request intervals.
type Spacing struct {
	SPARQL   time.Duration `yaml:"sparql"`
	Meta     time.Duration `yaml:"meta"`
	Crossref time.Duration `yaml:"crossref"`
}

// Config is the pipeline run configuration.
type Config struct {
	Endpoints    Endpoints     `yaml:"endpoints"`
	Spacing      Spacing       `yaml:"spacing"`
	Timeout      time.Duration `yaml:"timeout"`
	Workers      int           `yaml:"workers"`
	Mailto       string        `yaml:"mailto"`
	ArtifactsDir string        `yaml:"artifacts_dir"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and validates a configuration file. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Spacing.SPARQL <= 0 {
		c.Spacing.SPARQL = DefaultSPARQLSpacing
	}
	if c.Spacing.Meta <= 0 {
		c.Spacing.Meta = DefaultMetaSpacing
	}
	if c.Spacing.Crossref <= 0 {
		c.Spacing.Crossref = DefaultCrossrefSpacing
	}
	if c.ArtifactsDir == "" {
		c.ArtifactsDir = DefaultArtifactsDir
	}
	if c.Mailto == "" {
		c.Mailto = os.Getenv("CROSSREF_MAILTO")
	}
}

func (c *Config) validate() error {
	if c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be at most %d, got %d", MaxWorkers, c.Workers)
	}
	return nil
}
