// Package config loads the booktypst YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/booktypst/internal/convert"
	"git.home.luguber.info/inful/booktypst/internal/errors"
)

// Version is the only configuration version understood.
const Version = "1.0"

// DefaultPath is used when no --config flag is given.
const DefaultPath = "booktypst.yaml"

// Config is the complete configuration.
type Config struct {
	Version    string           `yaml:"version"`
	Book       BookConfig       `yaml:"book"`
	Stages     map[string]bool  `yaml:"stages,omitempty"`
	Logging    LoggingConfig    `yaml:"logging"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Watch      WatchConfig      `yaml:"watch"`
	Retry      RetryConfig      `yaml:"retry"`
}

// BookConfig locates the input book and the output file.
type BookConfig struct {
	Root   string `yaml:"root"`
	Output string `yaml:"output"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MonitoringConfig groups metrics and tracing.
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig controls the Prometheus endpoint served in watch mode.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// TracingConfig enables OpenTelemetry spans.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version: Version,
		Book:    BookConfig{Root: ".", Output: "book.typ"},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{Listen: ":9464", Path: "/metrics"},
		},
		Watch: WatchConfig{Debounce: "500ms"},
		Retry: RetryConfig{Backoff: RetryBackoffLinear, Initial: "100ms", Max: "2s", MaxRetries: 2},
	}
}

// Load reads configPath over Default. Environment variables from .env files
// are loaded first and ${VAR} references are expanded.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal, "invalid configuration").
			WithContext("path", configPath)
	}

	if cfg.Version != Version {
		return nil, errors.ValidationFailed("version",
			fmt.Sprintf("unsupported configuration version %q (expected %s)", cfg.Version, Version))
	}

	for _, w := range Normalize(cfg) {
		slog.Warn("Config normalization", "warning", w)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except a missing file yields Default.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Debug("No configuration file, using defaults", "path", configPath)
		return Default(), nil
	}
	return Load(configPath)
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigExists(configPath)
	}

	example := Default()
	example.Stages = make(map[string]bool, len(convert.StageNames()))
	for _, name := range convert.StageNames() {
		example.Stages[name] = true
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Options turns the stages map into pipeline options. Stages not listed keep
// their default.
func (c *Config) Options() (convert.Options, error) {
	opts := convert.DefaultOptions()
	for name, enabled := range c.Stages {
		if err := opts.Set(name, enabled); err != nil {
			return opts, errors.ValidationFailed("stages", err.Error())
		}
	}
	return opts, nil
}

// DebounceDuration parses Watch.Debounce. Validate guarantees it parses.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}
