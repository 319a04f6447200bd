// Package config loads postquery settings from defaults, YAML files, a .env
// file and the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/postquery/internal/transport"
)

// File and directory names.
const (
	DirName         = ".postquery"
	FileName        = "config.yaml"
	ProjectFileName = ".postquery.yaml"
	EnvFileName     = ".env"
)

// Output formats accepted by Output.DefaultFormat.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatPlain = "plain"
)

// Defaults.
const (
	DefaultGCTime       = 5 * time.Minute
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
	DefaultOutputFormat = FormatTable
)

const (
	configFileMode = 0o600
	configDirMode  = 0o750
)

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// ErrInvalidConfig is wrapped by every Validate failure.
const ErrInvalidConfig = constError("invalid configuration")

// Config is the full set of postquery settings.
type Config struct {
	Endpoint  string          `yaml:"endpoint" env:"POSTQUERY_ENDPOINT"`
	Transport TransportConfig `yaml:"transport"`
	Query     QueryConfig     `yaml:"query"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	path string
}

// TransportConfig configures the HTTP client.
type TransportConfig struct {
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout" env:"POSTQUERY_TIMEOUT"`
}

// QueryConfig configures the query cache.
type QueryConfig struct {
	StaleTime time.Duration `yaml:"stale_time" env:"POSTQUERY_STALE_TIME"`
	GCTime    time.Duration `yaml:"gc_time" env:"POSTQUERY_GC_TIME"`
}

// OutputConfig configures non-interactive output.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format" env:"POSTQUERY_OUTPUT"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"POSTQUERY_LOG_LEVEL"`
	Format string `yaml:"format" env:"POSTQUERY_LOG_FORMAT"`
	File   string `yaml:"file" env:"POSTQUERY_LOG_FILE"`
}

// TelemetryConfig configures OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled" env:"POSTQUERY_OTEL_ENABLED"`
	Endpoint string `yaml:"endpoint" env:"POSTQUERY_OTEL_ENDPOINT"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Endpoint: transport.DefaultEndpoint,
		Query: QueryConfig{
			GCTime: DefaultGCTime,
		},
		Output: OutputConfig{
			DefaultFormat: DefaultOutputFormat,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Validate checks the configuration for values the rest of the program
// cannot use.
func (c *Config) Validate() error {
	if err := transport.ValidateEndpoint(c.Endpoint); err != nil {
		return fmt.Errorf("%w: endpoint: %w", ErrInvalidConfig, err)
	}

	durations := []struct {
		name  string
		value time.Duration
	}{
		{"transport.timeout", c.Transport.Timeout},
		{"query.stale_time", c.Query.StaleTime},
		{"query.gc_time", c.Query.GCTime},
	}
	for _, d := range durations {
		if d.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %s", ErrInvalidConfig, d.name, d.value)
		}
	}

	switch c.Output.DefaultFormat {
	case FormatTable, FormatJSON, FormatPlain:
	default:
		return fmt.Errorf("%w: output.default_format %q", ErrInvalidConfig, c.Output.DefaultFormat)
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: logging.format %q", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return fmt.Errorf("%w: telemetry.endpoint is required when telemetry is enabled", ErrInvalidConfig)
	}

	return nil
}

// Save writes the configuration as YAML to path, creating the parent
// directory when needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err = os.WriteFile(path, data, configFileMode); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	c.path = path
	return nil
}

// DefaultPath returns ~/.postquery/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, DirName, FileName), nil
}

// readFile unmarshals a full YAML document onto c.
func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	c.path = path
	return nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("cannot access %s: %w", path, err)
	}
}
