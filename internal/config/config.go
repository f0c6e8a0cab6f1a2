// Package config provides configuration types and defaults for camel.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/camel/internal/log"
	"github.com/zjrosen/camel/internal/tracing"
)

// ErrConfigExists is returned by WriteDefaultConfig when the target exists.
var ErrConfigExists = errors.New("config file already exists")

// Config holds all configuration options for camel.
type Config struct {
	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"` // empty => stderr when debug is on

	// Indent is the number of spaces per nesting level in dumped documents.
	Indent int `mapstructure:"indent"`

	// DocumentEndMarker closes single-line scalar documents with "...".
	DocumentEndMarker bool `mapstructure:"document_end_marker"`

	Registries RegistriesConfig `mapstructure:"registries"`
	Tracing    tracing.Config   `mapstructure:"tracing"`
}

// RegistriesConfig selects the built-in registries composed into the codec.
// The standard registry is always present.
type RegistriesConfig struct {
	Extended bool `mapstructure:"extended"`
}

// DefaultTracesFilePath returns ~/.config/camel/traces/traces.jsonl, or an
// empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "camel", "traces", "traces.jsonl")
}

// DefaultConfigPath returns ~/.config/camel/config.yaml, or an empty string
// if the home directory is unavailable.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "camel", "config.yaml")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Indent:            2,
		DocumentEndMarker: true,
		Registries: RegistriesConfig{
			Extended: true,
		},
		Tracing: tracing.Config{
			Enabled:      false,
			Exporter:     tracing.ExporterFile,
			FilePath:     "", // derived from the home directory at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Indent < 2 || c.Indent > 9 {
		return fmt.Errorf("indent must be between 2 and 9, got %d", c.Indent)
	}
	return ValidateTracing(c.Tracing)
}

func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled {
		if t.Exporter == tracing.ExporterFile && t.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# camel configuration

# Write debug logs (also enabled by CAMEL_DEBUG=1)
debug: false
# log_file: /tmp/camel.log   # default: stderr

# Spaces per nesting level in dumped documents (2-9)
indent: 2

# Close single-line scalar documents with "..."
document_end_marker: true

registries:
  # Also load and dump !!tuple, !!complex, !!frozenset and !!namespace
  extended: true

# OpenTelemetry spans for dump and load
tracing:
  enabled: false
  exporter: file              # none, file, stdout, otlp
  # file_path: ~/.config/camel/traces/traces.jsonl
  otlp_endpoint: localhost:4317
  sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at configPath holding the
// commented template. An existing file is left alone and ErrConfigExists is
// returned.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, configPath)
	}

	if err := WriteFileAtomic(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return err
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
