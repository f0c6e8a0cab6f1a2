package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/camel/internal/tracing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, 2, cfg.Indent)
	require.True(t, cfg.DocumentEndMarker)
	require.True(t, cfg.Registries.Extended)
	require.False(t, cfg.Tracing.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestValidate_Indent(t *testing.T) {
	for _, indent := range []int{0, 1, 10} {
		cfg := Defaults()
		cfg.Indent = indent
		require.Error(t, cfg.Validate(), "indent %d", indent)
	}
	cfg := Defaults()
	cfg.Indent = 9
	require.NoError(t, cfg.Validate())
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		cfg     tracing.Config
		wantErr string
	}{
		{name: "defaults", cfg: Defaults().Tracing},
		{name: "sample rate low", cfg: tracing.Config{SampleRate: -0.1}, wantErr: "sample_rate"},
		{name: "sample rate high", cfg: tracing.Config{SampleRate: 1.5}, wantErr: "sample_rate"},
		{name: "bad exporter", cfg: tracing.Config{Exporter: "jaeger"}, wantErr: "tracing.exporter"},
		{name: "file needs path", cfg: tracing.Config{Enabled: true, Exporter: "file"}, wantErr: "file_path"},
		{name: "otlp needs endpoint", cfg: tracing.Config{Enabled: true, Exporter: "otlp"}, wantErr: "otlp_endpoint"},
		{name: "disabled file without path", cfg: tracing.Config{Exporter: "file"}},
		{name: "stdout", cfg: tracing.Config{Enabled: true, Exporter: "stdout", SampleRate: 0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefaultConfigTemplate_MatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	want := Defaults()
	require.Equal(t, want.Indent, cfg.Indent)
	require.Equal(t, want.DocumentEndMarker, cfg.DocumentEndMarker)
	require.Equal(t, want.Registries, cfg.Registries)
	require.Equal(t, want.Tracing.Exporter, cfg.Tracing.Exporter)
	require.Equal(t, want.Tracing.SampleRate, cfg.Tracing.SampleRate)
	require.Equal(t, want.Tracing.OTLPEndpoint, cfg.Tracing.OTLPEndpoint)
}

func TestDefaultConfigTemplate_IsValidYAML(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &doc))
	require.Contains(t, doc, "tracing")
	require.Contains(t, doc, "registries")
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfigTemplate(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	err = WriteDefaultConfig(path)
	require.ErrorIs(t, err, ErrConfigExists)
}

func TestDefaultPaths(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	require.True(t, strings.HasSuffix(DefaultConfigPath(), filepath.Join(".config", "camel", "config.yaml")))
	require.True(t, strings.HasSuffix(DefaultTracesFilePath(), filepath.Join("camel", "traces", "traces.jsonl")))
}
