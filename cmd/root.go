package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/camel/internal/codec"
	"github.com/zjrosen/camel/internal/config"
	"github.com/zjrosen/camel/internal/log"
	"github.com/zjrosen/camel/internal/registry"
	"github.com/zjrosen/camel/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	configErr  error
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "camel",
	Short: "Versioned YAML tags for Go values",
	Long: `camel loads and dumps YAML documents whose custom tags carry a schema
version, e.g. !table;2. It normalizes, checks and inspects such documents
using the standard and extended tag registries.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/camel/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "write debug logs (also CAMEL_DEBUG=1)")
	rootCmd.PersistentFlags().Bool("extended", true, "compose the extended registry (tuple, complex, frozenset, namespace)")
	rootCmd.PersistentFlags().Int("indent", 2, "spaces per nesting level in dumped documents")
}

func initConfig() {
	viper.SetEnvPrefix("camel")
	_ = viper.BindEnv("debug")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("registries.extended", rootCmd.PersistentFlags().Lookup("extended"))
	_ = viper.BindPFlag("indent", rootCmd.PersistentFlags().Lookup("indent"))

	defaults := config.Defaults()
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("indent", defaults.Indent)
	viper.SetDefault("document_end_marker", defaults.DocumentEndMarker)
	viper.SetDefault("registries.extended", defaults.Registries.Extended)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .camel/config.yaml (current directory)
		// 2. ~/.config/camel/config.yaml (user config)
		if _, err := os.Stat(".camel/config.yaml"); err == nil {
			viper.SetConfigFile(".camel/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "camel"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		// A missing default config is fine: defaults and flags apply.
		// An explicit --config must exist and parse.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = fmt.Errorf("reading config: %w", err)
		}
	}

	cfg = config.Defaults()
	if err := viper.Unmarshal(&cfg); err != nil && configErr == nil {
		configErr = fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return configErr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Debug {
		if cfg.LogFile != "" {
			cleanup, err := log.Init(cfg.LogFile)
			if err != nil {
				return err
			}
			logCleanup = cleanup
		} else {
			log.InitWriter(cmd.ErrOrStderr())
		}
	}
	log.Debug(log.CatCLI, "command started", "command", cmd.CommandPath(), "config", viper.ConfigFileUsed())
	return nil
}

// newCodec builds the codec described by the loaded configuration. The
// returned shutdown flushes any traces.
func newCodec() (*codec.Codec, func(context.Context) error, error) {
	tcfg := cfg.Tracing
	if tcfg.ServiceName == "" {
		tcfg.ServiceName = tracing.DefaultConfig().ServiceName
	}
	provider, err := tracing.NewProvider(tcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("starting tracing: %w", err)
	}

	var regs []*registry.Registry
	if cfg.Registries.Extended {
		regs = append(regs, codec.ExtendedTypes)
	}

	opts := []codec.Option{
		codec.WithIndent(cfg.Indent),
		codec.WithTracer(provider.Tracer()),
	}
	if !cfg.DocumentEndMarker {
		opts = append(opts, codec.WithoutDocumentEndMarker())
	}
	return codec.New(regs, opts...), provider.Shutdown, nil
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
