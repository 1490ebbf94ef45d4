// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the kol-analytics CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/kol-analytics/internal/metrics"
	"github.com/pdiddy/kol-analytics/internal/source"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built in PersistentPreRunE; it is a no-op until then.
var logger = zap.NewNop()

// rootCmd is the base command for the kol-analytics CLI.
var rootCmd = &cobra.Command{
	Use:   "kol-analytics",
	Short: "Query and summarize Key Opinion Leader data",
	Long: `kol-analytics loads Key Opinion Leader records from a remote KOL API,
falling back to a local bundle when the remote is unavailable, and answers
statistics and search queries over the loaded snapshot.

Run "serve" to expose the same data as an HTTP API, or use "stats", "query"
and "show" for one-off answers on the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = l
		if f := viper.ConfigFileUsed(); f != "" {
			logger.Debug("using config file", zap.String("path", f))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./kol-analytics.yaml or ~/.config/kol-analytics/kol-analytics.yaml)")
	flags.BoolP("verbose", "v", false, "enable debug logging")
	flags.String("source-url", "", "base URL of the remote KOL API (empty: local bundle only)")
	flags.String("fallback", "", "local bundle file, .json, .yaml or .db (default: embedded dataset)")
	flags.Duration("timeout", 0, "per-request timeout for the remote source (default 5s)")

	_ = viper.BindPFlag("source.base_url", flags.Lookup("source-url"))
	_ = viper.BindPFlag("source.fallback_path", flags.Lookup("fallback"))
	_ = viper.BindPFlag("source.timeout", flags.Lookup("timeout"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("kol-analytics")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "kol-analytics"))
		}
	}

	viper.SetEnvPrefix("KOL_ANALYTICS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("source.timeout", types.DefaultTimeout)
	viper.SetDefault("source.load_timeout", types.DefaultLoadTimeout)
	viper.SetDefault("source.max_retries", types.DefaultMaxRetries)
	viper.SetDefault("source.user_agent", types.DefaultUserAgent)
	viper.SetDefault("engine.top_countries", types.DefaultTopCountries)
	viper.SetDefault("engine.page_size", types.DefaultPageSize)
	viper.SetDefault("server.addr", types.DefaultAddr)
	viper.SetDefault("server.cors_origins", types.DefaultCORSOrigins)

	_ = viper.ReadInConfig()
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// loadConfig decodes viper's settings into the typed configuration.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("reading configuration: %w", err)
	}
	return cfg.WithDefaults(), nil
}

// newLoader wires the remote source (when configured), the fallback bundle
// and the metrics into a loader.
func newLoader(cfg types.Config, m *metrics.Metrics) *source.Loader {
	opts := source.Options{
		Fallback: source.NewBundle(cfg.Source.FallbackPath),
		Config:   cfg,
		Logger:   logger,
		Metrics:  m,
	}
	if cfg.Source.BaseURL != "" {
		opts.Remote = source.NewHTTPRemote(cfg.Source, logger)
	}
	return source.NewLoader(opts)
}

// loadOnce runs a single load cycle for the one-shot commands. A fatal
// cycle is an error; a fallback is reported on stderr.
func loadOnce(ctx context.Context) (types.Config, source.Outcome, error) {
	cfg, err := loadConfig()
	if err != nil {
		return types.Config{}, source.Outcome{}, err
	}
	out := newLoader(cfg, nil).Load(ctx)
	if out.Err != nil {
		return cfg, out, out.Err
	}
	if out.Status == source.StatusFallback && cfg.Source.BaseURL != "" {
		fmt.Fprintf(os.Stderr, "warning: remote source unavailable, using local data (%v)\n", out.Cause)
	}
	return cfg, out, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
