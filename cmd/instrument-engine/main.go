// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the instrument-engine CLI. It
// validates Instrument Definitions and Assessment Documents, reconciles
// parallel Entries, and runs Calculation Sets over local files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/prometheusresearch/baseline-codebase-sub000/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// cfg and logger are loaded before any subcommand runs.
var (
	cfg    types.EngineConfig
	logger = zap.NewNop()
)

// rootCmd is the base command for the instrument-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "instrument-engine",
	Short: "Validate, reconcile and calculate instrument data",
	Long: `instrument-engine works on data-capture instruments stored as YAML or
JSON files. It validates Instrument Definitions and the Assessment Documents
that answer them, reports where parallel Entries disagree, merges them into
one resolved document, and runs Calculation Sets over completed data.

Every subcommand reads files and writes its result to stdout; nothing is
persisted.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.Format != types.OutputJSON && cfg.Format != types.OutputYAML {
			return fmt.Errorf("loading config: unknown format %q", cfg.Format)
		}
		l, err := newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./instrument-engine.yaml or ~/.config/instrument-engine/instrument-engine.yaml)")
	rootCmd.PersistentFlags().String("format", string(types.OutputJSON), "output format: json or yaml")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.SetDefault("calculation.query_store.path", ":memory:")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("instrument-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "instrument-engine"))
		}
	}

	viper.SetEnvPrefix("INSTRUMENT_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func newLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	l, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return l, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
