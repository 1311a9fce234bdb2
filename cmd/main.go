// Package main is the gigmatch command line: the HTTP server plus one-shot
// matching and seeding tools.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/gigmatch/internal/config"
	"github.com/okian/gigmatch/pkg/logger"
)

var configPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gigmatch",
		Short:         "Talent to gig matching engine",
		Long:          "gigmatch scores creative talents against gig requirements, keeps the best candidates per gig and serves the rankings over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (overrides GIGMATCH_CONFIG)")

	root.AddCommand(newServeCmd(), newMatchCmd(), newSeedCmd())
	return root
}

// setup loads the config and applies its logging settings.
func setup(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON), logger.WithOutput(os.Stderr)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
