package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	service "github.com/okian/gigmatch/internal/app"
	"github.com/okian/gigmatch/internal/seed"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled sample talents and gigs into the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runSeed(ctx context.Context, out io.Writer) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	// loaded explicitly below
	cfg.Store.Seed = false

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close(context.WithoutCancel(ctx)) }()

	talents, gigs, err := seed.Load(ctx, svc.Store())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "seeded %d talents and %d gigs into the %s store\n", talents, gigs, cfg.Store.Backend)
	return err
}
