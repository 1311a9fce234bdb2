package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	service "github.com/okian/gigmatch/internal/app"
	"github.com/okian/gigmatch/internal/domain/model"
)

type matchOutput struct {
	GigID            string              `json:"gig_id"`
	Matches          []model.MatchResult `json:"matches"`
	TotalMatches     int                 `json:"total_matches"`
	AlgorithmUsed    model.Algorithm     `json:"algorithm_used"`
	ProcessingTimeMs float64             `json:"processing_time_ms"`
}

func newMatchCmd() *cobra.Command {
	var (
		limit int
		useAI bool
	)
	cmd := &cobra.Command{
		Use:   "match <gig-id>",
		Short: "Rank talents for one gig and print the results as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.Context(), cmd.OutOrStdout(), args[0], limit, useAI)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of matches to keep (defaults to matching.default_limit)")
	cmd.Flags().BoolVar(&useAI, "ai", false, "Use the semantic portfolio scorer")
	return cmd
}

func runMatch(ctx context.Context, out io.Writer, gigID string, limit int, useAI bool) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	if limit == 0 {
		limit = cfg.Matching.DefaultLimit
	}
	if limit > cfg.Matching.MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", cfg.Matching.MaxLimit)
	}

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close(context.WithoutCancel(ctx)) }()

	start := time.Now()
	results, err := svc.FindMatches(ctx, gigID, limit, useAI)
	if err != nil {
		return err
	}

	algorithm := model.AlgorithmRuleBased
	if useAI {
		algorithm = model.AlgorithmEnhanced
	}
	if results == nil {
		results = []model.MatchResult{}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(matchOutput{
		GigID:            gigID,
		Matches:          results,
		TotalMatches:     len(results),
		AlgorithmUsed:    algorithm,
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	})
}
