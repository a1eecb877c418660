package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/careerpulse/internal/loadgen"
)

func newLoadgenCmd() *cobra.Command {
	var cfg loadgen.Config
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive synthetic traffic against a running server and verify it",
		Long: `Loadgen scores synthetic analyses for random subjects, resubmits a share of
them to exercise idempotency, records one activity event per subject and then
checks every stored history and engagement report.`,
		Example: "  scorectl loadgen --url http://localhost:9080 --subjects 200 --analyses 5 --duplicates 0.1",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadgen.Run(cmd.Context(), cfg)
			if perr := printJSON(cmd.OutOrStdout(), stats); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	cmd.Flags().IntVar(&cfg.Subjects, "subjects", 50, "Number of synthetic subjects")
	cmd.Flags().IntVar(&cfg.AnalysesPerSubject, "analyses", 5, "Analyses scored per subject")
	cmd.Flags().Float64Var(&cfg.DuplicateRatio, "duplicates", 0.1, "Share of analyses submitted twice, 0..1")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 8, "Concurrent requests")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "HTTP request timeout")
	cmd.Flags().StringVar(&cfg.Profile, "profile", "application_quality", "Weight profile for every analysis")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 0, "Random seed (0 picks one from the clock)")
	return cmd
}
