package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/internal/domain/seasonal"
)

func newAdjustCmd() *cobra.Command {
	var (
		baseline model.DayRange
		date     string
	)
	cmd := &cobra.Command{
		Use:     "adjust",
		Short:   "Apply seasonal and weekend factors to a day range",
		Example: "  scorectl adjust --min 5 --avg 10 --max 24 --date 2026-11-14",
		RunE: func(cmd *cobra.Command, _ []string) error {
			when := time.Now()
			if date != "" {
				t, err := time.Parse(time.DateOnly, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				when = t
			}
			return printJSON(cmd.OutOrStdout(), seasonal.NewAdjuster().Explain(baseline, when))
		},
	}
	cmd.Flags().Float64Var(&baseline.Min, "min", 0, "Baseline minimum days")
	cmd.Flags().Float64Var(&baseline.Avg, "avg", 0, "Baseline average days")
	cmd.Flags().Float64Var(&baseline.Max, "max", 0, "Baseline maximum days")
	cmd.Flags().StringVar(&date, "date", "", "Calendar date as YYYY-MM-DD (default today)")
	return cmd
}
