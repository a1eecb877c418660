package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/careerpulse/internal/domain/engagement"
)

func newEngagementCmd() *cobra.Command {
	var c engagement.Counts
	cmd := &cobra.Command{
		Use:     "engagement",
		Short:   "Score pre-aggregated activity counts",
		Example: "  scorectl engagement --jobs 2 --minutes 90 --materials 1 --active-days 3",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), engagement.NewScorer().ScoreCounts(c))
		},
	}
	cmd.Flags().Float64Var(&c.JobsAdded, "jobs", 0, "Jobs added in the window")
	cmd.Flags().Float64Var(&c.MinutesTracked, "minutes", 0, "Minutes tracked in the window")
	cmd.Flags().Float64Var(&c.MaterialsUpdated, "materials", 0, "Materials updated in the window")
	cmd.Flags().IntVar(&c.ActiveDays, "active-days", 0, "Distinct days with activity")
	cmd.Flags().IntVar(&c.WindowDays, "window", 30, "Window length in days")
	return cmd
}
