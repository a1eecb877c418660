package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/careerpulse/internal/domain/percentile"
)

func newRankCmd() *cobra.Command {
	var (
		population []float64
		value      float64
	)
	cmd := &cobra.Command{
		Use:     "rank",
		Short:   "Rank a value against a population",
		Long:    "Rank reports the share of the population strictly below the value, rounded to a whole percent, with the population mean and max.",
		Example: "  scorectl rank --population 40,55,70,70,90 --value 70",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), percentile.Rank(population, value))
		},
	}
	cmd.Flags().Float64SliceVar(&population, "population", nil, "Comma-separated population values")
	cmd.Flags().Float64Var(&value, "value", 0, "Value to rank")
	return cmd
}
