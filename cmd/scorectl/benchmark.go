package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/careerpulse/internal/adapters/repository"
	"github.com/okian/careerpulse/internal/domain/benchmark"
	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/pkg/logger"
)

func newBenchmarkCmd() *cobra.Command {
	var (
		file string
		key  model.BenchmarkContext
	)
	cmd := &cobra.Command{
		Use:     "benchmark",
		Short:   "Resolve a benchmark from a YAML table",
		Example: "  scorectl benchmark --file benchmarks.yaml --industry technology --company-size large --level senior",
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := repository.LoadBenchmarkTable(file)
			if err != nil {
				return err
			}
			r := benchmark.NewResolver(table, benchmark.WithLogger(logger.Named("benchmark")))
			b := r.Resolve(cmd.Context(), key)
			return printJSON(cmd.OutOrStdout(), struct {
				Benchmark  model.Benchmark `json:"benchmark"`
				Confidence int             `json:"confidence"`
			}{b, r.Confidence(b)})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the YAML benchmark table (required)")
	cmd.Flags().StringVar(&key.Industry, "industry", "", "Industry")
	cmd.Flags().StringVar(&key.CompanySize, "company-size", "", "Company size")
	cmd.Flags().StringVar(&key.Level, "level", "", "Role level")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	return cmd
}
