package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/careerpulse/internal/domain/model"
	"github.com/okian/careerpulse/internal/domain/scoring"
)

func newCombineCmd() *cobra.Command {
	var (
		inputs  []string
		profile string
	)
	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Combine weighted sub-scores into an overall score",
		Long: `Combine weighted 0-100 sub-scores into a composite score.

Inputs are name=value:weight. An empty value or "-" marks the sub-score as
absent; its weight is then dropped from the total. With --profile, inputs are
name=value and weights come from the named profile.`,
		Example: "  scorectl combine --input skills=80:40 --input experience=75:35 --input education=-:25",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := scoring.NewCombiner()
			var (
				score model.CompositeScore
				err   error
			)
			if profile != "" {
				values, perr := parseProfileValues(inputs)
				if perr != nil {
					return perr
				}
				score, err = c.CombineProfile(profile, values)
			} else {
				parsed, perr := parseInputs(inputs)
				if perr != nil {
					return perr
				}
				score, err = c.Combine(parsed)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), struct {
				Overall        int                `json:"overall"`
				Kind           string             `json:"kind,omitempty"`
				MeetsThreshold bool               `json:"meets_threshold"`
				Components     []model.ScoreInput `json:"components"`
			}{score.Overall, score.Kind, c.MeetsThreshold(score), score.Components})
		},
	}
	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "Sub-score as name=value:weight (repeatable)")
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Weight profile name; inputs become name=value")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		panic(fmt.Sprintf("failed to mark input flag as required: %v", err))
	}
	return cmd
}

// parseInputs parses name=value:weight entries.
func parseInputs(raw []string) ([]model.ScoreInput, error) {
	out := make([]model.ScoreInput, 0, len(raw))
	for _, entry := range raw {
		name, rest, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("input %q: expected name=value:weight", entry)
		}
		valueStr, weightStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("input %q: missing weight", entry)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(weightStr), 64)
		if err != nil {
			return nil, fmt.Errorf("input %q: invalid weight: %w", entry, err)
		}
		value, err := parseValue(valueStr)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", entry, err)
		}
		out = append(out, model.ScoreInput{Name: strings.TrimSpace(name), Value: value, Weight: weight})
	}
	return out, nil
}

// parseProfileValues parses name=value entries for a profile.
func parseProfileValues(raw []string) (map[string]*float64, error) {
	out := make(map[string]*float64, len(raw))
	for _, entry := range raw {
		name, valueStr, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("input %q: expected name=value", entry)
		}
		value, err := parseValue(valueStr)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", entry, err)
		}
		out[strings.TrimSpace(name)] = value
	}
	return out, nil
}

func parseValue(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value: %w", err)
	}
	return &v, nil
}
