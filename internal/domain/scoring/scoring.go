// Package scoring combines weighted sub-scores into one 0-100 composite.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
)

const (
	minScore                = 0
	maxScore                = 100
	defaultQualityThreshold = 70
)

// Built-in profile names.
const (
	ProfileApplicationQuality = "application_quality"
	ProfileJobCompetitiveness = "job_competitiveness"
	ProfileResumeQuality      = "resume_quality"
)

// DefaultProfiles returns the built-in weight vectors.
func DefaultProfiles() map[string]map[string]float64 {
	return map[string]map[string]float64{
		ProfileApplicationQuality: {
			"skills":     40,
			"experience": 35,
			"education":  25,
		},
		ProfileJobCompetitiveness: {
			"skills_match":     35,
			"experience_match": 30,
			"education_match":  15,
			"market_demand":    20,
		},
		ProfileResumeQuality: {
			"content":    30,
			"formatting": 20,
			"keywords":   25,
			"impact":     25,
		},
	}
}

// Combiner is the weighted score combiner. It is safe for concurrent use
// once constructed.
type Combiner struct {
	profiles  map[string]map[string]float64
	threshold int
	now       func() time.Time
}

// NewCombiner creates a combiner with the built-in profiles.
func NewCombiner(opts ...Option) *Combiner {
	c := &Combiner{
		profiles:  DefaultProfiles(),
		threshold: defaultQualityThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Combine computes round(Σ value·weight / Σ weight) over present inputs.
// Absent inputs drop out of both sums. Any out-of-range value or invalid
// weight rejects the whole call.
func (c *Combiner) Combine(inputs []model.ScoreInput) (model.CompositeScore, error) {
	const op = "scoring.combine"

	if err := validate(op, inputs); err != nil {
		return model.CompositeScore{}, err
	}

	var maxWeight float64
	for _, in := range inputs {
		if in.Present() {
			maxWeight = max(maxWeight, in.Weight)
		}
	}
	if maxWeight <= 0 {
		return model.CompositeScore{}, errs.NewKind(op, errs.ErrInsufficientData)
	}

	// Weights are scaled by a power of two below the largest one so finite
	// inputs never overflow the sums. The scaling is exact.
	_, exp := math.Frexp(maxWeight)
	var weighted, totalWeight float64
	for _, in := range inputs {
		if !in.Present() {
			continue
		}
		w := math.Ldexp(in.Weight, -exp)
		weighted += *in.Value * w
		totalWeight += w
	}

	overall := int(math.Round(weighted / totalWeight))
	overall = max(minScore, min(maxScore, overall))

	components := make([]model.ScoreInput, len(inputs))
	copy(components, inputs)

	return model.CompositeScore{
		Overall:    overall,
		Components: components,
		ComputedAt: c.now(),
	}, nil
}

// CombineProfile combines values against a named weight profile. Profile
// components missing from values are treated as absent.
func (c *Combiner) CombineProfile(profile string, values map[string]*float64) (model.CompositeScore, error) {
	const op = "scoring.combine_profile"

	inputs, err := c.ProfileInputs(profile, values)
	if err != nil {
		return model.CompositeScore{}, err
	}
	score, err := c.Combine(inputs)
	if err != nil {
		return model.CompositeScore{}, errs.Wrap(op, err)
	}
	score.Kind = profile
	return score, nil
}

// ProfileInputs expands values into inputs ordered by component name.
func (c *Combiner) ProfileInputs(profile string, values map[string]*float64) ([]model.ScoreInput, error) {
	const op = "scoring.profile_inputs"

	weights, ok := c.profiles[profile]
	if !ok {
		return nil, errs.Invalid(op, fmt.Sprintf("unknown profile %q", profile))
	}
	for name := range values {
		if _, known := weights[name]; !known {
			return nil, errs.Invalid(op, fmt.Sprintf("component %q is not part of profile %q", name, profile))
		}
	}

	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	inputs := make([]model.ScoreInput, 0, len(names))
	for _, name := range names {
		inputs = append(inputs, model.ScoreInput{Name: name, Value: values[name], Weight: weights[name]})
	}
	return inputs, nil
}

// HasProfile reports whether a profile is configured.
func (c *Combiner) HasProfile(profile string) bool {
	_, ok := c.profiles[profile]
	return ok
}

// Profiles returns the configured profile names, sorted.
func (c *Combiner) Profiles() []string {
	names := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MeetsThreshold reports whether a score reaches the quality threshold.
func (c *Combiner) MeetsThreshold(score model.CompositeScore) bool {
	return score.Overall >= c.threshold
}

// Threshold returns the configured quality threshold.
func (c *Combiner) Threshold() int { return c.threshold }

func validate(op string, inputs []model.ScoreInput) error {
	for _, in := range inputs {
		if math.IsNaN(in.Weight) || math.IsInf(in.Weight, 0) || in.Weight < 0 {
			return errs.Invalid(op, fmt.Sprintf("component %q: weight %v must be a finite number >= 0", in.Name, in.Weight))
		}
		if !in.Present() {
			continue
		}
		v := *in.Value
		if math.IsNaN(v) || v < minScore || v > maxScore {
			return errs.Invalid(op, fmt.Sprintf("component %q: value %v outside [0,100]", in.Name, v))
		}
	}
	return nil
}
