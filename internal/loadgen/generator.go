package loadgen

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"

	"github.com/okian/careerpulse/internal/domain/scoring"
)

// scoreRequest mirrors the body of POST /scores.
type scoreRequest struct {
	AnalysisID string              `json:"analysis_id"`
	SubjectID  string              `json:"subject_id"`
	Profile    string              `json:"profile"`
	Values     map[string]*float64 `json:"values"`
}

// activityRequest mirrors the body of POST /activity.
type activityRequest struct {
	SubjectID string  `json:"subject_id"`
	Kind      string  `json:"kind"`
	Quantity  float64 `json:"quantity,omitempty"`
}

// componentNames returns the sorted components of a built-in profile.
func componentNames(profile string) ([]string, error) {
	weights, ok := scoring.DefaultProfiles()[profile]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", profile)
	}
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// plan is the traffic of one run: first-time analyses, resubmissions and
// one activity event per subject.
type plan struct {
	subjects   []string
	analyses   []scoreRequest
	replays    []scoreRequest
	activities []activityRequest
}

func generate(cfg Config) (plan, error) {
	names, err := componentNames(cfg.Profile)
	if err != nil {
		return plan{}, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1))

	p := plan{subjects: make([]string, cfg.Subjects)}
	for i := range p.subjects {
		subject := uuid.NewString()
		p.subjects[i] = subject
		for j := 0; j < cfg.AnalysesPerSubject; j++ {
			values := make(map[string]*float64, len(names))
			for _, name := range names {
				// Roughly one in ten components is left absent.
				if rng.IntN(10) == 0 {
					values[name] = nil
					continue
				}
				v := float64(rng.IntN(101))
				values[name] = &v
			}
			// Keep at least one component present.
			if values[names[0]] == nil {
				v := float64(rng.IntN(101))
				values[names[0]] = &v
			}
			p.analyses = append(p.analyses, scoreRequest{
				AnalysisID: uuid.NewString(),
				SubjectID:  subject,
				Profile:    cfg.Profile,
				Values:     values,
			})
		}
		p.activities = append(p.activities, activityRequest{
			SubjectID: subject,
			Kind:      "time_tracked",
			Quantity:  float64(15 + rng.IntN(120)),
		})
	}

	replays := int(float64(len(p.analyses)) * cfg.DuplicateRatio)
	for _, i := range rng.Perm(len(p.analyses))[:replays] {
		p.replays = append(p.replays, p.analyses[i])
	}
	return p, nil
}
