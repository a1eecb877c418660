package loadgen

import (
	"context"
	"fmt"
	"net/http"
)

// storedScore is the subset of a stored score the verifier reads.
type storedScore struct {
	ID      string `json:"id"`
	Overall int    `json:"overall"`
}

type engagementReport struct {
	ActiveDays int `json:"active_days"`
}

// verify checks that every subject holds exactly one score per analysis and
// that its activity shows up in engagement. It returns the number of
// subjects that passed.
func verify(ctx context.Context, c *client, cfg Config, p plan) (int, error) {
	verified := 0
	for _, subject := range p.subjects {
		var history []storedScore
		status, err := c.getJSON(ctx, subjectPath("/scores/", subject)+"?kind="+cfg.Profile, &history)
		if err != nil {
			return verified, err
		}
		if status != http.StatusOK {
			return verified, fmt.Errorf("%w: history of %s answered %d", ErrVerification, subject, status)
		}
		if len(history) != cfg.AnalysesPerSubject {
			return verified, fmt.Errorf("%w: %s holds %d scores, want %d",
				ErrVerification, subject, len(history), cfg.AnalysesPerSubject)
		}
		for _, s := range history {
			if s.Overall < 0 || s.Overall > 100 {
				return verified, fmt.Errorf("%w: score %s out of range: %d", ErrVerification, s.ID, s.Overall)
			}
		}

		var eng engagementReport
		status, err = c.getJSON(ctx, subjectPath("/engagement/", subject), &eng)
		if err != nil {
			return verified, err
		}
		if status != http.StatusOK || eng.ActiveDays != 1 {
			return verified, fmt.Errorf("%w: engagement of %s answered %d with %d active days",
				ErrVerification, subject, status, eng.ActiveDays)
		}
		verified++
	}
	return verified, nil
}
