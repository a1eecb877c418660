package scoring

import "time"

// Option applies a configuration option to the Combiner.
type Option func(*Combiner)

// WithProfilesFromConfig replaces the named weight profiles. Profiles with no
// positive weight are skipped.
func WithProfilesFromConfig(profiles map[string]map[string]float64) Option {
	return func(c *Combiner) {
		if len(profiles) == 0 {
			return
		}
		c.profiles = make(map[string]map[string]float64, len(profiles))
		for name, weights := range profiles {
			cp := make(map[string]float64, len(weights))
			positive := false
			for component, w := range weights {
				cp[component] = w
				if w > 0 {
					positive = true
				}
			}
			if positive {
				c.profiles[name] = cp
			}
		}
	}
}

// WithQualityThreshold sets the score at or above which a result passes.
func WithQualityThreshold(threshold int) Option {
	return func(c *Combiner) {
		if threshold >= 0 && threshold <= maxScore {
			c.threshold = threshold
		}
	}
}

// WithClock sets the time source for ComputedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Combiner) {
		if now != nil {
			c.now = now
		}
	}
}
