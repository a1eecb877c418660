package engagement

// Option configures a Scorer.
type Option func(*Scorer)

// WithWindowDays sets the trailing window length. Non-positive values are ignored.
func WithWindowDays(days int) Option {
	return func(s *Scorer) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithFrequencyWeight sets the multiplier applied to activity frequency.
func WithFrequencyWeight(w float64) Option {
	return func(s *Scorer) {
		if w >= 0 {
			s.frequencyWeight = w
		}
	}
}

// WithJobBonus sets the points per job added and their cap.
func WithJobBonus(perJob, limit float64) Option {
	return func(s *Scorer) {
		if perJob >= 0 && limit >= 0 {
			s.pointsPerJob = perJob
			s.jobCap = limit
		}
	}
}

// WithTimeBonus sets how many tracked minutes earn one point and the cap.
func WithTimeBonus(minutesPerPoint, limit float64) Option {
	return func(s *Scorer) {
		if minutesPerPoint > 0 && limit >= 0 {
			s.minutesPerPoint = minutesPerPoint
			s.timeCap = limit
		}
	}
}

// WithMaterialBonus sets the points per material update and their cap.
func WithMaterialBonus(perMaterial, limit float64) Option {
	return func(s *Scorer) {
		if perMaterial >= 0 && limit >= 0 {
			s.pointsPerMaterial = perMaterial
			s.materialCap = limit
		}
	}
}

// WithTrendThresholds sets the low (inclusive) and high (exclusive) trend
// boundaries. The pair is ignored unless low < high.
func WithTrendThresholds(lowAtOrBelow, highAbove int) Option {
	return func(s *Scorer) {
		if lowAtOrBelow < highAbove {
			s.lowAtOrBelow = lowAtOrBelow
			s.highAbove = highAbove
		}
	}
}

// WithSources sets the activity sources read by ScoreSubject.
func WithSources(sources ...ActivitySource) Option {
	return func(s *Scorer) {
		for _, src := range sources {
			if src != nil {
				s.sources = append(s.sources, src)
			}
		}
	}
}

// WithSnapshotStore persists every subject-level result.
func WithSnapshotStore(store SnapshotStore) Option {
	return func(s *Scorer) {
		s.snapshots = store
	}
}
