package seasonal

// Option applies a configuration option to the Adjuster.
type Option func(*Adjuster)

// WithHolidayFactor sets the multiplier for Jul, Aug, Nov and Dec.
func WithHolidayFactor(f float64) Option {
	return func(a *Adjuster) {
		if f > 0 {
			a.holiday = f
		}
	}
}

// WithFiscalFactor sets the multiplier for Mar and Sep.
func WithFiscalFactor(f float64) Option {
	return func(a *Adjuster) {
		if f > 0 {
			a.fiscal = f
		}
	}
}

// WithWeekendFactor sets the extra multiplier for Saturday and Sunday.
func WithWeekendFactor(f float64) Option {
	return func(a *Adjuster) {
		if f > 0 {
			a.weekend = f
		}
	}
}
