// Package seasonal adjusts day-count estimates for calendar context.
package seasonal

import (
	"math"
	"time"

	"github.com/okian/careerpulse/internal/domain/model"
)

// Default multipliers.
const (
	defaultHolidayFactor = 1.30
	defaultFiscalFactor  = 1.15
	defaultWeekendFactor = 1.10
	regularFactor        = 1.0
)

// Season labels reported in adjustments.
const (
	SeasonHoliday = "holiday"
	SeasonFiscal  = "fiscal"
	SeasonRegular = "regular"
)

// Adjustment is an adjusted estimate together with the factors applied.
type Adjustment struct {
	Estimate      model.DayEstimate `json:"estimate"`
	Season        string            `json:"season"`
	MonthFactor   float64           `json:"month_factor"`
	WeekendFactor float64           `json:"weekend_factor"`
}

// Adjuster applies month and weekend multipliers. It holds no mutable state.
type Adjuster struct {
	holiday float64
	fiscal  float64
	weekend float64
}

// NewAdjuster creates an adjuster with the default multipliers.
func NewAdjuster(opts ...Option) *Adjuster {
	a := &Adjuster{
		holiday: defaultHolidayFactor,
		fiscal:  defaultFiscalFactor,
		weekend: defaultWeekendFactor,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adjust scales baseline for the calendar date of when and rounds to whole days.
func (a *Adjuster) Adjust(baseline model.DayRange, when time.Time) model.DayEstimate {
	return a.Explain(baseline, when).Estimate
}

// Explain is Adjust plus the factors that produced the estimate. The weekend
// factor applies to avg and max only; min moves with the month factor alone.
func (a *Adjuster) Explain(baseline model.DayRange, when time.Time) Adjustment {
	season, month := a.monthFactor(when.Month())
	weekend := regularFactor
	if wd := when.Weekday(); wd == time.Saturday || wd == time.Sunday {
		weekend = a.weekend
	}
	return Adjustment{
		Estimate: model.DayEstimate{
			Min: roundDays(baseline.Min * month),
			Avg: roundDays(baseline.Avg * month * weekend),
			Max: roundDays(baseline.Max * month * weekend),
		},
		Season:        season,
		MonthFactor:   month,
		WeekendFactor: weekend,
	}
}

func (a *Adjuster) monthFactor(m time.Month) (string, float64) {
	switch m {
	case time.July, time.August, time.November, time.December:
		return SeasonHoliday, a.holiday
	case time.March, time.September:
		return SeasonFiscal, a.fiscal
	default:
		return SeasonRegular, regularFactor
	}
}

func roundDays(x float64) int {
	return int(math.Round(x))
}
