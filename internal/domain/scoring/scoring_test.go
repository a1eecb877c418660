package scoring_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/careerpulse/internal/domain/errs"
	"github.com/okian/careerpulse/internal/domain/model"
	scoring "github.com/okian/careerpulse/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr(v float64) *float64 { return &v }

func TestCombiner_Combine(t *testing.T) {
	Convey("Given a combiner with a fixed clock", t, func() {
		fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
		c := scoring.NewCombiner(scoring.WithClock(func() time.Time { return fixed }))

		Convey("When combining skills, experience and education", func() {
			score, err := c.Combine([]model.ScoreInput{
				model.Score("skills", 80, 40),
				model.Score("experience", 60, 35),
				model.Score("education", 90, 25),
			})

			Convey("Then the weighted average is rounded", func() {
				So(err, ShouldBeNil)
				So(score.Overall, ShouldEqual, 76) // 32 + 21 + 22.5
				So(score.ComputedAt, ShouldEqual, fixed)
				So(score.Components, ShouldHaveLength, 3)
			})
		})

		Convey("When weights do not sum to 100", func() {
			score, err := c.Combine([]model.ScoreInput{
				model.Score("a", 50, 1),
				model.Score("b", 100, 3),
			})

			Convey("Then the combiner renormalizes", func() {
				So(err, ShouldBeNil)
				So(score.Overall, ShouldEqual, 88) // 350 / 4 = 87.5
			})
		})

		Convey("When a sub-score is absent", func() {
			withAbsent, err := c.Combine([]model.ScoreInput{
				model.Score("skills", 80, 40),
				model.Score("experience", 60, 35),
				model.Absent("education", 25),
			})
			So(err, ShouldBeNil)

			withZero, err := c.Combine([]model.ScoreInput{
				model.Score("skills", 80, 40),
				model.Score("experience", 60, 35),
				model.Score("education", 0, 25),
			})
			So(err, ShouldBeNil)

			Convey("Then it drops out instead of counting as zero", func() {
				So(withAbsent.Overall, ShouldEqual, 71) // (3200 + 2100) / 75 = 70.67
				So(withZero.Overall, ShouldEqual, 53)   // 5300 / 100
				So(withAbsent.Overall, ShouldNotEqual, withZero.Overall)
			})
		})

		Convey("When every present input has zero weight", func() {
			_, err := c.Combine([]model.ScoreInput{
				model.Score("a", 50, 0),
				model.Absent("b", 10),
			})

			Convey("Then it reports insufficient data", func() {
				So(errors.Is(err, errs.ErrInsufficientData), ShouldBeTrue)
			})
		})

		Convey("When there are no inputs", func() {
			_, err := c.Combine(nil)
			So(errors.Is(err, errs.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("When a value is out of range", func() {
			_, errHigh := c.Combine([]model.ScoreInput{model.Score("a", 101, 1), model.Score("b", 50, 1)})
			_, errLow := c.Combine([]model.ScoreInput{model.Score("a", -1, 1)})
			_, errNaN := c.Combine([]model.ScoreInput{{Name: "a", Value: ptr(math.NaN()), Weight: 1}})

			Convey("Then the call is rejected rather than clamped", func() {
				So(errors.Is(errHigh, errs.ErrInvalidInput), ShouldBeTrue)
				So(errHigh.Error(), ShouldContainSubstring, `"a"`)
				So(errors.Is(errLow, errs.ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(errNaN, errs.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When a weight is negative or infinite", func() {
			_, errNeg := c.Combine([]model.ScoreInput{model.Score("a", 50, -1)})
			_, errInf := c.Combine([]model.ScoreInput{model.Score("a", 50, math.Inf(1))})

			Convey("Then the call is rejected", func() {
				So(errors.Is(errNeg, errs.ErrInvalidInput), ShouldBeTrue)
				So(errors.Is(errInf, errs.ErrInvalidInput), ShouldBeTrue)
			})
		})

		Convey("When weights are finite but huge", func() {
			pair, errPair := c.Combine([]model.ScoreInput{model.Score("a", 100, 1e308), model.Score("b", 100, 1e308)})
			single, errSingle := c.Combine([]model.ScoreInput{model.Score("a", 90, 1e307)})
			mixed, errMixed := c.Combine([]model.ScoreInput{model.Score("a", 80, 3e307), model.Score("b", 60, 1e307)})

			Convey("Then the sums do not overflow into a zero score", func() {
				So(errPair, ShouldBeNil)
				So(pair.Overall, ShouldEqual, 100)
				So(errSingle, ShouldBeNil)
				So(single.Overall, ShouldEqual, 90)
				So(errMixed, ShouldBeNil)
				So(mixed.Overall, ShouldEqual, 75) // (240 + 60) / 4
			})
		})

		Convey("When weights are tiny", func() {
			score, err := c.Combine([]model.ScoreInput{model.Score("a", 80, 3e-300), model.Score("b", 60, 1e-300)})
			So(err, ShouldBeNil)
			So(score.Overall, ShouldEqual, 75)
		})

		Convey("When an absent input carries a bogus weight", func() {
			_, err := c.Combine([]model.ScoreInput{model.Score("a", 50, 1), model.Absent("b", -3)})
			So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
		})
	})
}

func TestCombiner_Bounds(t *testing.T) {
	Convey("Given arbitrary weight vectors over valid scores", t, func() {
		c := scoring.NewCombiner()
		values := []float64{0, 0.4, 12.5, 49.5, 50, 99.6, 100}
		weights := []float64{0, 0.001, 1, 7, 33.3, 1000}

		Convey("Then every combined score lies in [0,100]", func() {
			for _, v1 := range values {
				for _, v2 := range values {
					for _, w1 := range weights {
						for _, w2 := range weights {
							if w1+w2 == 0 {
								continue
							}
							score, err := c.Combine([]model.ScoreInput{model.Score("x", v1, w1), model.Score("y", v2, w2)})
							So(err, ShouldBeNil)
							So(score.Overall, ShouldBeBetweenOrEqual, 0, 100)
						}
					}
				}
			}
		})
	})
}

func TestCombiner_Profiles(t *testing.T) {
	Convey("Given a combiner with default profiles", t, func() {
		c := scoring.NewCombiner()

		Convey("When combining the application quality profile", func() {
			score, err := c.CombineProfile(scoring.ProfileApplicationQuality, map[string]*float64{
				"skills":     ptr(80),
				"experience": ptr(60),
				"education":  ptr(90),
			})

			Convey("Then it uses the 40/35/25 weights", func() {
				So(err, ShouldBeNil)
				So(score.Overall, ShouldEqual, 76)
				So(score.Kind, ShouldEqual, scoring.ProfileApplicationQuality)
				So(c.MeetsThreshold(score), ShouldBeTrue)
			})
		})

		Convey("When a profile component is missing", func() {
			score, err := c.CombineProfile(scoring.ProfileApplicationQuality, map[string]*float64{
				"skills":     ptr(80),
				"experience": ptr(60),
			})

			Convey("Then it is treated as absent", func() {
				So(err, ShouldBeNil)
				So(score.Overall, ShouldEqual, 71)
			})
		})

		Convey("When the profile is unknown", func() {
			_, err := c.CombineProfile("vibes", map[string]*float64{"x": ptr(1)})
			So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When a value names a component outside the profile", func() {
			_, err := c.CombineProfile(scoring.ProfileResumeQuality, map[string]*float64{"charisma": ptr(99)})
			So(errors.Is(err, errs.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When no profile component has a value", func() {
			_, err := c.CombineProfile(scoring.ProfileResumeQuality, nil)
			So(errors.Is(err, errs.ErrInsufficientData), ShouldBeTrue)
		})

		Convey("Then the built-in profiles are listed in order", func() {
			So(c.Profiles(), ShouldResemble, []string{
				scoring.ProfileApplicationQuality,
				scoring.ProfileJobCompetitiveness,
				scoring.ProfileResumeQuality,
			})
		})
	})

	Convey("Given a combiner with configured profiles and threshold", t, func() {
		c := scoring.NewCombiner(
			scoring.WithProfilesFromConfig(map[string]map[string]float64{
				"mentor_fit": {"availability": 1, "expertise": 3},
				"broken":     {"a": 0},
			}),
			scoring.WithQualityThreshold(80),
		)

		Convey("Then only profiles with a positive weight are kept", func() {
			So(c.HasProfile("mentor_fit"), ShouldBeTrue)
			So(c.HasProfile("broken"), ShouldBeFalse)
			So(c.HasProfile(scoring.ProfileApplicationQuality), ShouldBeFalse)
		})

		Convey("And the threshold is applied inclusively", func() {
			So(c.Threshold(), ShouldEqual, 80)
			So(c.MeetsThreshold(model.CompositeScore{Overall: 80}), ShouldBeTrue)
			So(c.MeetsThreshold(model.CompositeScore{Overall: 79}), ShouldBeFalse)
		})
	})
}
