package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created with the engine namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "careerpulse")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.enabled, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.scoresCombined.WithLabelValues("resume_quality").Inc()

			Convey("Then names and labels follow the options", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_prefix_scores_combined_total" {
						found = true
						So(f.GetMetric()[0].GetLabel(), ShouldHaveLength, 2)
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty values are passed", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithMetricPrefix(""),
				WithHistogramBuckets(nil),
				WithCustomLabels(nil),
				WithPrometheusRegistry(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "careerpulse")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.metricPrefix, ShouldBeEmpty)
				So(manager.histogramBuckets, ShouldResemble, latencyBuckets)
				So(manager.customLabels, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording scoring metrics", func() {
			before := testutil.ToFloat64(globalManager.scoresCombined.WithLabelValues("application_quality"))
			RecordScoreCombined("application_quality", 76)
			RecordScoreFailure("invalid_input")
			RecordDuplicateAnalysis()
			UpdatePeerIndexSize("application_quality", 12)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.scoresCombined.WithLabelValues("application_quality")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.peerIndexSize.WithLabelValues("application_quality")), ShouldEqual, 12)
			})
		})

		Convey("When recording prediction metrics", func() {
			created := testutil.ToFloat64(globalManager.predictionsCreated.WithLabelValues("industry"))
			resolved := testutil.ToFloat64(globalManager.predictionsResolved)
			overdue := testutil.ToFloat64(globalManager.predictionsOverdue)
			RecordPredictionCreated("industry")
			RecordPredictionResolved(70)
			RecordPredictionOverdue()

			Convey("Then each counter increments once", func() {
				So(testutil.ToFloat64(globalManager.predictionsCreated.WithLabelValues("industry")), ShouldEqual, created+1)
				So(testutil.ToFloat64(globalManager.predictionsResolved), ShouldEqual, resolved+1)
				So(testutil.ToFloat64(globalManager.predictionsOverdue), ShouldEqual, overdue+1)
			})
		})

		Convey("When recording benchmark, engagement, store and HTTP metrics", func() {
			errsBefore := testutil.ToFloat64(globalManager.benchmarkSourceErrors)

			So(func() {
				RecordBenchmarkResolution("exact")
				RecordBenchmarkResolution("default")
				RecordBenchmarkSourceError()
				RecordEngagementScore(31)
				RecordStoreLatency("memory", "save_prediction", 0.2)
				RecordStoreError("sqlite", "append_score")
				RecordHTTPRequest("/scores", "POST", "201")
				RecordHTTPRequestDuration("/scores", "POST", "201", 4.5)
				RecordErrorByEndpoint("/predictions", "POST", "invalid_input")
			}, ShouldNotPanic)

			Convey("Then the source error counter moved", func() {
				So(testutil.ToFloat64(globalManager.benchmarkSourceErrors), ShouldEqual, errsBefore+1)
			})
		})

		Convey("When the registry is gathered", func() {
			families, err := GetRegistry().Gather()

			Convey("Then engine metrics are exposed", func() {
				So(err, ShouldBeNil)
				So(families, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsDisabled(t *testing.T) {
	Convey("Given a disabled global manager", t, func() {
		saved := globalManager
		globalManager = NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))
		defer func() { globalManager = saved }()

		RecordPredictionOverdue()
		RecordScoreCombined("resume_quality", 50)

		Convey("Then nothing is recorded", func() {
			So(testutil.ToFloat64(globalManager.predictionsOverdue), ShouldEqual, 0)
			So(testutil.ToFloat64(globalManager.scoresCombined.WithLabelValues("resume_quality")), ShouldEqual, 0)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given metrics recorded from many goroutines", t, func() {
		done := make(chan bool, 10)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 100; j++ {
					RecordEngagementScore(j)
					RecordStoreLatency("memory", "get_prediction", float64(j))
					RecordHTTPRequest("/stats", "GET", "200")
				}
				done <- true
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}

		Convey("Then it should handle concurrent access without panics", func() {
			So(true, ShouldBeTrue)
		})
	})
}
