package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_ns"),
				WithSubsystem("test_sub"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithPrometheusRegistry(registry),
			)
			manager.candidatesScored.Add(2)

			Convey("Then collectors should use the custom names", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "test_ns_test_sub_") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline metrics", func() {
			before := testutil.ToFloat64(globalManager.matchRuns.WithLabelValues("rule_based", "ok"))
			RecordMatchRun("rule_based", "ok")

			Convey("Then the run counter should increase", func() {
				after := testutil.ToFloat64(globalManager.matchRuns.WithLabelValues("rule_based", "ok"))
				So(after-before, ShouldEqual, 1)
			})
		})

		Convey("When toggling the degraded flag", func() {
			SetSimilarityDegraded(true)
			So(testutil.ToFloat64(globalManager.similarityDegraded), ShouldEqual, 1)
			SetSimilarityDegraded(false)
			So(testutil.ToFloat64(globalManager.similarityDegraded), ShouldEqual, 0)
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordMatchRunLatency("enhanced", 12)
				RecordCandidatesScored(10)
				RecordCandidatesFiltered("unavailable", 2)
				RecordResultsPersisted(5)
				ObserveCompositeScore(7.5)
				RecordLockWait(0.3)
				RecordSimilarityCall("ok")
				RecordEmbeddingCache(true)
				RecordEmbeddingCache(false)
				RecordEmbeddingLatency(40)
				UpdateBreakerState("gemini-embeddings", 0)
				RecordBreakerTransition("gemini-embeddings", "closed", "open")
				UpdateQueueSize(3)
				UpdateQueueCapacity(100)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError("queue_full")
				RecordRematchDuplicate()
				UpdateWorkerCount(4)
				RecordWorkerProcessingLatency(20)
				RecordWorkerError("not_found")
				UpdateTotalTalents(8)
				UpdateTotalGigs(3)
				RecordHTTPRequest("matches", "POST", "200")
				RecordHTTPRequestDuration("matches", "POST", "200", 3)
				RecordErrorByEndpoint("matches", "POST", "not_found")
			}, ShouldNotPanic)
		})

		Convey("Then the custom registry should be gatherable", func() {
			_, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
		})
	})
}
