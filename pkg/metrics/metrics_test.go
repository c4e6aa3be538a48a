package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(true),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording sampling metrics", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					RecordFrameSampled()
					RecordFrameProcessed()
					RecordFrameSkippedBusy()
					RecordFrameSkippedNotReady()
					RecordDetectionLatency(42.0)
					RecordDetectionError("heuristic", "faces")
				}, ShouldNotPanic)
			})
		})

		Convey("When recording violation metrics", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					RecordViolation("phone_detected", "critical")
					RecordViolationSuppressed("multiple_faces")
					RecordObjectCooldownHit()
					UpdatePendingTimers(2)
					UpdateCooldownEntries(5)
				}, ShouldNotPanic)
			})
		})

		Convey("When updating session gauges", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					UpdateIntegrityScore(80)
					UpdateViolationCount(3)
					UpdateSessionRecording(true)
					UpdateSessionRecording(false)
					UpdateNotifySubscribers(1)
					RecordNotifyDropped()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					RecordHTTPRequest("status", "GET", "200")
					RecordHTTPRequestDuration("status", "GET", "200", 1.5)
					RecordErrorByComponent("sampler", "capture_failed")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("When fetching it", func() {
			registry := GetRegistry()

			Convey("Then it should be the custom registry", func() {
				So(registry, ShouldNotBeNil)
				So(registry, ShouldEqual, customRegistry)
			})
		})
	})
}
