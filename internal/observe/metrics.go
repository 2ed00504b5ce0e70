// Package observe provides application-wide observability primitives for
// Voxlate: OpenTelemetry metrics and HTTP middleware.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all Voxlate metrics.
const meterName = "github.com/voxlate/voxlate"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TranslationDuration tracks translation request latency.
	TranslationDuration metric.Float64Histogram

	// TranscriptResults counts recognition results forwarded to clients.
	// Use with attribute.Bool("final", ...).
	TranscriptResults metric.Int64Counter

	// TranslationRequests counts translation attempts. Use with
	// attribute.String("status", "ok"|"error"|"discarded").
	TranslationRequests metric.Int64Counter

	// FramesDropped counts audio frames discarded because no recognizer
	// stream was active.
	FramesDropped metric.Int64Counter

	// AudioFrames counts audio frames forwarded to the recognizer.
	AudioFrames metric.Int64Counter

	// RecognizerErrors counts recognizer stream failures.
	RecognizerErrors metric.Int64Counter

	// ActiveSessions tracks the number of live streaming sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attribute.String("method", ...), attribute.String("path", ...).
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// live-caption latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TranslationDuration, err = m.Float64Histogram("voxlate.translation.duration",
		metric.WithDescription("Latency of translation requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.TranscriptResults, err = m.Int64Counter("voxlate.transcript.results",
		metric.WithDescription("Total recognition results forwarded to clients, by finality."),
	); err != nil {
		return nil, err
	}
	if met.TranslationRequests, err = m.Int64Counter("voxlate.translation.requests",
		metric.WithDescription("Total translation attempts by status."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("voxlate.audio.frames_dropped",
		metric.WithDescription("Audio frames discarded because no recognizer stream was active."),
	); err != nil {
		return nil, err
	}
	if met.AudioFrames, err = m.Int64Counter("voxlate.audio.frames",
		metric.WithDescription("Audio frames forwarded to the recognizer."),
	); err != nil {
		return nil, err
	}
	if met.RecognizerErrors, err = m.Int64Counter("voxlate.recognizer.errors",
		metric.WithDescription("Recognizer stream failures."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("voxlate.active_sessions",
		metric.WithDescription("Number of live streaming sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("voxlate.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTranscript records a recognition result forwarded to a client.
func (m *Metrics) RecordTranscript(ctx context.Context, final bool) {
	m.TranscriptResults.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("final", final)),
	)
}

// RecordTranslation records a translation attempt with the given status and
// duration in seconds.
func (m *Metrics) RecordTranslation(ctx context.Context, status string, seconds float64) {
	m.TranslationRequests.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
	m.TranslationDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("status", status)),
	)
}
