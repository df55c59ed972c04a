package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records cache classification, revalidation and request metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordClassification records one cache status verdict.
	RecordClassification(ctx context.Context, status string, confidence float64, duration time.Duration)

	// RecordInvalidation records one per-tag invalidation attempt.
	RecordInvalidation(ctx context.Context, tag, strategy string, err error)

	// RecordRequest records one completed HTTP request.
	RecordRequest(ctx context.Context, method string, status int, duration time.Duration, err error)
}

type metricsImpl struct {
	classifications metric.Int64Counter
	confidence      metric.Float64Histogram
	invalidations   metric.Int64Counter
	requests        metric.Int64Counter
	requestDuration metric.Float64Histogram
}

// NewMetrics creates Metrics backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	classifications, err := meter.Int64Counter(
		"cache.classifications",
		metric.WithDescription("Cache status classifications by status"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, err
	}

	confidence, err := meter.Float64Histogram(
		"cache.classification.confidence",
		metric.WithDescription("Confidence of cache status classifications"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	invalidations, err := meter.Int64Counter(
		"revalidate.invalidations",
		metric.WithDescription("Per-tag invalidation attempts"),
		metric.WithUnit("{tag}"),
	)
	if err != nil {
		return nil, err
	}

	requests, err := meter.Int64Counter(
		"http.client.requests",
		metric.WithDescription("Completed HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.client.duration_ms",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		classifications: classifications,
		confidence:      confidence,
		invalidations:   invalidations,
		requests:        requests,
		requestDuration: requestDuration,
	}, nil
}

func (m *metricsImpl) RecordClassification(ctx context.Context, status string, confidence float64, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("cache.status", status))
	m.classifications.Add(ctx, 1, opt)
	m.confidence.Record(ctx, confidence, opt)
}

func (m *metricsImpl) RecordInvalidation(ctx context.Context, tag, strategy string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.invalidations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("revalidate.tag", tag),
		attribute.String("revalidate.strategy", strategy),
		attribute.String("revalidate.outcome", outcome),
	))
}

func (m *metricsImpl) RecordRequest(ctx context.Context, method string, status int, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", method),
		attribute.Int("http.response.status_code", status),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	opt := metric.WithAttributes(attrs...)
	m.requests.Add(ctx, 1, opt)
	m.requestDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordClassification(context.Context, string, float64, time.Duration) {}
func (nopMetrics) RecordInvalidation(context.Context, string, string, error)            {}
func (nopMetrics) RecordRequest(context.Context, string, int, time.Duration, error)     {}
