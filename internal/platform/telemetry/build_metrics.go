package telemetry

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jsamuelsen/app-context/internal/ports"
)

// BuildMetrics records context resolution passes, both as OpenTelemetry
// instruments and as Prometheus collectors served on /-/metrics.
type BuildMetrics struct {
	duration  metric.Float64Histogram
	builds    metric.Int64Counter
	cacheHits metric.Int64Counter

	promBuilds   *prometheus.CounterVec
	promDuration prometheus.Histogram
}

var _ ports.BuildRecorder = (*BuildMetrics)(nil)

// NewBuildMetrics creates the instruments on meter and registers the
// Prometheus collectors with reg. A nil reg skips Prometheus.
func NewBuildMetrics(meter metric.Meter, reg prometheus.Registerer) (*BuildMetrics, error) {
	duration, err := meter.Float64Histogram(
		"app_context.build.duration",
		metric.WithDescription("Context resolution pass duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	builds, err := meter.Int64Counter(
		"app_context.build.total",
		metric.WithDescription("Number of context resolution passes"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"app_context.provider.cache_hits",
		metric.WithDescription("Provider fragments served from the engine cache"),
	)
	if err != nil {
		return nil, err
	}

	m := &BuildMetrics{
		duration:  duration,
		builds:    builds,
		cacheHits: cacheHits,
		promBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "app_context_builds_total",
			Help: "Number of context resolution passes by outcome.",
		}, []string{"outcome"}),
		promDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "app_context_build_duration_seconds",
			Help:    "Context resolution pass duration.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	if reg != nil {
		if m.promBuilds, err = registerOrExisting(reg, m.promBuilds); err != nil {
			return nil, err
		}

		if m.promDuration, err = registerOrExisting(reg, m.promDuration); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordBuild implements ports.BuildRecorder.
func (m *BuildMetrics) RecordBuild(ctx context.Context, stats ports.BuildStats) {
	outcome := "success"
	if stats.Failed {
		outcome = "failure"
	}

	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.Int("providers_run", stats.ProvidersRun),
	)

	m.duration.Record(ctx, stats.Duration.Seconds(), attrs)
	m.builds.Add(ctx, 1, attrs)

	if stats.CacheHits > 0 {
		m.cacheHits.Add(ctx, int64(stats.CacheHits))
	}

	m.promBuilds.WithLabelValues(outcome).Inc()
	m.promDuration.Observe(stats.Duration.Seconds())
}

// registerOrExisting registers c, or returns the collector already
// registered under the same descriptor.
func registerOrExisting[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}

	return c, err
}
