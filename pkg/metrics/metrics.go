// Package metrics wires OpenTelemetry metrics to a Prometheus exporter and
// provides the instruments used to observe anagram checks.
package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

const meterName = "anagram"

// Check modes, reported as the "mode" attribute.
const (
	ModeCompare = "compare"
	ModeSync    = "sync"
	ModeAsync   = "async"
)

// NewMeterProvider creates a MeterProvider whose metrics are exported through
// the given Prometheus registerer.
func NewMeterProvider(reg prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// CheckRecorder records the number and latency of anagram checks. A nil
// *CheckRecorder discards everything.
type CheckRecorder struct {
	checks   metric.Int64Counter
	duration metric.Float64Histogram
}

// NewCheckRecorder creates the check instruments on mp.
func NewCheckRecorder(mp metric.MeterProvider) (*CheckRecorder, error) {
	meter := mp.Meter(meterName)

	checks, err := meter.Int64Counter("anagram.checks",
		metric.WithDescription("Number of anagram checks computed"),
		metric.WithUnit("{check}"))
	if err != nil {
		return nil, fmt.Errorf("could not create checks counter: %w", err)
	}

	duration, err := meter.Float64Histogram("anagram.check.duration",
		metric.WithDescription("Time spent computing an anagram check"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create check duration histogram: %w", err)
	}

	return &CheckRecorder{checks: checks, duration: duration}, nil
}

// Record adds one check computed in the given mode.
func (r *CheckRecorder) Record(ctx context.Context, mode string, anagram bool, took time.Duration) {
	if r == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("anagram", strconv.FormatBool(anagram)),
	)
	r.checks.Add(ctx, 1, attrs)
	r.duration.Record(ctx, took.Seconds(), attrs)
}
