package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/openbusser"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// API client metrics
	APIRequestsTotal      metric.Int64Counter
	APIRequestErrorsTotal metric.Int64Counter
	APIRequestDuration    metric.Float64Histogram

	// Session metrics
	SessionsRegisteredTotal metric.Int64Counter
	BussersAssignedTotal    metric.Int64Counter

	// Polling metrics
	PollCyclesTotal       metric.Int64Counter
	PollErrorsTotal       metric.Int64Counter
	PollStaleResultsTotal metric.Int64Counter

	// Presence metrics
	BussersOnline  metric.Int64Gauge
	BussersOffline metric.Int64Gauge
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.APIRequestsTotal, _ = meter.Int64Counter(
		"openbusser.api.requests.total",
		metric.WithDescription("Total number of backend API requests"),
		metric.WithUnit("{request}"),
	)

	m.APIRequestErrorsTotal, _ = meter.Int64Counter(
		"openbusser.api.requests.errors.total",
		metric.WithDescription("Total number of failed backend API requests (transport or non-2xx)"),
		metric.WithUnit("{error}"),
	)

	m.APIRequestDuration, _ = meter.Float64Histogram(
		"openbusser.api.requests.duration",
		metric.WithDescription("Duration of backend API requests"),
		metric.WithUnit("ms"),
	)

	m.SessionsRegisteredTotal, _ = meter.Int64Counter(
		"openbusser.sessions.registered.total",
		metric.WithDescription("Total number of sessions registered by this client"),
		metric.WithUnit("{session}"),
	)

	m.BussersAssignedTotal, _ = meter.Int64Counter(
		"openbusser.bussers.assigned.total",
		metric.WithDescription("Total number of bussers auto-assigned"),
		metric.WithUnit("{busser}"),
	)

	m.PollCyclesTotal, _ = meter.Int64Counter(
		"openbusser.poll.cycles.total",
		metric.WithDescription("Total number of polling cycles"),
		metric.WithUnit("{cycle}"),
	)

	m.PollErrorsTotal, _ = meter.Int64Counter(
		"openbusser.poll.errors.total",
		metric.WithDescription("Total number of polling cycles that failed"),
		metric.WithUnit("{cycle}"),
	)

	m.PollStaleResultsTotal, _ = meter.Int64Counter(
		"openbusser.poll.stale_results.total",
		metric.WithDescription("Total number of polling results discarded because a newer cycle had been applied"),
		metric.WithUnit("{cycle}"),
	)

	m.BussersOnline, _ = meter.Int64Gauge(
		"openbusser.presence.online",
		metric.WithDescription("Number of tracked bussers currently online"),
		metric.WithUnit("{busser}"),
	)

	m.BussersOffline, _ = meter.Int64Gauge(
		"openbusser.presence.offline",
		metric.WithDescription("Number of tracked bussers currently offline"),
		metric.WithUnit("{busser}"),
	)

	return m
}
