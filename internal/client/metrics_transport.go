package client

import (
	"net/http"
	"time"

	"github.com/wolfeidau/openbusser/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type metricsTransport struct {
	next http.RoundTripper
}

func newMetricsTransport(next http.RoundTripper) *metricsTransport {
	return &metricsTransport{next: next}
}

func (t *metricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	m := telemetry.GetMetrics()
	started := time.Now()

	attrs := []attribute.KeyValue{
		attribute.String("http.method", req.Method),
		attribute.String("http.route", req.URL.Path),
	}

	resp, err := t.next.RoundTrip(req)

	if resp != nil {
		attrs = append(attrs, attribute.Int("http.status_code", resp.StatusCode))
	}
	opt := metric.WithAttributes(attrs...)

	m.APIRequestsTotal.Add(ctx, 1, opt)
	m.APIRequestDuration.Record(ctx, float64(time.Since(started).Milliseconds()), opt)

	if err != nil || resp.StatusCode < 200 || resp.StatusCode > 299 {
		m.APIRequestErrorsTotal.Add(ctx, 1, opt)
	}

	return resp, err
}
