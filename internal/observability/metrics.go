package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// Metrics owns the meter provider and the service's instruments.
type Metrics struct {
	meterProvider   *metric.MeterProvider
	registry        *promclient.Registry
	requests        otelmetric.Int64Counter
	duration        otelmetric.Float64Histogram
	gatewayFailures otelmetric.Int64Counter
	replyImages     otelmetric.Int64Histogram
}

// New wires an OpenTelemetry meter provider to a private prometheus
// registry. On exporter failure the returned Metrics records nothing.
func New(serviceName string, log *zap.Logger) *Metrics {
	if log == nil {
		log = zap.NewNop()
	}
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		log.Warn("failed to create prometheus exporter", zap.Error(err))
		m := &Metrics{registry: registry}
		m.initInstruments(noop.NewMeterProvider().Meter(serviceName), log)
		return m
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	m := &Metrics{meterProvider: provider, registry: registry}
	m.initInstruments(provider.Meter(serviceName), log)
	return m
}

// initInstruments creates every instrument on meter. An instrument that
// cannot be created is logged and replaced by a no-op one.
func (m *Metrics) initInstruments(meter otelmetric.Meter, log *zap.Logger) {
	var err error
	m.requests, err = meter.Int64Counter(
		"http.requests",
		otelmetric.WithDescription("Number of HTTP requests served"),
	)
	if err != nil || m.requests == nil {
		log.Warn("create instrument", zap.String("instrument", "http.requests"), zap.Error(err))
		m.requests = noop.Int64Counter{}
	}

	m.duration, err = meter.Float64Histogram(
		"http.duration",
		otelmetric.WithDescription("HTTP request duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil || m.duration == nil {
		log.Warn("create instrument", zap.String("instrument", "http.duration"), zap.Error(err))
		m.duration = noop.Float64Histogram{}
	}

	m.gatewayFailures, err = meter.Int64Counter(
		"gateway.failures",
		otelmetric.WithDescription("Failed model completions by kind"),
	)
	if err != nil || m.gatewayFailures == nil {
		log.Warn("create instrument", zap.String("instrument", "gateway.failures"), zap.Error(err))
		m.gatewayFailures = noop.Int64Counter{}
	}

	m.replyImages, err = meter.Int64Histogram(
		"reply.images",
		otelmetric.WithDescription("Images attached to each chat reply"),
	)
	if err != nil || m.replyImages == nil {
		log.Warn("create instrument", zap.String("instrument", "reply.images"), zap.Error(err))
		m.replyImages = noop.Int64Histogram{}
	}
}

// Handler serves the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GinMiddleware counts and times every request by route and status.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil || m.requests == nil || m.duration == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		attrs := otelmetric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("route", route),
			attribute.String("status", strconv.Itoa(c.Writer.Status())),
		)
		ctx := c.Request.Context()
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
	}
}

// RecordGatewayFailure counts one failed model call under its error kind.
func (m *Metrics) RecordGatewayFailure(ctx context.Context, kind string) {
	if m != nil && m.gatewayFailures != nil {
		m.gatewayFailures.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("kind", kind)))
	}
}

// RecordReplyImages records how many images a chat reply carried.
func (m *Metrics) RecordReplyImages(ctx context.Context, n int) {
	if m != nil && m.replyImages != nil {
		m.replyImages.Record(ctx, int64(n))
	}
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m == nil || m.meterProvider == nil {
		return nil
	}
	return m.meterProvider.Shutdown(ctx)
}
