package observability

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsExposeInstruments(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("tripconcierge-test", zap.NewNop())
	defer m.Shutdown(context.Background())

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/api/trips/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/trips/abc", nil))

	m.RecordGatewayFailure(context.Background(), "unreachable")
	m.RecordReplyImages(context.Background(), 3)

	body := scrape(t, m.Handler())
	assert.Contains(t, body, "http_requests")
	assert.Contains(t, body, `route="/api/trips/:id"`)
	assert.Contains(t, body, `status="404"`)
	assert.Contains(t, body, "http_duration")
	assert.Contains(t, body, "gateway_failures")
	assert.Contains(t, body, `kind="unreachable"`)
	assert.Contains(t, body, "reply_images")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordGatewayFailure(ctx, "x")
	m.RecordReplyImages(ctx, 1)
	assert.NoError(t, m.Shutdown(ctx))
	assert.NotNil(t, m.Handler())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type failingMeter struct {
	otelmetric.Meter
}

var errInstrument = errors.New("instrument rejected")

func (failingMeter) Int64Counter(string, ...otelmetric.Int64CounterOption) (otelmetric.Int64Counter, error) {
	return nil, errInstrument
}

func (failingMeter) Float64Histogram(string, ...otelmetric.Float64HistogramOption) (otelmetric.Float64Histogram, error) {
	return nil, errInstrument
}

func (failingMeter) Int64Histogram(string, ...otelmetric.Int64HistogramOption) (otelmetric.Int64Histogram, error) {
	return nil, errInstrument
}

func TestFailedInstrumentsFallBackToNoop(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := &Metrics{}
	m.initInstruments(failingMeter{}, zap.New(core))

	require.NotNil(t, m.requests)
	require.NotNil(t, m.duration)
	require.NotNil(t, m.gatewayFailures)
	require.NotNil(t, m.replyImages)
	assert.Equal(t, 4, logs.FilterMessage("create instrument").Len())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		m.RecordGatewayFailure(context.Background(), "unreachable")
		m.RecordReplyImages(context.Background(), 2)
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
