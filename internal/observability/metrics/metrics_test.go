package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("provider", "xendit"),
		attribute.String("order_id", "order_01H"),
		attribute.String("outcome", "applied"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "order_id" {
			t.Fatalf("expected order_id to be dropped")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordOrderCreated(context.Background(), "IDR", 100)
	m.RecordWebhook(context.Background(), "xendit", "applied", "PAID")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "storefront"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordInvoiceRequest(context.Background(), "xendit", "issued")
}

func TestHTTPMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m, err := newHTTPMetrics(registry, Config{ServiceName: "storefront", Environment: "test"})
	if err != nil {
		t.Fatalf("new http metrics: %v", err)
	}

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}

	var out dto.Metric
	if err := m.requests.WithLabelValues("GET", "/health", "200").Write(&out); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	if got := out.GetCounter().GetValue(); got != 2 {
		t.Fatalf("expected 2 requests, got %v", got)
	}

	again, err := newHTTPMetrics(registry, Config{ServiceName: "storefront", Environment: "test"})
	if err != nil {
		t.Fatalf("re-register should reuse collectors: %v", err)
	}
	if again.requests != m.requests {
		t.Fatalf("expected existing collector to be reused")
	}
}
