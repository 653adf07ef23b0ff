// ABOUTME: Tests for bot counters and the health/metrics router.
// ABOUTME: Uses a private Prometheus registry and httptest recorders.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *BotMetrics
	m.IncUpdate("message")
	m.IncGate("deliver")
	m.IncPublish("ok")
	m.IncFailure()
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBotMetrics(reg)

	m.IncGate("deliver")
	m.IncGate("deliver")
	m.IncGate("subscribe")
	m.IncPublish("incomplete")
	m.IncFailure()

	if got := testutil.ToFloat64(m.GateOutcomes.WithLabelValues("deliver")); got != 2 {
		t.Errorf("deliver count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.GateOutcomes.WithLabelValues("subscribe")); got != 1 {
		t.Errorf("subscribe count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PublishResults.WithLabelValues("incomplete")); got != 1 {
		t.Errorf("incomplete count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HandlerFailures); got != 1 {
		t.Errorf("failure count = %v, want 1", got)
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
	}{
		{"healthy", map[string]HealthCheck{"store": func(context.Context) error { return nil }}, http.StatusOK},
		{"unhealthy", map[string]HealthCheck{"store": func(context.Context) error { return fmt.Errorf("down") }}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(prometheus.NewRegistry(), tt.checks)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Status != tt.name {
				t.Errorf("status field = %q, want %q", body.Status, tt.name)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBotMetrics(reg)
	m.IncUpdate("callback")

	r := NewRouter(reg, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `postgate_updates_total{kind="callback"} 1`) {
		t.Errorf("expected updates counter in output, got:\n%s", rec.Body.String())
	}
}
