package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	// Increment counters to create metrics entries
	m.IncRateLimitRequests("/interactions", "user")
	m.IncRateLimitBlocked("/interactions", "ip")
	m.IncRateLimitRedisErrors()

	gathered, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	families := map[string]*dto.MetricFamily{}
	for _, mf := range gathered {
		families[mf.GetName()] = mf
	}
	for _, name := range []string{
		MetricRateLimitRequests,
		MetricRateLimitBlocked,
		MetricRateLimitRedisErrors,
	} {
		if families[name] == nil {
			t.Errorf("metric %s not found in registry", name)
		}
	}

	requests := families[MetricRateLimitRequests]
	if requests == nil || len(requests.GetMetric()) != 1 {
		t.Fatalf("expected 1 metric entry for %s", MetricRateLimitRequests)
	}
	if got := requests.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("%s = %v, want 1", MetricRateLimitRequests, got)
	}
}

func TestMetrics_RegisterTwiceFails(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}
	if err := m.Register(reg); err == nil {
		t.Error("second Register() should return duplicate registration error")
	}
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	m.ObserveHTTPRequest("POST", "/interactions", "201", 0.042, 128, 256)
	m.ObserveHTTPRequest("POST", "/interactions", "201", 0.013, 64, 256)

	count := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("POST", "/interactions", "201"))
	if count != 2 {
		t.Errorf("http_requests_total = %v, want 2", count)
	}
}

func TestRateLimiterWithMetrics_CountsBlocked(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	store := NewInMemoryRateLimitStore()
	config := RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute}
	handler := RateLimiterWithMetrics(store, config, IPKeyFunc(), m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/interactions", nil)
	req.RemoteAddr = "192.168.1.10:54321"
	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	requests := testutil.ToFloat64(m.rateLimitRequests.WithLabelValues("/interactions", "ip"))
	if requests != 2 {
		t.Errorf("rate_limit_requests_total = %v, want 2", requests)
	}
	blocked := testutil.ToFloat64(m.rateLimitBlocked.WithLabelValues("/interactions", "ip"))
	if blocked != 1 {
		t.Errorf("rate_limit_blocked_total = %v, want 1", blocked)
	}
}
