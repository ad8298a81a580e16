package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "root", path: "/", want: "/"},
		{name: "interactions", path: "/interactions", want: "/interactions"},
		{name: "user history", path: "/interactions/user", want: "/interactions/user"},
		{name: "stats", path: "/interactions/stats", want: "/interactions/stats"},
		{name: "active users", path: "/interactions/active-users", want: "/interactions/active-users"},
		{name: "health", path: "/health", want: "/health"},
		{name: "metrics", path: "/metrics", want: "/metrics"},
		{
			name: "book history",
			path: "/interactions/book/0b4e51a9-5c34-4f77-9d2f-2f8f5a9f3e11",
			want: "/interactions/book/{id}",
		},
		{
			name: "breakdown",
			path: "/interactions/breakdown/0b4e51a9-5c34-4f77-9d2f-2f8f5a9f3e11",
			want: "/interactions/breakdown/{id}",
		},
		{
			name: "record view",
			path: "/interactions/books/0b4e51a9-5c34-4f77-9d2f-2f8f5a9f3e11/view",
			want: "/interactions/books/{id}/view",
		},
		{
			name: "record rating",
			path: "/interactions/books/0b4e51a9-5c34-4f77-9d2f-2f8f5a9f3e11/rate",
			want: "/interactions/books/{id}/rate",
		},
		{
			name: "record wishlist",
			path: "/interactions/books/0b4e51a9-5c34-4f77-9d2f-2f8f5a9f3e11/wishlist",
			want: "/interactions/books/{id}/wishlist",
		},
		{
			name: "unknown book action left as-is",
			path: "/interactions/books/abc/unknown",
			want: "/interactions/books/abc/unknown",
		},
		{
			name: "empty id segment left as-is",
			path: "/interactions/book/",
			want: "/interactions/book/",
		},
		{
			name: "unknown path left as-is",
			path: "/something/else",
			want: "/something/else",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestHTTPMetrics_RecordsRequest(t *testing.T) {
	metrics := NewMetrics()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/interactions/books/0b4e51a9-5c34-4f77-9d2f-2f8f5a9f3e11/rate", strings.NewReader(`{"rating_value":5}`))
	req.Header.Set("Content-Length", "18")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	count := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("POST", "/interactions/books/{id}/rate", "201"))
	if count != 1 {
		t.Errorf("http_requests_total = %v, want 1 with normalized path label", count)
	}
}

func TestHTTPMetrics_SkipsHealthEndpoints(t *testing.T) {
	metrics := NewMetrics()
	registry := prometheus.NewRegistry()
	if err := metrics.Register(registry); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	handler := HTTPMetrics(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	count := testutil.CollectAndCount(metrics.httpRequestsTotal)
	if count != 0 {
		t.Errorf("http_requests_total series = %d, want 0 for health endpoints", count)
	}
}
