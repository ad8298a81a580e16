package api

import (
	"net/http"
)

// Middleware is a standard HTTP middleware function.
type Middleware func(http.Handler) http.Handler

// RouterConfig bundles the handlers and per-route middleware for the API.
type RouterConfig struct {
	Interactions *InteractionHandlers
	Health       *HealthHandlers

	// Authenticate guards the endpoints that need a user identity.
	// The breakdown and probe endpoints stay public.
	Authenticate Middleware

	// WriteLimiter rate-limits the interaction-recording endpoints.
	// Optional; nil means no per-route limit.
	WriteLimiter Middleware

	// MetricsHandler serves GET /metrics (Prometheus exposition).
	// Optional; nil means no metrics endpoint.
	MetricsHandler http.Handler
}

// NewRouter builds the API route table on a standard ServeMux.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	authed := func(h http.HandlerFunc) http.Handler {
		if cfg.Authenticate == nil {
			return h
		}
		return cfg.Authenticate(h)
	}
	write := func(h http.HandlerFunc) http.Handler {
		handler := authed(h)
		if cfg.WriteLimiter != nil {
			handler = cfg.WriteLimiter(handler)
		}
		return handler
	}

	// Recording
	mux.Handle("POST /interactions", write(cfg.Interactions.Record))
	mux.Handle("POST /interactions/books/{bookId}/view", write(cfg.Interactions.RecordView))
	mux.Handle("POST /interactions/books/{bookId}/rate", write(cfg.Interactions.RecordRating))
	mux.Handle("POST /interactions/books/{bookId}/wishlist", write(cfg.Interactions.RecordWishlist))

	// Queries
	mux.Handle("GET /interactions/user", authed(cfg.Interactions.UserHistory))
	mux.Handle("GET /interactions/book/{bookId}", authed(cfg.Interactions.BookHistory))
	mux.Handle("GET /interactions/stats", authed(cfg.Interactions.Stats))
	mux.Handle("GET /interactions/active-users", authed(cfg.Interactions.ActiveUsers))

	// Public: breakdown is display data for book pages.
	mux.HandleFunc("GET /interactions/breakdown/{bookId}", cfg.Interactions.RatingBreakdown)

	// Probes and metrics
	mux.HandleFunc("GET /health", cfg.Health.Health)
	mux.HandleFunc("GET /ready", cfg.Health.Ready)
	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	// Structured 404 for everything else.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
	})

	return mux
}
