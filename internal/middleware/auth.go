package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/onnwee/bookden/internal/auth"
)

// authFailed writes the standard error envelope for a rejected request. The
// api package's response helpers live above this one in the import graph, so
// the envelope is written directly here.
func authFailed(w http.ResponseWriter, ctx context.Context, message string) {
	SetErrorCode(ctx, "auth_failed")

	body, _ := json.Marshal(struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}{Code: "auth_failed", Message: message})

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(body)
}

// Authenticate is a middleware that validates the Bearer token on the request
// and stores the authenticated user ID in the context. Requests without a
// valid access token are rejected with 401.
func Authenticate(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				authFailed(w, r.Context(), "Missing or malformed Authorization header")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				authFailed(w, r.Context(), "Invalid or expired token")
				return
			}
			// Refresh tokens cannot be used to call the API.
			if claims.Type != auth.TokenTypeAccess {
				authFailed(w, r.Context(), "Invalid token type")
				return
			}

			ctx := SetUserID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
