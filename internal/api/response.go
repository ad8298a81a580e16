package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response is the standard success envelope for all API responses:
// {"success": true, "message": "...", "data": {...}}
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteSuccess writes a standardized JSON success response with the given
// status code, message, and payload.
func WriteSuccess(w http.ResponseWriter, ctx context.Context, status int, message string, data interface{}) {
	body, err := json.Marshal(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal response", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
