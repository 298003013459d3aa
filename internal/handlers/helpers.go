// Package handlers implements the HTTP handlers of the verification server.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/univerify/univerify/internal/middleware"
)

// sendJSON writes v as a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// sendError writes a JSON error response.
func sendError(w http.ResponseWriter, message, code string, status int) {
	sendJSON(w, status, middleware.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// setNoCacheHeaders marks a response as never cacheable.
func setNoCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}
