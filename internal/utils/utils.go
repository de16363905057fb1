// Package utils holds the JSON response helpers shared by the forecast
// handlers and the healthcheck.
package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WriteJSON serializes v with the status; encode failures are logged,
// the status line is already on the wire by then.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

// WriteError emits the standard error envelope: the HTTP status text
// plus a human-readable message.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}
