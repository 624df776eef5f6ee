package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse represents a JSON error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent at this point, so the status cannot change.
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteRedirect writes a JSON body together with a Location header and a
// redirect status code. Used by click endpoints that both redirect and
// return the resolved row.
func WriteRedirect(w http.ResponseWriter, status int, location string, v any) {
	w.Header().Set("Location", location)
	WriteJSON(w, status, v)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := ErrorResponse{
		Error:   code,
		Message: message,
		Details: details,
	}
	WriteJSON(w, status, resp)
}
