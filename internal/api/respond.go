package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// payload is the variable part of a success envelope. Keys are merged next
// to "success": true at the top level of the response body.
type payload map[string]interface{}

// respond writes the uniform success envelope.
func respond(w http.ResponseWriter, status int, p payload) {
	body := make(map[string]interface{}, len(p)+1)
	body["success"] = true
	for k, v := range p {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// respondError maps a domain error to its status code and writes the uniform
// failure envelope. Internal failures are logged and masked with a generic
// message; the concrete error never reaches the caller.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
