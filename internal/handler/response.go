package handler

import (
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message, details string, logger *zap.Logger) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details}, logger)
}
