package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/google-signup/internal/logger"
	"go.uber.org/zap"
)

// WriteJSON writes data as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteText writes a plain text response. The message is sent verbatim, so
// callers must only pass fixed, user-safe strings.
func WriteText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(message)); err != nil {
		logger.Debug("Failed to write text response", zap.Error(err))
	}
}
