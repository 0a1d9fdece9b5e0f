package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ivrstand/itemindex/application/service"
)

// MessageResponse is the confirmation/error body shape the original kiosk
// clients expect.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteError maps a service error to its HTTP status and writes the
// message-shaped error body.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
		message = "Invalid input"
	case errors.Is(err, service.ErrSyncRunning):
		status = http.StatusTooManyRequests
		message = "Sync is already in progress"
	}

	if logger != nil {
		logger.Error("request error",
			"status", status,
			"error", err.Error(),
			"path", r.URL.Path,
		)
	}

	WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
