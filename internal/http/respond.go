package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/rates"
)

// envelope is the uniform JSON body for every API response.
type envelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success:   status < 400,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success:   status < 400,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "resource not found")
	case isValidationError(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rates.ErrUnavailable), errors.Is(err, rates.ErrUnsupportedCurrency):
		writeMessage(w, http.StatusBadRequest, "failed to fetch exchange rates")
	default:
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidLimit,
		core.ErrInvalidThreshold,
		core.ErrInvalidPeriod,
		core.ErrInvalidDate,
		core.ErrInvalidDateRange,
		core.ErrEmptyName,
		core.ErrEmptyOwner,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
