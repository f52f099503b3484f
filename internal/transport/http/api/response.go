package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pms/internal/domain/faults"
)

type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     *Error `json:"error,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("write json failed", "err", err)
	}
}

func Success(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Created(w http.ResponseWriter, data any, requestID string) {
	WriteJSON(w, http.StatusCreated, Envelope{Success: true, Data: data, RequestID: requestID})
}

func Fail(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &Error{Code: code, Message: message}, RequestID: requestID})
}

// FromError maps domain errors onto HTTP statuses. Unknown errors become an
// opaque 500; the detail stays in the server log.
func FromError(w http.ResponseWriter, err error, requestID string) {
	var ce *faults.ConfigurationError
	switch {
	case errors.Is(err, faults.ErrNotFound):
		Fail(w, http.StatusNotFound, "not_found", "record not found", requestID)
	case errors.Is(err, faults.ErrConflict):
		Fail(w, http.StatusConflict, "conflict", err.Error(), requestID)
	case faults.IsValidation(err):
		Fail(w, http.StatusUnprocessableEntity, "validation_failed", err.Error(), requestID)
	case faults.IsPermission(err):
		Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.As(err, &ce):
		WriteJSON(w, http.StatusUnprocessableEntity, Envelope{
			Success: false,
			Error: &Error{
				Code:    "configuration_invalid",
				Message: "activation aborted: fix the listed configuration problems",
				Details: ce.Problems,
			},
			RequestID: requestID,
		})
	default:
		slog.Error("request failed", "err", err, "requestId", requestID)
		Fail(w, http.StatusInternalServerError, "internal_error", "something went wrong", requestID)
	}
}
