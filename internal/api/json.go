package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/pocketnotes/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// statusFor maps an error category to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUpload), errors.Is(err, apperr.ErrStore):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs server-side failures and writes the error body.
// Internal errors are not echoed to the client.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("error", err.Error()))
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody(msg))
}
