package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"assetrent-backend/internal/domain"
)

type errorBody struct {
	Error      string `json:"error"`
	Field      string `json:"field,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Retryable  bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps a service error onto an HTTP status and response body.
func statusFor(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var validation *domain.ValidationError
	var duplicate *domain.DuplicateIdentifierError
	switch {
	case errors.As(err, &validation):
		body.Field = validation.Field
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &duplicate):
		body.Identifier = duplicate.Identifier
		body.Retryable = duplicate.Retryable()
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrReferenceNotFound):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, body
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, body
	case errors.Is(err, domain.ErrSweepInProgress):
		return http.StatusConflict, body
	case errors.Is(err, domain.ErrConcurrencyConflict):
		body.Retryable = true
		return http.StatusConflict, body
	}
	return http.StatusInternalServerError, errorBody{Error: "internal error"}
}
