// Package handlers implements the HTTP handlers for the docsign API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/firmaria/docsign/internal/auth"
	"github.com/firmaria/docsign/internal/signing"
)

// ErrorResponse is the standard error envelope returned by the API.
type ErrorResponse struct {
	Code    string               `json:"code"`
	Message string               `json:"message"`
	Fields  []signing.FieldError `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// WriteError maps a domain error onto an HTTP status and writes the standard
// error envelope. Unknown errors become an opaque 500.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verrs signing.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    "validation_failed",
			Message: "Request validation failed",
			Fields:  verrs,
		})
	case errors.Is(err, signing.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, ErrorResponse{
			Code:    "not_found",
			Message: "Resource not found",
		})
	case errors.Is(err, signing.ErrActiveEnvelopeExists):
		WriteJSON(w, http.StatusConflict, ErrorResponse{
			Code:    "active_envelope_exists",
			Message: "Document already has an active envelope",
		})
	case errors.Is(err, signing.ErrInvalidState):
		WriteJSON(w, http.StatusConflict, ErrorResponse{
			Code:    "invalid_state",
			Message: "Action not allowed in the current state",
		})
	case errors.Is(err, signing.ErrForbidden):
		WriteJSON(w, http.StatusForbidden, ErrorResponse{
			Code:    "forbidden",
			Message: "Access denied",
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Code:    "invalid_credentials",
			Message: "Invalid email or password",
		})
	default:
		logger.Error("request failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    "internal_error",
			Message: "An unexpected error occurred",
		})
	}
}

// DecodeJSON decodes a request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var errs signing.ValidationErrors
		errs.Add("body", "request body is not valid JSON")
		return errs
	}
	return nil
}
