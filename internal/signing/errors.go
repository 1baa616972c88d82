package signing

import (
	"errors"
	"fmt"
)

// Domain errors returned by the signing service.
var (
	// ErrNotFound is returned for unknown documents, envelopes, signers and
	// tokens. Token resolution failures are always reported this way; the
	// anonymous caller must not learn whether a token once existed.
	ErrNotFound = errors.New("not found")

	// ErrActiveEnvelopeExists is returned when creating an envelope for a
	// document that already has a pending or signed one.
	ErrActiveEnvelopeExists = errors.New("document already has an active envelope")

	// ErrInvalidState is returned when an action is not allowed in the
	// current envelope or signer state, including double actions on a token.
	ErrInvalidState = errors.New("action not allowed in current state")

	// ErrForbidden is returned when the caller's tenant scope does not cover
	// the target envelope or document.
	ErrForbidden = errors.New("operation not allowed for this tenant")
)

// FieldError describes a validation failure on a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of field-level validation failures. A
// request that fails validation performs no mutation.
type ValidationErrors []FieldError

// Add appends a validation failure for a field.
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any validation failure was recorded.
func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

// Error implements the error interface.
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	if len(v) == 1 {
		return fmt.Sprintf("%s: %s", v[0].Field, v[0].Message)
	}
	return fmt.Sprintf("%s: %s (and %d more errors)", v[0].Field, v[0].Message, len(v)-1)
}
