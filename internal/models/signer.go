package models

import (
	"time"
)

// SignerStatus represents the state of a single signer within an envelope.
type SignerStatus string

const (
	// SignerStatusPending indicates the signer has not acted yet.
	SignerStatusPending SignerStatus = "pending"
	// SignerStatusSigned indicates the signer signed.
	SignerStatusSigned SignerStatus = "signed"
	// SignerStatusRejected indicates the signer rejected.
	SignerStatusRejected SignerStatus = "rejected"
)

// Signer represents a named party authorized to sign or reject an envelope
// exactly once through an opaque capability token.
type Signer struct {
	ID         string       `json:"id"`
	EnvelopeID string       `json:"envelope_id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Order      int          `json:"order"`
	Status     SignerStatus `json:"status"`
	SignedAt   *time.Time   `json:"signed_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`

	// Token is the plaintext capability token. It is set only on the
	// create-envelope response; only its keyed hash is persisted.
	Token string `json:"token,omitempty"`
	// TokenHash is the keyed hash stored in place of the token.
	TokenHash string `json:"-"`
}
