package models

import (
	"time"
)

// EnvelopeStatus represents the lifecycle state of a signing envelope.
type EnvelopeStatus string

const (
	// EnvelopeStatusPending indicates the envelope is waiting on signers.
	EnvelopeStatusPending EnvelopeStatus = "pending"
	// EnvelopeStatusSigned indicates every signer signed.
	EnvelopeStatusSigned EnvelopeStatus = "signed"
	// EnvelopeStatusRejected indicates at least one signer rejected.
	EnvelopeStatusRejected EnvelopeStatus = "rejected"
	// EnvelopeStatusCancelled indicates staff cancelled the envelope.
	EnvelopeStatusCancelled EnvelopeStatus = "cancelled"
	// EnvelopeStatusExpired indicates the envelope passed its deadline unsigned.
	EnvelopeStatusExpired EnvelopeStatus = "expired"
)

// Terminal reports whether the status is a terminal state. Terminal states are
// never left.
func (s EnvelopeStatus) Terminal() bool {
	switch s {
	case EnvelopeStatusSigned, EnvelopeStatusRejected, EnvelopeStatusCancelled, EnvelopeStatusExpired:
		return true
	}
	return false
}

// Envelope represents a signing request wrapping one document and its signers.
type Envelope struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	Status     EnvelopeStatus `json:"status"`
	CreatedBy  string         `json:"created_by"`
	CompanyID  string         `json:"company_id"`
	BranchID   string         `json:"branch_id,omitempty"`
	ExpiresAt  time.Time      `json:"expires_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	// Signers is populated on detail and create responses.
	Signers []*Signer `json:"signers,omitempty"`
}

// Active reports whether the envelope blocks creation of a new envelope for
// the same document.
func (e *Envelope) Active() bool {
	return e.Status == EnvelopeStatusPending || e.Status == EnvelopeStatusSigned
}

// ExpiredAt reports whether the envelope's deadline has passed at the given
// instant. Only meaningful while the envelope is pending.
func (e *Envelope) ExpiredAt(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// Tenant returns the envelope's owning tenant.
func (e *Envelope) Tenant() Tenant {
	return Tenant{CompanyID: e.CompanyID, BranchID: e.BranchID}
}
