// Package models provides data structures for the docsign service.
package models

import (
	"time"
)

// DocumentStatus represents the lifecycle state of a document.
type DocumentStatus string

const (
	// DocumentStatusDraft indicates the document has not been sent for signing.
	DocumentStatusDraft DocumentStatus = "draft"
	// DocumentStatusSent indicates an envelope is out for signing.
	DocumentStatusSent DocumentStatus = "sent"
	// DocumentStatusSigned indicates every signer of the active envelope signed.
	DocumentStatusSigned DocumentStatus = "signed"
	// DocumentStatusCancelled indicates the signing request was rejected,
	// cancelled or expired.
	DocumentStatusCancelled DocumentStatus = "cancelled"
)

// Document represents a document owned by a tenant. Documents are managed by
// an external CRUD surface; this service only flips their status through the
// status projector.
type Document struct {
	ID                string         `json:"id"`
	CompanyID         string         `json:"company_id"`
	BranchID          string         `json:"branch_id,omitempty"`
	Title             string         `json:"title"`
	Status            DocumentStatus `json:"status"`
	CurrentEnvelopeID string         `json:"current_envelope_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Tenant identifies the company (and optional branch) scoping boundary.
type Tenant struct {
	CompanyID string `json:"company_id"`
	BranchID  string `json:"branch_id,omitempty"`
}

// Tenant returns the document's owning tenant.
func (d *Document) Tenant() Tenant {
	return Tenant{CompanyID: d.CompanyID, BranchID: d.BranchID}
}
