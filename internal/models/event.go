package models

import (
	"time"
)

// EventType identifies a change on an envelope or one of its signers.
type EventType string

const (
	// EventEnvelopeCreated is published when an envelope is created.
	EventEnvelopeCreated EventType = "envelope.created"
	// EventSignerSigned is published when a signer signs.
	EventSignerSigned EventType = "signer.signed"
	// EventSignerRejected is published when a signer rejects.
	EventSignerRejected EventType = "signer.rejected"
	// EventEnvelopeFinalized is published when an envelope reaches a terminal state.
	EventEnvelopeFinalized EventType = "envelope.finalized"
	// EventReminderRequested is published when staff request a reminder. The
	// notification collaborator subscribes to these; no state changes.
	EventReminderRequested EventType = "envelope.reminder"
)

// EnvelopeEvent describes a state change for subscribers (notification
// collaborator, staff UI streams).
type EnvelopeEvent struct {
	Type           EventType      `json:"type"`
	EnvelopeID     string         `json:"envelope_id"`
	DocumentID     string         `json:"document_id"`
	SignerID       string         `json:"signer_id,omitempty"`
	EnvelopeStatus EnvelopeStatus `json:"envelope_status"`
	DocumentStatus DocumentStatus `json:"document_status,omitempty"`
	CompanyID      string         `json:"company_id"`
	At             time.Time      `json:"at"`
}
