// Package store provides database access interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/firmaria/docsign/internal/models"
)

// ErrDuplicateKey is returned when a create violates a uniqueness constraint,
// including the one-active-envelope-per-document backstop index.
var ErrDuplicateKey = errors.New("duplicate key")

// DocumentStore defines operations on documents. Document CRUD lives in an
// external surface; this service only reads documents and projects envelope
// outcomes onto their status.
type DocumentStore interface {
	// Create creates a new document.
	Create(ctx context.Context, doc *models.Document) error
	// Get retrieves a document by ID. Returns nil without error when absent.
	Get(ctx context.Context, id string) (*models.Document, error)
	// SetStatus updates a document's status and current-envelope pointer.
	SetStatus(ctx context.Context, id string, status models.DocumentStatus, currentEnvelopeID string) error
}

// EnvelopeStore defines operations on signing envelopes.
type EnvelopeStore interface {
	// Create creates a new envelope.
	Create(ctx context.Context, env *models.Envelope) error
	// Get retrieves an envelope by ID. Returns nil without error when absent.
	Get(ctx context.Context, id string) (*models.Envelope, error)
	// GetActiveByDocument retrieves the pending or signed envelope referencing
	// the document, if any.
	GetActiveByDocument(ctx context.Context, documentID string) (*models.Envelope, error)
	// ListPending retrieves pending envelopes for a tenant. An empty branch
	// matches every branch of the company.
	ListPending(ctx context.Context, tenant models.Tenant) ([]*models.Envelope, error)
	// ListExpired retrieves pending envelopes whose deadline passed at or
	// before the given instant.
	ListExpired(ctx context.Context, now time.Time) ([]*models.Envelope, error)
	// TransitionStatus atomically moves an envelope from one status to
	// another. Returns false when the envelope was not in the expected
	// status, i.e. the compare-and-swap lost.
	TransitionStatus(ctx context.Context, id string, from, to models.EnvelopeStatus) (bool, error)
}

// SignerStore defines operations on envelope signers.
type SignerStore interface {
	// Create creates a new signer row. The signer's TokenHash must be set;
	// the plaintext token is never persisted.
	Create(ctx context.Context, signer *models.Signer) error
	// Get retrieves a signer by ID. Returns nil without error when absent.
	Get(ctx context.Context, id string) (*models.Signer, error)
	// GetByTokenHash retrieves a signer by its token hash. Returns nil
	// without error when absent.
	GetByTokenHash(ctx context.Context, hash string) (*models.Signer, error)
	// ListByEnvelope retrieves all signers of an envelope ordered by their
	// display order.
	ListByEnvelope(ctx context.Context, envelopeID string) ([]*models.Signer, error)
	// SetStatus updates a signer's status and signed timestamp.
	SetStatus(ctx context.Context, id string, status models.SignerStatus, signedAt *time.Time) error
	// CountPending returns the number of signers of the envelope still pending.
	CountPending(ctx context.Context, envelopeID string) (int, error)
}

// UserStore defines operations for staff user lookup.
type UserStore interface {
	// Create creates a staff user with a pre-hashed password.
	Create(ctx context.Context, user *models.User) error
	// GetByID retrieves a user by ID. Returns nil without error when absent.
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByEmail retrieves a user by email. Returns nil without error when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store is the main interface for database operations.
type Store interface {
	// Documents returns the DocumentStore.
	Documents() DocumentStore
	// Envelopes returns the EnvelopeStore.
	Envelopes() EnvelopeStore
	// Signers returns the SignerStore.
	Signers() SignerStore
	// Users returns the UserStore.
	Users() UserStore

	// WithTx executes the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// Otherwise, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
