package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/firmaria/docsign/internal/models"
)

// DocumentStore implements store.DocumentStore using PostgreSQL.
type DocumentStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *DocumentStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a new document.
func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt
	if doc.Status == "" {
		doc.Status = models.DocumentStatusDraft
	}

	query := `
		INSERT INTO documents (id, company_id, branch_id, title, status, current_envelope_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.conn().ExecContext(ctx, query,
		doc.ID,
		doc.CompanyID,
		nullString(doc.BranchID),
		doc.Title,
		string(doc.Status),
		nullString(doc.CurrentEnvelopeID),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// Get retrieves a document by ID.
func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	query := `
		SELECT id, company_id, branch_id, title, status, current_envelope_id, created_at, updated_at
		FROM documents WHERE id = $1
	`

	var doc models.Document
	var status string
	var branch, currentEnvelope sql.NullString

	err := s.conn().QueryRowContext(ctx, query, id).Scan(
		&doc.ID, &doc.CompanyID, &branch, &doc.Title,
		&status, &currentEnvelope, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	doc.Status = models.DocumentStatus(status)
	doc.BranchID = branch.String
	doc.CurrentEnvelopeID = currentEnvelope.String
	return &doc, nil
}

// SetStatus updates a document's status and current-envelope pointer. This is
// the only write path; applying the status projector is the only way a
// document leaves the sent state.
func (s *DocumentStore) SetStatus(ctx context.Context, id string, status models.DocumentStatus, currentEnvelopeID string) error {
	query := `
		UPDATE documents
		SET status = $1, current_envelope_id = $2, updated_at = $3
		WHERE id = $4
	`

	_, err := s.conn().ExecContext(ctx, query,
		string(status),
		nullString(currentEnvelopeID),
		time.Now(),
		id,
	)
	return err
}
