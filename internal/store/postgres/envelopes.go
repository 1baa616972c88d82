package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/store"
)

// EnvelopeStore implements store.EnvelopeStore using PostgreSQL.
type EnvelopeStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *EnvelopeStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const envelopeColumns = `id, document_id, status, created_by, company_id, branch_id, expires_at, created_at, updated_at`

// Create creates a new envelope. A partial unique index on document_id
// backstops the one-active-envelope invariant; violations surface as
// ErrDuplicateKey.
func (s *EnvelopeStore) Create(ctx context.Context, env *models.Envelope) error {
	if env.ID == "" {
		env.ID = uuid.New().String()
	}
	now := time.Now()
	if env.CreatedAt.IsZero() {
		env.CreatedAt = now
	}
	env.UpdatedAt = env.CreatedAt
	if env.Status == "" {
		env.Status = models.EnvelopeStatusPending
	}

	query := `
		INSERT INTO envelopes (id, document_id, status, created_by, company_id, branch_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.conn().ExecContext(ctx, query,
		env.ID,
		env.DocumentID,
		string(env.Status),
		env.CreatedBy,
		env.CompanyID,
		nullString(env.BranchID),
		env.ExpiresAt,
		env.CreatedAt,
		env.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicateKey
	}
	return err
}

// Get retrieves an envelope by ID.
func (s *EnvelopeStore) Get(ctx context.Context, id string) (*models.Envelope, error) {
	query := `SELECT ` + envelopeColumns + ` FROM envelopes WHERE id = $1`
	return s.scanOne(s.conn().QueryRowContext(ctx, query, id))
}

// GetActiveByDocument retrieves the pending or signed envelope for a document.
func (s *EnvelopeStore) GetActiveByDocument(ctx context.Context, documentID string) (*models.Envelope, error) {
	query := `
		SELECT ` + envelopeColumns + `
		FROM envelopes
		WHERE document_id = $1 AND status IN ('pending', 'signed')
		LIMIT 1
	`
	return s.scanOne(s.conn().QueryRowContext(ctx, query, documentID))
}

// ListPending retrieves pending envelopes scoped to a tenant, newest first.
func (s *EnvelopeStore) ListPending(ctx context.Context, tenant models.Tenant) ([]*models.Envelope, error) {
	query := `
		SELECT ` + envelopeColumns + `
		FROM envelopes
		WHERE status = 'pending' AND company_id = $1
		  AND ($2 = '' OR branch_id = $2)
		ORDER BY created_at DESC
	`

	rows, err := s.conn().QueryContext(ctx, query, tenant.CompanyID, tenant.BranchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanAll(rows)
}

// ListExpired retrieves pending envelopes overdue at the given instant.
func (s *EnvelopeStore) ListExpired(ctx context.Context, now time.Time) ([]*models.Envelope, error) {
	query := `
		SELECT ` + envelopeColumns + `
		FROM envelopes
		WHERE status = 'pending' AND expires_at <= $1
		ORDER BY expires_at ASC
	`

	rows, err := s.conn().QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanAll(rows)
}

// TransitionStatus performs a compare-and-swap on the envelope status. Only
// one caller can win a given transition; losers see zero rows affected.
func (s *EnvelopeStore) TransitionStatus(ctx context.Context, id string, from, to models.EnvelopeStatus) (bool, error) {
	query := `
		UPDATE envelopes
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	res, err := s.conn().ExecContext(ctx, query, string(to), time.Now(), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *EnvelopeStore) scanOne(row *sql.Row) (*models.Envelope, error) {
	var env models.Envelope
	var status string
	var branch sql.NullString

	err := row.Scan(
		&env.ID, &env.DocumentID, &status, &env.CreatedBy,
		&env.CompanyID, &branch, &env.ExpiresAt, &env.CreatedAt, &env.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	env.Status = models.EnvelopeStatus(status)
	env.BranchID = branch.String
	return &env, nil
}

func (s *EnvelopeStore) scanAll(rows *sql.Rows) ([]*models.Envelope, error) {
	var envelopes []*models.Envelope
	for rows.Next() {
		var env models.Envelope
		var status string
		var branch sql.NullString

		if err := rows.Scan(
			&env.ID, &env.DocumentID, &status, &env.CreatedBy,
			&env.CompanyID, &branch, &env.ExpiresAt, &env.CreatedAt, &env.UpdatedAt,
		); err != nil {
			return nil, err
		}

		env.Status = models.EnvelopeStatus(status)
		env.BranchID = branch.String
		envelopes = append(envelopes, &env)
	}
	return envelopes, rows.Err()
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
