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

// SignerStore implements store.SignerStore using PostgreSQL.
type SignerStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *SignerStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

const signerColumns = `id, envelope_id, name, email, sign_order, status, token_hash, signed_at, created_at`

// Create creates a new signer row. The plaintext token never reaches the
// database; only TokenHash is stored.
func (s *SignerStore) Create(ctx context.Context, signer *models.Signer) error {
	if signer.ID == "" {
		signer.ID = uuid.New().String()
	}
	if signer.CreatedAt.IsZero() {
		signer.CreatedAt = time.Now()
	}
	if signer.Status == "" {
		signer.Status = models.SignerStatusPending
	}

	query := `
		INSERT INTO signers (id, envelope_id, name, email, sign_order, status, token_hash, signed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.conn().ExecContext(ctx, query,
		signer.ID,
		signer.EnvelopeID,
		signer.Name,
		signer.Email,
		signer.Order,
		string(signer.Status),
		signer.TokenHash,
		signer.SignedAt,
		signer.CreatedAt,
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicateKey
	}
	return err
}

// Get retrieves a signer by ID.
func (s *SignerStore) Get(ctx context.Context, id string) (*models.Signer, error) {
	query := `SELECT ` + signerColumns + ` FROM signers WHERE id = $1`
	return s.scanOne(s.conn().QueryRowContext(ctx, query, id))
}

// GetByTokenHash retrieves a signer by its token hash.
func (s *SignerStore) GetByTokenHash(ctx context.Context, hash string) (*models.Signer, error) {
	query := `SELECT ` + signerColumns + ` FROM signers WHERE token_hash = $1`
	return s.scanOne(s.conn().QueryRowContext(ctx, query, hash))
}

// ListByEnvelope retrieves all signers of an envelope in display order.
func (s *SignerStore) ListByEnvelope(ctx context.Context, envelopeID string) ([]*models.Signer, error) {
	query := `
		SELECT ` + signerColumns + `
		FROM signers
		WHERE envelope_id = $1
		ORDER BY sign_order ASC, created_at ASC
	`

	rows, err := s.conn().QueryContext(ctx, query, envelopeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signers []*models.Signer
	for rows.Next() {
		signer, err := s.scanRow(rows)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	return signers, rows.Err()
}

// SetStatus updates a signer's status and signed timestamp.
func (s *SignerStore) SetStatus(ctx context.Context, id string, status models.SignerStatus, signedAt *time.Time) error {
	query := `
		UPDATE signers
		SET status = $1, signed_at = $2
		WHERE id = $3
	`

	_, err := s.conn().ExecContext(ctx, query, string(status), signedAt, id)
	return err
}

// CountPending returns how many signers of the envelope have not acted yet.
func (s *SignerStore) CountPending(ctx context.Context, envelopeID string) (int, error) {
	query := `SELECT COUNT(*) FROM signers WHERE envelope_id = $1 AND status = 'pending'`

	var count int
	if err := s.conn().QueryRowContext(ctx, query, envelopeID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SignerStore) scanOne(row *sql.Row) (*models.Signer, error) {
	signer, err := s.scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return signer, nil
}

func (s *SignerStore) scanRow(row rowScanner) (*models.Signer, error) {
	var signer models.Signer
	var status string
	var signedAt sql.NullTime

	err := row.Scan(
		&signer.ID, &signer.EnvelopeID, &signer.Name, &signer.Email,
		&signer.Order, &status, &signer.TokenHash, &signedAt, &signer.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	signer.Status = models.SignerStatus(status)
	if signedAt.Valid {
		signer.SignedAt = &signedAt.Time
	}
	return &signer, nil
}
