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

// UserStore implements store.UserStore using PostgreSQL.
type UserStore struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *slog.Logger
}

func (s *UserStore) conn() queryable {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Create creates a staff user. The password must already be hashed.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, role, company_id, branch_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.conn().ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		string(user.Role),
		user.CompanyID,
		nullString(user.BranchID),
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return store.ErrDuplicateKey
	}
	return err
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, company_id, branch_id, created_at
		FROM users WHERE id = $1
	`
	return s.scanOne(s.conn().QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, name, password_hash, role, company_id, branch_id, created_at
		FROM users WHERE email = $1
	`
	return s.scanOne(s.conn().QueryRowContext(ctx, query, email))
}

func (s *UserStore) scanOne(row *sql.Row) (*models.User, error) {
	var user models.User
	var role string
	var branch sql.NullString

	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash,
		&role, &user.CompanyID, &branch, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	user.Role = models.Role(role)
	user.BranchID = branch.String
	return &user, nil
}
