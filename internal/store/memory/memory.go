// Package memory provides an in-memory Store implementation used by tests and
// local development. It mirrors the semantics of the PostgreSQL store,
// including the compare-and-swap status transition and the active-envelope
// uniqueness backstop.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu        sync.RWMutex
	documents map[string]*models.Document
	envelopes map[string]*models.Envelope
	signers   map[string]*models.Signer
	users     map[string]*models.User
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]*models.Document),
		envelopes: make(map[string]*models.Envelope),
		signers:   make(map[string]*models.Signer),
		users:     make(map[string]*models.User),
	}
}

// Documents returns the DocumentStore.
func (s *Store) Documents() store.DocumentStore { return (*documentStore)(s) }

// Envelopes returns the EnvelopeStore.
func (s *Store) Envelopes() store.EnvelopeStore { return (*envelopeStore)(s) }

// Signers returns the SignerStore.
func (s *Store) Signers() store.SignerStore { return (*signerStore)(s) }

// Users returns the UserStore.
func (s *Store) Users() store.UserStore { return (*userStore)(s) }

// WithTx executes fn against the same store. The in-memory store has no
// transactions; each operation is individually atomic.
func (s *Store) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(s)
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }

type documentStore Store

func (s *documentStore) Create(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}
	doc.UpdatedAt = doc.CreatedAt
	if doc.Status == "" {
		doc.Status = models.DocumentStatusDraft
	}

	cp := *doc
	s.documents[doc.ID] = &cp
	return nil
}

func (s *documentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (s *documentStore) SetStatus(ctx context.Context, id string, status models.DocumentStatus, currentEnvelopeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil
	}
	doc.Status = status
	doc.CurrentEnvelopeID = currentEnvelopeID
	doc.UpdatedAt = time.Now()
	return nil
}

type envelopeStore Store

func (s *envelopeStore) Create(ctx context.Context, env *models.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.envelopes {
		if existing.DocumentID == env.DocumentID && existing.Active() {
			return store.ErrDuplicateKey
		}
	}

	if env.ID == "" {
		env.ID = uuid.New().String()
	}
	if env.CreatedAt.IsZero() {
		env.CreatedAt = time.Now()
	}
	env.UpdatedAt = env.CreatedAt
	if env.Status == "" {
		env.Status = models.EnvelopeStatusPending
	}

	cp := *env
	cp.Signers = nil
	s.envelopes[env.ID] = &cp
	return nil
}

func (s *envelopeStore) Get(ctx context.Context, id string) (*models.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	env, ok := s.envelopes[id]
	if !ok {
		return nil, nil
	}
	cp := *env
	return &cp, nil
}

func (s *envelopeStore) GetActiveByDocument(ctx context.Context, documentID string) (*models.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, env := range s.envelopes {
		if env.DocumentID == documentID && env.Active() {
			cp := *env
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *envelopeStore) ListPending(ctx context.Context, tenant models.Tenant) ([]*models.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Envelope
	for _, env := range s.envelopes {
		if env.Status != models.EnvelopeStatusPending {
			continue
		}
		if env.CompanyID != tenant.CompanyID {
			continue
		}
		if tenant.BranchID != "" && env.BranchID != tenant.BranchID {
			continue
		}
		cp := *env
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *envelopeStore) ListExpired(ctx context.Context, now time.Time) ([]*models.Envelope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Envelope
	for _, env := range s.envelopes {
		if env.Status == models.EnvelopeStatusPending && !env.ExpiresAt.After(now) {
			cp := *env
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (s *envelopeStore) TransitionStatus(ctx context.Context, id string, from, to models.EnvelopeStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env, ok := s.envelopes[id]
	if !ok || env.Status != from {
		return false, nil
	}
	env.Status = to
	env.UpdatedAt = time.Now()
	return true, nil
}

type signerStore Store

func (s *signerStore) Create(ctx context.Context, signer *models.Signer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.signers {
		if existing.TokenHash == signer.TokenHash {
			return store.ErrDuplicateKey
		}
	}

	if signer.ID == "" {
		signer.ID = uuid.New().String()
	}
	if signer.CreatedAt.IsZero() {
		signer.CreatedAt = time.Now()
	}
	if signer.Status == "" {
		signer.Status = models.SignerStatusPending
	}

	cp := *signer
	cp.Token = ""
	s.signers[signer.ID] = &cp
	return nil
}

func (s *signerStore) Get(ctx context.Context, id string) (*models.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	signer, ok := s.signers[id]
	if !ok {
		return nil, nil
	}
	cp := *signer
	return &cp, nil
}

func (s *signerStore) GetByTokenHash(ctx context.Context, hash string) (*models.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, signer := range s.signers {
		if signer.TokenHash == hash {
			cp := *signer
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *signerStore) ListByEnvelope(ctx context.Context, envelopeID string) ([]*models.Signer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Signer
	for _, signer := range s.signers {
		if signer.EnvelopeID == envelopeID {
			cp := *signer
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *signerStore) SetStatus(ctx context.Context, id string, status models.SignerStatus, signedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	signer, ok := s.signers[id]
	if !ok {
		return nil
	}
	signer.Status = status
	signer.SignedAt = signedAt
	return nil
}

func (s *signerStore) CountPending(ctx context.Context, envelopeID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, signer := range s.signers {
		if signer.EnvelopeID == envelopeID && signer.Status == models.SignerStatusPending {
			count++
		}
	}
	return count, nil
}

type userStore Store

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrDuplicateKey
		}
	}

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}
