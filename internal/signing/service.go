// Package signing implements the document co-signing core: envelope
// lifecycle, signer capability tokens, completion evaluation, status
// projection and expiration sweeping.
package signing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/firmaria/docsign/internal/auth"
	"github.com/firmaria/docsign/internal/events"
	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/store"
)

// DefaultTTL is the envelope lifetime used when the caller does not pass one.
const DefaultTTL = 14 * 24 * time.Hour

// Actor identifies the staff caller of a tenant-scoped operation. The HTTP
// layer resolves it from the session; the core only evaluates it as an
// authorization predicate.
type Actor struct {
	UserID string
	Role   models.Role
	Tenant models.Tenant
}

// Service implements the envelope store and completion evaluator.
type Service struct {
	store      store.Store
	issuer     *Issuer
	events     *events.Broker
	defaultTTL time.Duration
	logger     *slog.Logger
}

// NewService creates a new signing service. The broker may be nil when no
// collaborator consumes events (e.g. the one-shot sweeper binary).
func NewService(st store.Store, issuer *Issuer, broker *events.Broker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		issuer:     issuer,
		events:     broker,
		defaultTTL: DefaultTTL,
		logger:     logger,
	}
}

// SetDefaultTTL overrides the default envelope lifetime.
func (s *Service) SetDefaultTTL(ttl time.Duration) {
	if ttl > 0 {
		s.defaultTTL = ttl
	}
}

// NewSigner describes one signer of a new envelope.
type NewSigner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Order int    `json:"order"`
}

// CreateParams describes a new envelope.
type CreateParams struct {
	DocumentID string
	Signers    []NewSigner
	TTL        time.Duration
}

func (p CreateParams) validate() ValidationErrors {
	var errs ValidationErrors
	if p.DocumentID == "" {
		errs.Add("document_id", "document_id is required")
	}
	if len(p.Signers) == 0 {
		errs.Add("signers", "at least one signer is required")
	}
	for i, signer := range p.Signers {
		if strings.TrimSpace(signer.Name) == "" {
			errs.Add(fmt.Sprintf("signers[%d].name", i), "name is required")
		}
		if strings.TrimSpace(signer.Email) == "" {
			errs.Add(fmt.Sprintf("signers[%d].email", i), "email is required")
		} else if !strings.Contains(signer.Email, "@") {
			errs.Add(fmt.Sprintf("signers[%d].email", i), "email is not valid")
		}
	}
	return errs
}

// Create creates an envelope with its signers atomically and flips the
// document to sent. Fails with ErrActiveEnvelopeExists while a pending or
// signed envelope references the document. The returned signers carry their
// plaintext tokens; this is the only time tokens are exposed.
func (s *Service) Create(ctx context.Context, actor Actor, p CreateParams) (*models.Envelope, error) {
	if errs := p.validate(); errs.HasErrors() {
		return nil, errs
	}

	ttl := p.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	var env *models.Envelope
	err := s.store.WithTx(ctx, func(st store.Store) error {
		doc, err := st.Documents().Get(ctx, p.DocumentID)
		if err != nil {
			return fmt.Errorf("loading document: %w", err)
		}
		if doc == nil {
			return fmt.Errorf("document %q: %w", p.DocumentID, ErrNotFound)
		}
		if !auth.CanManageTenant(actor.Role, actor.Tenant, doc.Tenant()) {
			return ErrForbidden
		}

		active, err := st.Envelopes().GetActiveByDocument(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("checking active envelope: %w", err)
		}
		if active != nil {
			return ErrActiveEnvelopeExists
		}

		now := time.Now()
		env = &models.Envelope{
			DocumentID: doc.ID,
			Status:     models.EnvelopeStatusPending,
			CreatedBy:  actor.UserID,
			CompanyID:  doc.CompanyID,
			BranchID:   doc.BranchID,
			ExpiresAt:  now.Add(ttl),
		}
		if err := st.Envelopes().Create(ctx, env); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return ErrActiveEnvelopeExists
			}
			return fmt.Errorf("creating envelope: %w", err)
		}

		for _, ns := range p.Signers {
			signer, err := s.addSigner(ctx, st, env.ID, ns)
			if err != nil {
				return err
			}
			env.Signers = append(env.Signers, signer)
		}

		if err := st.Documents().SetStatus(ctx, doc.ID, models.DocumentStatusSent, env.ID); err != nil {
			return fmt.Errorf("marking document sent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(&models.EnvelopeEvent{
		Type:           models.EventEnvelopeCreated,
		EnvelopeID:     env.ID,
		DocumentID:     env.DocumentID,
		EnvelopeStatus: env.Status,
		CompanyID:      env.CompanyID,
	})

	s.logger.Info("envelope created",
		"envelope_id", env.ID,
		"document_id", env.DocumentID,
		"signers", len(env.Signers),
		"expires_at", env.ExpiresAt,
	)
	return env, nil
}

// addSigner creates a signer row with a freshly minted capability token. The
// plaintext token is set on the returned signer only.
func (s *Service) addSigner(ctx context.Context, st store.Store, envelopeID string, ns NewSigner) (*models.Signer, error) {
	token, err := s.issuer.Mint()
	if err != nil {
		return nil, fmt.Errorf("minting token: %w", err)
	}

	signer := &models.Signer{
		EnvelopeID: envelopeID,
		Name:       strings.TrimSpace(ns.Name),
		Email:      strings.TrimSpace(ns.Email),
		Order:      ns.Order,
		Status:     models.SignerStatusPending,
		TokenHash:  s.issuer.Hash(token),
	}
	if err := st.Signers().Create(ctx, signer); err != nil {
		return nil, fmt.Errorf("creating signer: %w", err)
	}

	signer.Token = token
	return signer, nil
}

// Get retrieves an envelope with its signers. Signer tokens are never
// included; only their status and display fields.
func (s *Service) Get(ctx context.Context, actor Actor, envelopeID string) (*models.Envelope, error) {
	env, err := s.store.Envelopes().Get(ctx, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("loading envelope: %w", err)
	}
	if env == nil {
		return nil, ErrNotFound
	}
	if !auth.CanManageTenant(actor.Role, actor.Tenant, env.Tenant()) {
		return nil, ErrForbidden
	}

	signers, err := s.store.Signers().ListByEnvelope(ctx, env.ID)
	if err != nil {
		return nil, fmt.Errorf("loading signers: %w", err)
	}
	env.Signers = signers
	return env, nil
}

// ListPending retrieves the pending envelopes within the actor's tenant scope.
func (s *Service) ListPending(ctx context.Context, actor Actor) ([]*models.Envelope, error) {
	return s.store.Envelopes().ListPending(ctx, actor.Tenant)
}

// Cancel cancels a pending envelope and projects the outcome onto the
// document. Fails with ErrInvalidState once the envelope is terminal.
func (s *Service) Cancel(ctx context.Context, actor Actor, envelopeID string) (*models.Envelope, error) {
	env, err := s.store.Envelopes().Get(ctx, envelopeID)
	if err != nil {
		return nil, fmt.Errorf("loading envelope: %w", err)
	}
	if env == nil {
		return nil, ErrNotFound
	}
	if !auth.CanManageTenant(actor.Role, actor.Tenant, env.Tenant()) {
		return nil, ErrForbidden
	}
	if env.Status != models.EnvelopeStatusPending {
		return nil, ErrInvalidState
	}

	var won bool
	err = s.store.WithTx(ctx, func(st store.Store) error {
		var txErr error
		won, txErr = s.finalize(ctx, st, env, models.EnvelopeStatusCancelled)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	if !won {
		// Lost the race against another terminal transition.
		return nil, ErrInvalidState
	}

	docStatus, _ := ProjectStatus(env.Status)
	s.publish(&models.EnvelopeEvent{
		Type:           models.EventEnvelopeFinalized,
		EnvelopeID:     env.ID,
		DocumentID:     env.DocumentID,
		EnvelopeStatus: env.Status,
		DocumentStatus: docStatus,
		CompanyID:      env.CompanyID,
	})

	s.logger.Info("envelope cancelled", "envelope_id", env.ID, "cancelled_by", actor.UserID)
	return env, nil
}

// Remind validates that a reminder may be sent for a pending envelope and
// publishes a reminder event for the notification collaborator. No state
// changes.
func (s *Service) Remind(ctx context.Context, actor Actor, envelopeID string) error {
	env, err := s.store.Envelopes().Get(ctx, envelopeID)
	if err != nil {
		return fmt.Errorf("loading envelope: %w", err)
	}
	if env == nil {
		return ErrNotFound
	}
	if !auth.CanManageTenant(actor.Role, actor.Tenant, env.Tenant()) {
		return ErrForbidden
	}
	if env.Status != models.EnvelopeStatusPending {
		return ErrInvalidState
	}

	s.publish(&models.EnvelopeEvent{
		Type:           models.EventReminderRequested,
		EnvelopeID:     env.ID,
		DocumentID:     env.DocumentID,
		EnvelopeStatus: env.Status,
		CompanyID:      env.CompanyID,
	})
	return nil
}

// finalize performs the guarded terminal transition. Only the caller that
// wins the compare-and-swap applies the status projector; a losing caller
// observes the already-terminal state and must not re-mutate.
func (s *Service) finalize(ctx context.Context, st store.Store, env *models.Envelope, to models.EnvelopeStatus) (bool, error) {
	won, err := st.Envelopes().TransitionStatus(ctx, env.ID, models.EnvelopeStatusPending, to)
	if err != nil {
		return false, fmt.Errorf("transitioning envelope status: %w", err)
	}
	if !won {
		return false, nil
	}

	docStatus, ok := ProjectStatus(to)
	if !ok {
		return false, fmt.Errorf("no projection for envelope status %q", to)
	}
	if err := st.Documents().SetStatus(ctx, env.DocumentID, docStatus, env.ID); err != nil {
		return false, fmt.Errorf("projecting document status: %w", err)
	}

	env.Status = to
	return true, nil
}

func (s *Service) publish(event *models.EnvelopeEvent) {
	if s.events == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}
	s.events.Publish(event)
}
