package signing

import (
	"context"
	"fmt"
	"time"

	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/store"
)

// Action is what a token holder can do with an envelope.
type Action string

const (
	// ActionSign marks the signer as signed.
	ActionSign Action = "sign"
	// ActionReject rejects the envelope on behalf of the signer.
	ActionReject Action = "reject"
)

// ParseAction validates an action string from the public surface.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionSign:
		return ActionSign, nil
	case ActionReject:
		return ActionReject, nil
	}
	var errs ValidationErrors
	errs.Add("action", `action must be "sign" or "reject"`)
	return "", errs
}

// SigningContext is the view a token resolves to: the signer, their envelope
// and the wrapped document.
type SigningContext struct {
	Signer   *models.Signer   `json:"signer"`
	Envelope *models.Envelope `json:"envelope"`
	Document *models.Document `json:"document"`
}

// Resolve maps a capability token back to its signer, envelope and document.
// Every failure is ErrNotFound; the anonymous caller never learns whether a
// token is expired, used or simply unknown.
func (s *Service) Resolve(ctx context.Context, token string) (*SigningContext, error) {
	signer, err := s.store.Signers().GetByTokenHash(ctx, s.issuer.Hash(token))
	if err != nil {
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	if signer == nil {
		return nil, ErrNotFound
	}

	env, err := s.store.Envelopes().Get(ctx, signer.EnvelopeID)
	if err != nil {
		return nil, fmt.Errorf("loading envelope: %w", err)
	}
	if env == nil {
		return nil, ErrNotFound
	}

	doc, err := s.store.Documents().Get(ctx, env.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}

	return &SigningContext{Signer: signer, Envelope: env, Document: doc}, nil
}

// Act applies a signer's decision and evaluates envelope completion:
// a reject finalizes the envelope immediately; a sign finalizes it once every
// signer has signed. A token is single-use per outcome: acting on a
// non-pending signer fails with ErrInvalidState and mutates nothing.
func (s *Service) Act(ctx context.Context, token string, action Action) (*SigningContext, error) {
	sc, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if sc.Envelope.Status != models.EnvelopeStatusPending {
		return nil, ErrInvalidState
	}
	// An overdue envelope the sweeper has not reached yet is already dead
	// for signing purposes.
	if sc.Envelope.ExpiredAt(now) {
		return nil, ErrInvalidState
	}
	if sc.Signer.Status != models.SignerStatusPending {
		return nil, ErrInvalidState
	}

	var (
		won      bool
		terminal models.EnvelopeStatus
	)
	err = s.store.WithTx(ctx, func(st store.Store) error {
		// Re-read under the transaction to close the double-action window.
		signer, err := st.Signers().Get(ctx, sc.Signer.ID)
		if err != nil {
			return fmt.Errorf("reloading signer: %w", err)
		}
		if signer == nil || signer.Status != models.SignerStatusPending {
			return ErrInvalidState
		}

		switch action {
		case ActionSign:
			signedAt := now
			if err := st.Signers().SetStatus(ctx, signer.ID, models.SignerStatusSigned, &signedAt); err != nil {
				return fmt.Errorf("updating signer: %w", err)
			}
			sc.Signer.Status = models.SignerStatusSigned
			sc.Signer.SignedAt = &signedAt

			pending, err := st.Signers().CountPending(ctx, sc.Envelope.ID)
			if err != nil {
				return fmt.Errorf("counting pending signers: %w", err)
			}
			if pending == 0 {
				terminal = models.EnvelopeStatusSigned
			}
		case ActionReject:
			if err := st.Signers().SetStatus(ctx, signer.ID, models.SignerStatusRejected, nil); err != nil {
				return fmt.Errorf("updating signer: %w", err)
			}
			sc.Signer.Status = models.SignerStatusRejected
			// Rejection short-circuits; remaining signers are not consulted.
			terminal = models.EnvelopeStatusRejected
		default:
			return ErrInvalidState
		}

		if terminal != "" {
			var txErr error
			won, txErr = s.finalize(ctx, st, sc.Envelope, terminal)
			return txErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	eventType := models.EventSignerSigned
	if action == ActionReject {
		eventType = models.EventSignerRejected
	}
	s.publish(&models.EnvelopeEvent{
		Type:           eventType,
		EnvelopeID:     sc.Envelope.ID,
		DocumentID:     sc.Document.ID,
		SignerID:       sc.Signer.ID,
		EnvelopeStatus: sc.Envelope.Status,
		CompanyID:      sc.Envelope.CompanyID,
	})

	if terminal != "" && won {
		docStatus, _ := ProjectStatus(terminal)
		s.publish(&models.EnvelopeEvent{
			Type:           models.EventEnvelopeFinalized,
			EnvelopeID:     sc.Envelope.ID,
			DocumentID:     sc.Document.ID,
			EnvelopeStatus: terminal,
			DocumentStatus: docStatus,
			CompanyID:      sc.Envelope.CompanyID,
		})
		s.logger.Info("envelope finalized",
			"envelope_id", sc.Envelope.ID,
			"status", terminal,
		)
	}

	// Report the stored state, which may differ from the local view if a
	// concurrent finalization won.
	if env, err := s.store.Envelopes().Get(ctx, sc.Envelope.ID); err == nil && env != nil {
		sc.Envelope = env
	}
	if doc, err := s.store.Documents().Get(ctx, sc.Document.ID); err == nil && doc != nil {
		sc.Document = doc
	}
	return sc, nil
}
