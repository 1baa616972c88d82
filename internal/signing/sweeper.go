package signing

import (
	"context"
	"fmt"
	"time"

	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/store"
)

// Sweep forces pending envelopes overdue at the given instant into the
// expired state and projects the outcome onto their documents. It returns the
// number of envelopes processed. Per-envelope failures are logged and
// skipped; the sweep never aborts on them. Scheduling is owned by the caller,
// and concurrent sweeps (or a sweep racing a signer action) are safe: the
// compare-and-swap inside finalize admits exactly one winner per envelope.
func (s *Service) Sweep(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.store.Envelopes().ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("listing overdue envelopes: %w", err)
	}

	processed := 0
	for _, env := range overdue {
		var won bool
		err := s.store.WithTx(ctx, func(st store.Store) error {
			var txErr error
			won, txErr = s.finalize(ctx, st, env, models.EnvelopeStatusExpired)
			return txErr
		})
		if err != nil {
			s.logger.Error("failed to expire envelope",
				"envelope_id", env.ID,
				"error", err,
			)
			continue
		}
		if !won {
			// Someone else finalized it since the listing; nothing to do.
			continue
		}

		processed++
		docStatus, _ := ProjectStatus(models.EnvelopeStatusExpired)
		s.publish(&models.EnvelopeEvent{
			Type:           models.EventEnvelopeFinalized,
			EnvelopeID:     env.ID,
			DocumentID:     env.DocumentID,
			EnvelopeStatus: models.EnvelopeStatusExpired,
			DocumentStatus: docStatus,
			CompanyID:      env.CompanyID,
		})
	}

	if processed > 0 {
		s.logger.Info("expiration sweep completed", "processed", processed)
	}
	return processed, nil
}
