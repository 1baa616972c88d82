package signing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/store/memory"
)

func seedPendingEnvelope(t *testing.T, st *memory.Store, companyID string, expiresAt time.Time) (*models.Document, *models.Envelope) {
	t.Helper()
	ctx := context.Background()

	doc := seedDocument(t, st, companyID, "")
	env := &models.Envelope{
		DocumentID: doc.ID,
		Status:     models.EnvelopeStatusPending,
		CompanyID:  companyID,
		ExpiresAt:  expiresAt,
	}
	require.NoError(t, st.Envelopes().Create(ctx, env))
	require.NoError(t, st.Documents().SetStatus(ctx, doc.ID, models.DocumentStatusSent, env.ID))
	return doc, env
}

func TestSweepExpiresOverdueEnvelopes(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	now := time.Now()

	_, overdueA := seedPendingEnvelope(t, st, "co-1", now.Add(-2*time.Hour))
	_, overdueB := seedPendingEnvelope(t, st, "co-2", now.Add(-time.Minute))
	_, fresh := seedPendingEnvelope(t, st, "co-1", now.Add(time.Hour))

	processed, err := svc.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	for _, id := range []string{overdueA.ID, overdueB.ID} {
		env, err := st.Envelopes().Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.EnvelopeStatusExpired, env.Status)

		doc, err := st.Documents().Get(ctx, env.DocumentID)
		require.NoError(t, err)
		assert.Equal(t, models.DocumentStatusCancelled, doc.Status)
	}

	env, err := st.Envelopes().Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnvelopeStatusPending, env.Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	now := time.Now()

	seedPendingEnvelope(t, st, "co-1", now.Add(-time.Hour))

	processed, err := svc.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	processed, err = svc.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
}

func TestSweepSkipsTerminalEnvelopes(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	now := time.Now()

	// An envelope everyone signed before the deadline passed must keep its
	// signed outcome even once overdue.
	doc, env := seedPendingEnvelope(t, st, "co-1", now.Add(-time.Hour))
	won, err := st.Envelopes().TransitionStatus(ctx, env.ID, models.EnvelopeStatusPending, models.EnvelopeStatusSigned)
	require.NoError(t, err)
	require.True(t, won)
	require.NoError(t, st.Documents().SetStatus(ctx, doc.ID, models.DocumentStatusSigned, env.ID))

	processed, err := svc.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, processed)

	got, err := st.Envelopes().Get(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnvelopeStatusSigned, got.Status)

	gotDoc, err := st.Documents().Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusSigned, gotDoc.Status)
}

func TestSweepBoundaryInstant(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	now := time.Now()

	// An envelope expiring exactly at the sweep instant is overdue.
	_, env := seedPendingEnvelope(t, st, "co-1", now)

	processed, err := svc.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, processed)

	got, err := st.Envelopes().Get(ctx, env.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnvelopeStatusExpired, got.Status)
}
