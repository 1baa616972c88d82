package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/firmaria/docsign/internal/api/middleware"
	"github.com/firmaria/docsign/internal/auth"
	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/signing"
)

// EnvelopeHandler handles staff envelope management endpoints.
type EnvelopeHandler struct {
	service *signing.Service
	logger  *slog.Logger
}

// NewEnvelopeHandler creates a new envelope handler.
func NewEnvelopeHandler(service *signing.Service, logger *slog.Logger) *EnvelopeHandler {
	return &EnvelopeHandler{
		service: service,
		logger:  logger,
	}
}

// actorFrom derives the signing actor from the staff user resolved by the
// middleware chain.
func actorFrom(r *http.Request) signing.Actor {
	user := middleware.GetStaffUser(r.Context())
	return signing.Actor{
		UserID: user.ID,
		Role:   user.Role,
		Tenant: auth.ScopeFor(user),
	}
}

type createEnvelopeRequest struct {
	DocumentID string              `json:"document_id"`
	Signers    []signing.NewSigner `json:"signers"`
	TTL        string              `json:"ttl,omitempty"`
}

// Create handles POST /v1/signatures.
func (h *EnvelopeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEnvelopeRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	var ttl time.Duration
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil || parsed <= 0 {
			var errs signing.ValidationErrors
			errs.Add("ttl", `ttl must be a positive duration such as "72h"`)
			WriteError(w, h.logger, errs)
			return
		}
		ttl = parsed
	}

	env, err := h.service.Create(r.Context(), actorFrom(r), signing.CreateParams{
		DocumentID: req.DocumentID,
		Signers:    req.Signers,
		TTL:        ttl,
	})
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, env)
}

// Get handles GET /v1/signatures/{envelopeID}.
func (h *EnvelopeHandler) Get(w http.ResponseWriter, r *http.Request) {
	env, err := h.service.Get(r.Context(), actorFrom(r), chi.URLParam(r, "envelopeID"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, env)
}

type listEnvelopesResponse struct {
	Envelopes []*models.Envelope `json:"envelopes"`
	Count     int                `json:"count"`
}

// ListPending handles GET /v1/signatures/pending.
func (h *EnvelopeHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	// Admins may inspect another tenant's queue explicitly.
	if actor.Role == models.RoleAdmin {
		if companyID := r.URL.Query().Get("company_id"); companyID != "" {
			actor.Tenant = models.Tenant{
				CompanyID: companyID,
				BranchID:  r.URL.Query().Get("branch_id"),
			}
		}
	}

	envelopes, err := h.service.ListPending(r.Context(), actor)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	if envelopes == nil {
		envelopes = []*models.Envelope{}
	}

	WriteJSON(w, http.StatusOK, listEnvelopesResponse{
		Envelopes: envelopes,
		Count:     len(envelopes),
	})
}

// Cancel handles POST /v1/signatures/{envelopeID}/cancel.
func (h *EnvelopeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	env, err := h.service.Cancel(r.Context(), actorFrom(r), chi.URLParam(r, "envelopeID"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, env)
}

// Remind handles POST /v1/signatures/{envelopeID}/reminder.
func (h *EnvelopeHandler) Remind(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remind(r.Context(), actorFrom(r), chi.URLParam(r, "envelopeID")); err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "reminder_requested"})
}

type sweepResponse struct {
	Processed int       `json:"processed"`
	SweptAt   time.Time `json:"swept_at"`
}

// Sweep handles POST /v1/signatures/sweep. The endpoint is admin-only and
// exists alongside the sweeper binary for operational use.
func (h *EnvelopeHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	processed, err := h.service.Sweep(r.Context(), now)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sweepResponse{Processed: processed, SweptAt: now})
}
