package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/firmaria/docsign/internal/signing"
)

// SigningHandler handles the public, token-addressed signing surface. No
// session is involved; possession of the capability token is the only
// credential.
type SigningHandler struct {
	service *signing.Service
	logger  *slog.Logger
}

// NewSigningHandler creates a new public signing handler.
func NewSigningHandler(service *signing.Service, logger *slog.Logger) *SigningHandler {
	return &SigningHandler{
		service: service,
		logger:  logger,
	}
}

// Show handles GET /sign/{token}. It resolves the token to the signing
// context presented to the signer. Any failure is a uniform 404.
func (h *SigningHandler) Show(w http.ResponseWriter, r *http.Request) {
	sc, err := h.service.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sc)
}

type actRequest struct {
	Action string `json:"action"`
}

// Act handles POST /sign/{token}. The body carries the signer's decision.
func (h *SigningHandler) Act(w http.ResponseWriter, r *http.Request) {
	var req actRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, h.logger, err)
		return
	}

	action, err := signing.ParseAction(req.Action)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	sc, err := h.service.Act(r.Context(), chi.URLParam(r, "token"), action)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sc)
}
