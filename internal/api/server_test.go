package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmaria/docsign/internal/auth"
	"github.com/firmaria/docsign/internal/events"
	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/signing"
	"github.com/firmaria/docsign/internal/store/memory"
	"github.com/firmaria/docsign/pkg/config"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
	auth   *auth.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:       "test-jwt-secret-0123456789abcdefghij",
		JWTExpiry:       time.Hour,
		TokenHashKey:    "test-token-hash-key-0123456789abcdef",
		EnvelopeTTL:     14 * 24 * time.Hour,
		APIHost:         "127.0.0.1",
		APIPort:         0,
		ShutdownTimeout: time.Second,
	}

	st := memory.NewStore()
	authService := auth.NewService(&auth.Config{
		JWTSecret:   []byte(cfg.JWTSecret),
		TokenExpiry: cfg.JWTExpiry,
	}, st, nil)
	broker := events.NewBroker(nil)
	issuer := signing.NewIssuer([]byte(cfg.TokenHashKey))
	signingService := signing.NewService(st, issuer, broker, nil)

	server := NewServer(cfg, st, signingService, authService, broker, newTestLogger())
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, store: st, auth: authService}
}

func (e *testEnv) seedUser(t *testing.T, role models.Role, companyID, branchID string) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password")
	require.NoError(t, err)
	user := &models.User{
		Email:        fmt.Sprintf("%s-%s@example.com", role, companyID),
		PasswordHash: hash,
		Role:         role,
		CompanyID:    companyID,
		BranchID:     branchID,
	}
	require.NoError(t, e.store.Users().Create(context.Background(), user))

	token, err := e.auth.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) seedDocument(t *testing.T, companyID, branchID string) *models.Document {
	t.Helper()
	doc := &models.Document{CompanyID: companyID, BranchID: branchID, Title: "Lease"}
	require.NoError(t, e.store.Documents().Create(context.Background(), doc))
	return doc
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func createEnvelopeBody(docID string) map[string]interface{} {
	return map[string]interface{}{
		"document_id": docID,
		"signers": []map[string]interface{}{
			{"name": "Alice", "email": "alice@example.com", "order": 1},
			{"name": "Bob", "email": "bob@example.com", "order": 2},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	user, _ := env.seedUser(t, models.RoleManager, "co-1", "")

	resp := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.NotEmpty(t, body["token"])

	resp = env.do(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStaffEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/signatures/pending", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/v1/signatures/pending", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEnvelopeLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, models.RoleManager, "co-1", "")
	doc := env.seedDocument(t, "co-1", "")

	// Create.
	resp := env.do(t, http.MethodPost, "/v1/signatures", token, createEnvelopeBody(doc.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Envelope
	decode(t, resp, &created)
	require.Len(t, created.Signers, 2)
	for _, signer := range created.Signers {
		assert.NotEmpty(t, signer.Token)
	}

	// Creating again conflicts.
	resp = env.do(t, http.MethodPost, "/v1/signatures", token, createEnvelopeBody(doc.ID))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Pending listing includes it.
	resp = env.do(t, http.MethodGet, "/v1/signatures/pending", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Envelopes []*models.Envelope `json:"envelopes"`
		Count     int                `json:"count"`
	}
	decode(t, resp, &listing)
	assert.Equal(t, 1, listing.Count)

	// Detail view hides tokens.
	resp = env.do(t, http.MethodGet, "/v1/signatures/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail models.Envelope
	decode(t, resp, &detail)
	require.Len(t, detail.Signers, 2)
	for _, signer := range detail.Signers {
		assert.Empty(t, signer.Token)
	}

	// Both signers sign over the public surface.
	for i, signer := range created.Signers {
		resp = env.do(t, http.MethodPost, "/sign/"+signer.Token, "", map[string]string{"action": "sign"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var sc signing.SigningContext
		decode(t, resp, &sc)
		if i == len(created.Signers)-1 {
			assert.Equal(t, models.EnvelopeStatusSigned, sc.Envelope.Status)
			assert.Equal(t, models.DocumentStatusSigned, sc.Document.Status)
		} else {
			assert.Equal(t, models.EnvelopeStatusPending, sc.Envelope.Status)
		}
	}

	// Used tokens cannot act again.
	resp = env.do(t, http.MethodPost, "/sign/"+created.Signers[0].Token, "", map[string]string{"action": "sign"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPublicSigningSurface(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, models.RoleManager, "co-1", "")
	doc := env.seedDocument(t, "co-1", "")

	resp := env.do(t, http.MethodPost, "/v1/signatures", token, createEnvelopeBody(doc.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Envelope
	decode(t, resp, &created)

	// Resolve shows the signing context without authentication.
	resp = env.do(t, http.MethodGet, "/sign/"+created.Signers[0].Token, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sc signing.SigningContext
	decode(t, resp, &sc)
	assert.Equal(t, doc.ID, sc.Document.ID)
	assert.Equal(t, "Alice", sc.Signer.Name)

	// Unknown tokens are a uniform 404.
	resp = env.do(t, http.MethodGet, "/sign/sig_unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Invalid actions are a 400.
	resp = env.do(t, http.MethodPost, "/sign/"+created.Signers[0].Token, "", map[string]string{"action": "approve"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// A reject finalizes immediately.
	resp = env.do(t, http.MethodPost, "/sign/"+created.Signers[0].Token, "", map[string]string{"action": "reject"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &sc)
	assert.Equal(t, models.EnvelopeStatusRejected, sc.Envelope.Status)
	assert.Equal(t, models.DocumentStatusCancelled, sc.Document.Status)
}

func TestRolePermissionsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, managerToken := env.seedUser(t, models.RoleManager, "co-1", "")
	_, agentToken := env.seedUser(t, models.RoleAgent, "co-1", "br-1")
	_, adminToken := env.seedUser(t, models.RoleAdmin, "co-1", "")
	doc := env.seedDocument(t, "co-1", "br-1")

	resp := env.do(t, http.MethodPost, "/v1/signatures", managerToken, createEnvelopeBody(doc.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Envelope
	decode(t, resp, &created)

	// Agents cannot cancel.
	resp = env.do(t, http.MethodPost, "/v1/signatures/"+created.ID+"/cancel", agentToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Only admins run the sweep.
	resp = env.do(t, http.MethodPost, "/v1/signatures/sweep", managerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/v1/signatures/sweep", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Managers can cancel, and doing it twice is a state conflict.
	resp = env.do(t, http.MethodPost, "/v1/signatures/"+created.ID+"/cancel", managerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/v1/signatures/"+created.ID+"/cancel", managerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestTenantIsolationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.seedUser(t, models.RoleManager, "co-1", "")
	_, outsiderToken := env.seedUser(t, models.RoleManager, "co-2", "")
	doc := env.seedDocument(t, "co-1", "")

	resp := env.do(t, http.MethodPost, "/v1/signatures", ownerToken, createEnvelopeBody(doc.ID))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Envelope
	decode(t, resp, &created)

	resp = env.do(t, http.MethodGet, "/v1/signatures/"+created.ID, outsiderToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/v1/signatures/pending", outsiderToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Count int `json:"count"`
	}
	decode(t, resp, &listing)
	assert.Equal(t, 0, listing.Count)
}

func TestValidationErrorsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, models.RoleManager, "co-1", "")

	resp := env.do(t, http.MethodPost, "/v1/signatures", token, map[string]interface{}{
		"document_id": "",
		"signers":     []map[string]interface{}{},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Code   string `json:"code"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "validation_failed", body.Code)
	assert.NotEmpty(t, body.Fields)
}
