package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/store/memory"
)

const testSecret = "test-jwt-secret-0123456789abcdefghij"

func newTestAuth(t *testing.T, expiry time.Duration) (*Service, *memory.Store) {
	t.Helper()
	st := memory.NewStore()
	svc := NewService(&Config{
		JWTSecret:   []byte(testSecret),
		TokenExpiry: expiry,
	}, st, nil)
	return svc, st
}

func seedUser(t *testing.T, st *memory.Store, email, password string) *models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         models.RoleManager,
		CompanyID:    "co-1",
	}
	require.NoError(t, st.Users().Create(context.Background(), user))
	return user
}

func TestLoginAndValidate(t *testing.T) {
	svc, st := newTestAuth(t, time.Hour)
	user := seedUser(t, st, "manager@example.com", "correct horse battery staple")

	token, err := svc.Login(context.Background(), "manager@example.com", "correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.True(t, claims.Exp.After(time.Now()))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, st := newTestAuth(t, time.Hour)
	seedUser(t, st, "manager@example.com", "right-password")

	_, err := svc.Login(context.Background(), "manager@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "right-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc, st := newTestAuth(t, -time.Minute)
	seedUser(t, st, "manager@example.com", "pw")

	token, err := svc.Login(context.Background(), "manager@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, _ := newTestAuth(t, time.Hour)
	token, err := svc.GenerateToken("user-1", "user@example.com")
	require.NoError(t, err)

	other := NewService(&Config{
		JWTSecret:   []byte("another-secret-another-secret-32ch"),
		TokenExpiry: time.Hour,
	}, nil, nil)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenRequiresUserID(t *testing.T) {
	svc, _ := newTestAuth(t, time.Hour)
	_, err := svc.GenerateToken("", "user@example.com")
	assert.ErrorIs(t, err, ErrMissingClaims)
}

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc", ExtractBearerToken("Bearer abc"))
	assert.Equal(t, "abc", ExtractBearerToken("bearer abc"))
	assert.Equal(t, "", ExtractBearerToken(""))
	assert.Equal(t, "", ExtractBearerToken("Basic abc"))
	assert.Equal(t, "", ExtractBearerToken("Bearer"))
}
