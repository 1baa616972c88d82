package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret = "jwt-secret-jwt-secret-jwt-secret-32"
	testHashKey   = "hash-key-hash-key-hash-key-hash-32"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("TOKEN_HASH_KEY", testHashKey)
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, "0.0.0.0", cfg.APIHost)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 14*24*time.Hour, cfg.EnvelopeTTL)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_PORT", "9000")
	t.Setenv("ENVELOPE_TTL", "72h")
	t.Setenv("DATABASE_URL", "postgres://db.example/docsign")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.APIPort)
	assert.Equal(t, 72*time.Hour, cfg.EnvelopeTTL)
	assert.Equal(t, "postgres://db.example/docsign", cfg.DatabaseDSN)
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_dsn: postgres://file.example/docsign
jwt_secret: `+testJWTSecret+`
token_hash_key: `+testHashKey+`
envelope_ttl: 48h
api_port: 9100
`), 0o600))

	t.Setenv("DOCSIGN_CONFIG", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TOKEN_HASH_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://file.example/docsign", cfg.DatabaseDSN)
	assert.Equal(t, 48*time.Hour, cfg.EnvelopeTTL)
	assert.Equal(t, 9100, cfg.APIPort)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jwt_secret: `+testJWTSecret+`
token_hash_key: `+testHashKey+`
api_port: 9100
`), 0o600))

	t.Setenv("DOCSIGN_CONFIG", path)
	t.Setenv("API_PORT", "9200")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.APIPort)
}

func TestLoadRejectsBadDurationInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("envelope_ttl: fortnight\n"), 0o600))

	setRequiredEnv(t)
	t.Setenv("DOCSIGN_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			JWTSecret:    testJWTSecret,
			TokenHashKey: testHashKey,
			EnvelopeTTL:  time.Hour,
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.TokenHashKey = "short"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.EnvelopeTTL = 0
	assert.Error(t, cfg.Validate())
}
