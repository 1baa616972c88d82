package signing

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a minted token. 32 bytes comfortably clears
// the 128-bit minimum.
const tokenBytes = 32

// Issuer mints opaque capability tokens and derives the keyed hashes stored
// in their place. The plaintext token is the sole credential for the public
// signing surface.
type Issuer struct {
	key []byte
}

// NewIssuer creates an Issuer with the given hash key.
func NewIssuer(key []byte) *Issuer {
	return &Issuer{key: key}
}

// Mint generates a new capability token.
func (i *Issuer) Mint() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating random bytes: %w", err)
	}
	return "sig_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash derives the keyed hash of a token for storage and lookup. Tokens are
// never persisted or compared in plaintext.
func (i *Issuer) Hash(token string) string {
	mac := hmac.New(sha256.New, i.key)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares a token against a stored hash in constant time.
func (i *Issuer) Verify(token, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(i.Hash(token)), []byte(storedHash)) == 1
}
