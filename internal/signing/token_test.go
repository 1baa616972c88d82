package signing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintProducesUniqueOpaqueTokens(t *testing.T) {
	issuer := NewIssuer([]byte("test-token-hash-key-0123456789abcdef"))

	seen := make(map[string]bool, 1000)
	for i := 0; i < 1000; i++ {
		token, err := issuer.Mint()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(token, "sig_"))
		// 32 bytes of entropy, base64url without padding.
		assert.Len(t, token, len("sig_")+43)
		assert.False(t, seen[token], "minted a duplicate token")
		seen[token] = true
	}
}

func TestHashIsKeyedAndStable(t *testing.T) {
	issuerA := NewIssuer([]byte("key-a-key-a-key-a-key-a-key-a-32"))
	issuerB := NewIssuer([]byte("key-b-key-b-key-b-key-b-key-b-32"))

	token, err := issuerA.Mint()
	require.NoError(t, err)

	assert.Equal(t, issuerA.Hash(token), issuerA.Hash(token))
	assert.NotEqual(t, issuerA.Hash(token), issuerB.Hash(token),
		"hashes under different keys must differ")
	assert.NotContains(t, issuerA.Hash(token), token)
}

func TestVerify(t *testing.T) {
	issuer := NewIssuer([]byte("test-token-hash-key-0123456789abcdef"))

	token, err := issuer.Mint()
	require.NoError(t, err)
	hash := issuer.Hash(token)

	assert.True(t, issuer.Verify(token, hash))
	assert.False(t, issuer.Verify("sig_other", hash))
	assert.False(t, issuer.Verify(token, "deadbeef"))
}

func TestParseAction(t *testing.T) {
	action, err := ParseAction("sign")
	require.NoError(t, err)
	assert.Equal(t, ActionSign, action)

	action, err = ParseAction("reject")
	require.NoError(t, err)
	assert.Equal(t, ActionReject, action)

	for _, raw := range []string{"", "SIGN", "approve", "cancel"} {
		_, err := ParseAction(raw)
		var verrs ValidationErrors
		assert.ErrorAs(t, err, &verrs, "raw=%q", raw)
	}
}
