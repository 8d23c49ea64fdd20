package cryptox

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateToken(0)
		require.Error(t, err)

		_, err = GenerateToken(-1)
		require.Error(t, err)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		seen := make(map[string]struct{})
		for range 100 {
			tok, err := GenerateToken(TokenSize128)
			require.NoError(t, err)
			_, dup := seen[tok]
			require.False(t, dup)
			seen[tok] = struct{}{}
		}
	})
}

func TestGenerateHexToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateHexToken(TokenSize256)
	require.NoError(t, err)
	require.Len(t, tok, 2*TokenSize256)

	// Must decode as hex.
	raw, err := hex.DecodeString(tok)
	require.NoError(t, err)
	require.Len(t, raw, TokenSize256)
}

func TestFingerprintToken(t *testing.T) {
	t.Parallel()

	a := FingerprintToken("token-a")
	b := FingerprintToken("token-b")

	require.NotEqual(t, a, b)
	require.Equal(t, a, FingerprintToken("token-a"))
	require.NotEqual(t, a, "token-a")
}
