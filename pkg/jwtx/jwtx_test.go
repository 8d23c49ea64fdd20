package jwtx

import (
	"crypto/ed25519"
	"crypto/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer := NewSigner(priv, "aiforge", time.Hour)
	verifier := NewVerifier(priv.Public().(ed25519.PublicKey), "aiforge")

	raw, err := signer.Sign("user-1", "a@example.com", true)
	require.NoError(t, err)

	claims, err := verifier.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "a@example.com", claims.Email)
	require.True(t, claims.EmailVerified)
}

func TestVerifyRejectsWrongKeyAndIssuer(t *testing.T) {
	t.Parallel()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer := NewSigner(priv, "aiforge", time.Hour)
	raw, err := signer.Sign("user-1", "a@example.com", false)
	require.NoError(t, err)

	_, err = NewVerifier(otherPub, "aiforge").Verify(raw)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = NewVerifier(priv.Public().(ed25519.PublicKey), "someone-else").Verify(raw)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyReportsExpiry(t *testing.T) {
	t.Parallel()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	signer := NewSigner(priv, "aiforge", -time.Minute)
	raw, err := signer.Sign("user-1", "a@example.com", true)
	require.NoError(t, err)

	_, err = NewVerifier(priv.Public().(ed25519.PublicKey), "aiforge").Verify(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestLoadOrGenerateKeyRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.key")

	first, err := LoadOrGenerateKey(path)
	require.NoError(t, err)

	second, err := LoadOrGenerateKey(path)
	require.NoError(t, err)

	require.Equal(t, first, second)
}
