package jwtx

import (
	"crypto/ed25519"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aiforge-cloud/aiforge/pkg/idx"
)

// Signer mints session tokens for a single issuer with one Ed25519 key.
type Signer struct {
	key    ed25519.PrivateKey
	issuer string
	ttl    time.Duration
}

func NewSigner(key ed25519.PrivateKey, issuer string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Signer{key: key, issuer: issuer, ttl: ttl}
}

// Sign issues a session token for the given user.
func (s *Signer) Sign(userID, email string, emailVerified bool) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:         email,
		EmailVerified: emailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        idx.New().String(),
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.key)
}
