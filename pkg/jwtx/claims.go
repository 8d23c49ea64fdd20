// Package jwtx issues and verifies the EdDSA-signed session tokens shared by
// the console and account security services. Claims carry everything an
// operation needs to build an explicit actor: the user id, the email, and
// whether that email has been verified.
package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long a session token stays valid.
const DefaultSessionTTL = 12 * time.Hour

var (
	ErrTokenInvalid = errors.New("jwtx: token invalid")
	ErrTokenExpired = errors.New("jwtx: token expired")
)

// Claims is the session token payload.
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`

	jwt.RegisteredClaims
}
