package domain

import "time"

type User struct {
	ID              string
	Email           string     // unique, stored lowercase
	DisplayName     string
	PasswordHash    string     // argon2id encoded
	EmailVerifiedAt *time.Time // nil until the verification link is followed
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EmailVerified reports whether the user has confirmed their address.
func (u User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

// Actor is the explicit identity every operation receives. It is built from
// verified session claims at the HTTP boundary; services never read identity
// from ambient state.
type Actor struct {
	UserID        string
	Email         string
	EmailVerified bool
}
