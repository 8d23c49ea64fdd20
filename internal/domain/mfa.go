package domain

import "time"

// MFADevice is a registered second-factor credential: a TOTP secret plus a
// display name. A user may hold any number of devices.
type MFADevice struct {
	ID        string
	UserID    string
	Name      string
	Secret    string // base32 TOTP secret
	CreatedAt time.Time
}

// MFAEnrollment is the staging result of starting device enrollment. Nothing
// is persisted until the user confirms with a valid code.
type MFAEnrollment struct {
	Secret  string // base32 encoded secret
	URL     string // otpauth:// provisioning URI
	Issuer  string
	Account string
}

// MFAChallenge is a pending second-factor step during login. The challenge
// token references it; Attempts counts failures (capped to stop brute force).
type MFAChallenge struct {
	ID        string // also the challenge token handed to the client
	UserID    string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}

// VerificationGate records that a user recently re-proved possession of a
// second factor. Sensitive MFA-management operations require an unexpired
// gate. Expires 30 minutes after verification.
type VerificationGate struct {
	UserID    string
	ExpiresAt time.Time
}

// PasswordReset is a single-use reset token record (fingerprint only).
type PasswordReset struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// EmailVerification is a single-use email confirmation token record.
type EmailVerification struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
