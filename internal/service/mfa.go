package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/aiforge-cloud/aiforge/internal/domain"
	"github.com/aiforge-cloud/aiforge/internal/store"
	"github.com/aiforge-cloud/aiforge/pkg/cryptox"
	"github.com/aiforge-cloud/aiforge/pkg/idx"
	"github.com/aiforge-cloud/aiforge/pkg/slogx"
)

const (
	recoveryCodeCount = 10
	recoveryCodeBytes = cryptox.TokenSize128

	// verificationGateTTL is how long a successful device verification
	// keeps the sensitive management operations unlocked.
	verificationGateTTL = 30 * time.Minute

	// Login challenge limits.
	challengeTTL         = 5 * time.Minute
	maxChallengeAttempts = 5

	totpPeriod = 30
	totpSkew   = 1
)

var (
	ErrInvalidCode          = errors.New("invalid code")
	ErrDeviceNotFound       = errors.New("mfa device not found")
	ErrVerificationRequired = errors.New("recent device verification required")
	ErrChallengeNotFound    = errors.New("challenge not found or expired")
	ErrTooManyAttempts      = errors.New("too many failed attempts")
)

type MFAService struct {
	Store  store.Store
	Issuer string // issuer name in provisioning URIs, e.g. "AIForge"
}

// GenerateEnrollmentSecret produces a fresh TOTP secret and provisioning URI
// for the user to scan. Nothing is persisted; an abandoned flow leaves no
// state behind.
func (s *MFAService) GenerateEnrollmentSecret(ctx context.Context, actor domain.Actor) (domain.MFAEnrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: actor.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAEnrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	return domain.MFAEnrollment{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Issuer:  s.Issuer,
		Account: actor.Email,
	}, nil
}

// ConfirmEnrollment checks the submitted code against the staged secret and,
// on success, persists the device. Adding a second device while exactly one
// is registered requires a fresh verification gate; zero devices (first
// enrollment) and two or more do not.
func (s *MFAService) ConfirmEnrollment(
	ctx context.Context,
	actor domain.Actor,
	secret string,
	code string,
	deviceName string,
) (domain.MFADevice, error) {
	log := slogx.FromContext(ctx)

	count, err := s.Store.MFADevices().CountUserDevices(ctx, actor.UserID)
	if err != nil {
		return domain.MFADevice{}, fmt.Errorf("count devices: %w", err)
	}
	if count == 1 {
		if err := s.requireGate(ctx, actor.UserID); err != nil {
			return domain.MFADevice{}, err
		}
	}

	if !s.validateCode(code, secret) {
		return domain.MFADevice{}, ErrInvalidCode
	}

	device := domain.MFADevice{
		ID:     idx.New().String(),
		UserID: actor.UserID,
		Name:   deviceName,
		Secret: secret,
	}
	if err := s.Store.MFADevices().CreateDevice(ctx, device); err != nil {
		return domain.MFADevice{}, fmt.Errorf("create device: %w", err)
	}

	log.Info("mfa device enrolled",
		slog.String("user_id", actor.UserID),
		slog.String("device_id", device.ID),
	)
	return device, nil
}

// ListDevices returns the user's registered devices.
func (s *MFAService) ListDevices(ctx context.Context, actor domain.Actor) ([]domain.MFADevice, error) {
	return s.Store.MFADevices().ListUserDevices(ctx, actor.UserID)
}

// DeleteDevice removes a device. Deleting the last remaining device requires
// a fresh verification gate; with two or more devices the remaining one
// already covers the account.
func (s *MFAService) DeleteDevice(ctx context.Context, actor domain.Actor, deviceID string) error {
	log := slogx.FromContext(ctx)

	count, err := s.Store.MFADevices().CountUserDevices(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("count devices: %w", err)
	}
	if count == 1 {
		if err := s.requireGate(ctx, actor.UserID); err != nil {
			return err
		}
	}

	if err := s.Store.MFADevices().DeleteDevice(ctx, actor.UserID, deviceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("delete device: %w", err)
	}

	log.Info("mfa device removed",
		slog.String("user_id", actor.UserID),
		slog.String("device_id", deviceID),
	)
	return nil
}

// VerifyDevice checks a code against any of the user's devices and, on
// success, opens the 30-minute verification gate used by the sensitive
// management operations.
func (s *MFAService) VerifyDevice(ctx context.Context, actor domain.Actor, code string) error {
	devices, err := s.Store.MFADevices().ListUserDevices(ctx, actor.UserID)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return ErrDeviceNotFound
	}

	for _, d := range devices {
		if s.validateCode(code, d.Secret) {
			expiresAt := time.Now().UTC().Add(verificationGateTTL)
			if err := s.Store.VerificationGates().UpsertGate(ctx, actor.UserID, expiresAt); err != nil {
				return fmt.Errorf("record verification: %w", err)
			}
			return nil
		}
	}
	return ErrInvalidCode
}

// GenerateRecoveryCodes issues a fresh batch of ten codes and invalidates any
// prior batch in the same transaction; there is no window where both batches
// are valid. Regenerating while codes exist requires the verification gate if
// the user has a device, so a hijacked session cannot lock out the owner.
// The raw codes are returned once and never shown again.
func (s *MFAService) GenerateRecoveryCodes(ctx context.Context, actor domain.Actor) ([]string, error) {
	log := slogx.FromContext(ctx)

	deviceCount, err := s.Store.MFADevices().CountUserDevices(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("count devices: %w", err)
	}
	existing, err := s.Store.RecoveryCodes().CountUserRecoveryCodes(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("count recovery codes: %w", err)
	}
	if existing > 0 && deviceCount > 0 {
		if err := s.requireGate(ctx, actor.UserID); err != nil {
			return nil, err
		}
	}

	codes := make([]string, recoveryCodeCount)
	for i := range codes {
		code, err := cryptox.GenerateToken(recoveryCodeBytes)
		if err != nil {
			return nil, fmt.Errorf("generate recovery code: %w", err)
		}
		codes[i] = code
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RecoveryCodes().DeleteAllRecoveryCodes(ctx, actor.UserID); err != nil {
			return fmt.Errorf("invalidate old recovery codes: %w", err)
		}
		for _, code := range codes {
			hash := cryptox.FingerprintToken(code)
			if err := tx.RecoveryCodes().CreateRecoveryCode(ctx, actor.UserID, hash); err != nil {
				return fmt.Errorf("store recovery code: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("recovery codes regenerated", slog.String("user_id", actor.UserID))
	return codes, nil
}

// CreateChallenge opens a pending second-factor step for a login. The
// challenge ID doubles as the token the client hands back with its code.
func (s *MFAService) CreateChallenge(ctx context.Context, userID string) (domain.MFAChallenge, error) {
	challenge := domain.MFAChallenge{
		ID:        idx.New().String(),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(challengeTTL),
	}
	if err := s.Store.MFAChallenges().CreateChallenge(ctx, challenge); err != nil {
		return domain.MFAChallenge{}, fmt.Errorf("create challenge: %w", err)
	}
	return challenge, nil
}

// VerifyChallenge completes a pending login challenge with either a TOTP
// code or a recovery code. Failures count against the challenge; it locks
// after five. Success consumes the challenge and returns the user ID.
func (s *MFAService) VerifyChallenge(ctx context.Context, challengeID, code string) (string, error) {
	log := slogx.FromContext(ctx)

	challenge, err := s.Store.MFAChallenges().GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrChallengeNotFound
		}
		return "", fmt.Errorf("fetch challenge: %w", err)
	}
	if challenge.Attempts >= maxChallengeAttempts {
		return "", ErrTooManyAttempts
	}

	ok, err := s.checkSecondFactor(ctx, challenge.UserID, code)
	if err != nil {
		return "", err
	}
	if !ok {
		updated, err := s.Store.MFAChallenges().IncrementChallengeAttempts(ctx, challengeID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("record failed attempt: %w", err)
		}
		if updated.Attempts >= maxChallengeAttempts {
			log.Warn("mfa challenge locked",
				slog.String("challenge_id", challengeID),
				slog.String("user_id", challenge.UserID),
			)
			return "", ErrTooManyAttempts
		}
		return "", ErrInvalidCode
	}

	if err := s.Store.MFAChallenges().DeleteChallenge(ctx, challengeID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("consume challenge: %w", err)
	}
	return challenge.UserID, nil
}

// checkSecondFactor tries the code as TOTP against each device, then as a
// recovery code. Recovery consumption is a single conditional delete, so two
// concurrent attempts cannot both spend the same code.
func (s *MFAService) checkSecondFactor(ctx context.Context, userID, code string) (bool, error) {
	devices, err := s.Store.MFADevices().ListUserDevices(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("list devices: %w", err)
	}
	for _, d := range devices {
		if s.validateCode(code, d.Secret) {
			return true, nil
		}
	}

	consumed, err := s.Store.RecoveryCodes().ConsumeRecoveryCode(ctx, userID, cryptox.FingerprintToken(code))
	if err != nil {
		return false, fmt.Errorf("consume recovery code: %w", err)
	}
	return consumed, nil
}

func (s *MFAService) requireGate(ctx context.Context, userID string) error {
	_, err := s.Store.VerificationGates().GetGate(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrVerificationRequired
		}
		return fmt.Errorf("check verification gate: %w", err)
	}
	return nil
}

func (s *MFAService) validateCode(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      totpSkew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
