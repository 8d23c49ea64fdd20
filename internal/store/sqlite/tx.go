package sqlite

import (
	"context"
	"database/sql"

	"github.com/aiforge-cloud/aiforge/internal/store"
)

type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore {
	return &txStore{tx: tx}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller commits/rollbacks; outer DB stays open

// Ping is a no-op for transactions; the connection is already established.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                           { return &usersRepo{db: t.tx} }
func (t *txStore) Teams() store.Teams                           { return &teamsRepo{db: t.tx} }
func (t *txStore) Memberships() store.Memberships               { return &membershipsRepo{db: t.tx} }
func (t *txStore) Invitations() store.Invitations               { return &invitationsRepo{db: t.tx} }
func (t *txStore) Projects() store.Projects                     { return &projectsRepo{db: t.tx} }
func (t *txStore) Endpoints() store.Endpoints                   { return &endpointsRepo{db: t.tx} }
func (t *txStore) MFADevices() store.MFADevices                 { return &mfaDevicesRepo{db: t.tx} }
func (t *txStore) MFAChallenges() store.MFAChallenges           { return &mfaChallengesRepo{db: t.tx} }
func (t *txStore) VerificationGates() store.VerificationGates   { return &verificationGatesRepo{db: t.tx} }
func (t *txStore) RecoveryCodes() store.RecoveryCodes           { return &recoveryCodesRepo{db: t.tx} }
func (t *txStore) PasswordResets() store.PasswordResets         { return &passwordResetsRepo{db: t.tx} }
func (t *txStore) EmailVerifications() store.EmailVerifications { return &emailVerificationsRepo{db: t.tx} }

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx starts
