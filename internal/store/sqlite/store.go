package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/aiforge-cloud/aiforge/internal/store"
	_ "modernc.org/sqlite"
)

// dbtx is the common surface of *sql.DB and *sql.Tx the repos run against.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	dsn string
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: the FK pragma is connection-scoped, and a pooled
	// ":memory:" DSN would otherwise give every connection its own empty
	// database.
	db.SetMaxOpenConns(1)

	// Enforce FKs (cascading deletes depend on this)
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling
// commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	// Rollback is safe to call after commit; this covers error returns and
	// panics in fn.
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users                           { return &usersRepo{db: s.db} }
func (s *Store) Teams() store.Teams                           { return &teamsRepo{db: s.db} }
func (s *Store) Memberships() store.Memberships               { return &membershipsRepo{db: s.db} }
func (s *Store) Invitations() store.Invitations               { return &invitationsRepo{db: s.db} }
func (s *Store) Projects() store.Projects                     { return &projectsRepo{db: s.db} }
func (s *Store) Endpoints() store.Endpoints                   { return &endpointsRepo{db: s.db} }
func (s *Store) MFADevices() store.MFADevices                 { return &mfaDevicesRepo{db: s.db} }
func (s *Store) MFAChallenges() store.MFAChallenges           { return &mfaChallengesRepo{db: s.db} }
func (s *Store) VerificationGates() store.VerificationGates   { return &verificationGatesRepo{db: s.db} }
func (s *Store) RecoveryCodes() store.RecoveryCodes           { return &recoveryCodesRepo{db: s.db} }
func (s *Store) PasswordResets() store.PasswordResets         { return &passwordResetsRepo{db: s.db} }
func (s *Store) EmailVerifications() store.EmailVerifications { return &emailVerificationsRepo{db: s.db} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint converts sqlite unique-constraint violations into
// store.ErrAlreadyExists. modernc/sqlite surfaces these as error strings,
// there is no typed error to unwrap.
func mapConstraint(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func mapNullTimePtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		val := nt.Time
		return &val
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// requireRow converts a zero-row update or delete into store.ErrNotFound.
func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
