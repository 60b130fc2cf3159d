// Package registry implements the core collaborator interfaces against
// PostgreSQL: the account directory, account creation and per-meeting role
// grants. An in-memory variant backs tests and local development.
package registry

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/quorumtools/participants/internal/core"
)

// schema creates the registry tables. Role grants are idempotent via the
// primary key; re-granting is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id            UUID PRIMARY KEY,
	userid        TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_idx
	ON accounts (LOWER(email)) WHERE email <> '';

CREATE TABLE IF NOT EXISTS meeting_roles (
	meeting_id TEXT NOT NULL,
	userid     TEXT NOT NULL REFERENCES accounts(userid) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	granted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (meeting_id, userid, role)
);
`

// Store is the PostgreSQL-backed registry.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the registry schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("registry migrate: %w", err)
	}
	return nil
}

// UserExists reports whether userid is already registered.
func (s *Store) UserExists(ctx context.Context, userid string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE userid = $1)`, userid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("userid lookup: %w", err)
	}
	return exists, nil
}

// EmailAvailable reports whether email parses as an address and is not yet
// attached to an account. Comparison is case-insensitive.
func (s *Store) EmailAvailable(ctx context.Context, email string) (bool, error) {
	if !wellFormedEmail(email) {
		return false, nil
	}
	var taken bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE LOWER(email) = LOWER($1))`, email).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("email lookup: %w", err)
	}
	return !taken, nil
}

// CreateAccount inserts one account. The password is stored as a bcrypt
// hash; the plaintext only survives in the import response handed back to
// the administrator.
func (s *Store) CreateAccount(ctx context.Context, acct core.NewAccount) (core.AccountHandle, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.DefaultCost)
	if err != nil {
		return core.AccountHandle{}, fmt.Errorf("hash password: %w", err)
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO accounts (id, userid, password_hash, email, first_name, last_name)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, acct.Userid, string(hash), acct.Email, acct.FirstName, acct.LastName)
	if err != nil {
		return core.AccountHandle{}, fmt.Errorf("insert account %q: %w", acct.Userid, err)
	}

	return core.AccountHandle{ID: id, Userid: acct.Userid}, nil
}

// GrantRoles assigns the roles to userid within the meeting, all in one
// transaction. Already-present grants are left in place.
func (s *Store) GrantRoles(ctx context.Context, scope core.MeetingScope, userid string, roles []core.Role) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("grant roles: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, role := range roles {
		_, err := tx.Exec(ctx,
			`INSERT INTO meeting_roles (meeting_id, userid, role)
			 VALUES ($1, $2, $3)
			 ON CONFLICT DO NOTHING`,
			scope.MeetingID, userid, string(role))
		if err != nil {
			return fmt.Errorf("grant %s to %q: %w", role, userid, err)
		}
	}

	return tx.Commit(ctx)
}

// wellFormedEmail accepts plain addresses only; display-name forms like
// "Someone <a@b.example>" are not valid input for the import field.
func wellFormedEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return strings.EqualFold(addr.Address, email)
}
