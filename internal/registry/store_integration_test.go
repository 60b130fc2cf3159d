package registry

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quorumtools/participants/internal/core"
)

// integrationStore connects to the database named by TEST_DATABASE_URL and
// wipes the registry tables, or skips the test when no database is
// configured.
func integrationStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	store := NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `DELETE FROM meeting_roles; DELETE FROM accounts`); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	return store
}

func TestStoreIntegration_Accounts(t *testing.T) {
	store := integrationStore(t)
	ctx := context.Background()

	exists, err := store.UserExists(ctx, "user1")
	if err != nil {
		t.Fatalf("UserExists() error = %v", err)
	}
	if exists {
		t.Fatal("UserExists(user1) = true on empty registry")
	}

	if _, err := store.CreateAccount(ctx, core.NewAccount{
		Userid:    "user1",
		Password:  "secret999",
		Email:     "user1@test.com",
		FirstName: "Dummy",
		LastName:  "User",
	}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	exists, err = store.UserExists(ctx, "user1")
	if err != nil || !exists {
		t.Errorf("UserExists(user1) = %v, %v, want true", exists, err)
	}

	available, err := store.EmailAvailable(ctx, "USER1@test.com")
	if err != nil {
		t.Fatalf("EmailAvailable() error = %v", err)
	}
	if available {
		t.Error("EmailAvailable(USER1@test.com) = true, want case-insensitive rejection")
	}

	available, err = store.EmailAvailable(ctx, "fresh@test.com")
	if err != nil || !available {
		t.Errorf("EmailAvailable(fresh@test.com) = %v, %v, want true", available, err)
	}

	// Duplicate userid violates the unique constraint.
	if _, err := store.CreateAccount(ctx, core.NewAccount{Userid: "user1", Password: "secret999"}); err == nil {
		t.Error("duplicate CreateAccount(user1) succeeded, want constraint error")
	}
}

func TestStoreIntegration_GrantRoles(t *testing.T) {
	store := integrationStore(t)
	ctx := context.Background()
	scope := core.MeetingScope{MeetingID: "meeting-1"}

	if _, err := store.CreateAccount(ctx, core.NewAccount{Userid: "user1", Password: "secret999"}); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	roles := []core.Role{core.RoleDiscuss, core.RolePropose, core.RoleVote}
	if err := store.GrantRoles(ctx, scope, "user1", roles); err != nil {
		t.Fatalf("GrantRoles() error = %v", err)
	}
	// Re-granting is a no-op, not an error.
	if err := store.GrantRoles(ctx, scope, "user1", roles); err != nil {
		t.Fatalf("second GrantRoles() error = %v", err)
	}

	var count int
	err := store.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM meeting_roles WHERE meeting_id = $1 AND userid = $2`,
		scope.MeetingID, "user1").Scan(&count)
	if err != nil {
		t.Fatalf("count grants: %v", err)
	}
	if count != len(roles) {
		t.Errorf("granted role rows = %d, want %d", count, len(roles))
	}
}
