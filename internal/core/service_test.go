package core

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestService(reg *fakeRegistry, opts ServiceOptions) *Service {
	return NewService(reg, reg, reg, opts)
}

func TestService_ImportEndToEnd(t *testing.T) {
	reg := newFakeRegistry()
	svc := newTestService(reg, ServiceOptions{})

	result, err := svc.Import(context.Background(),
		MeetingScope{MeetingID: "m1"},
		"user1;;user1@test.com;Dummy;User\n",
		[]Role{RoleAdmin})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if result.Count != 1 || len(result.Participants) != 1 {
		t.Fatalf("Import() count = %d, participants = %d, want 1", result.Count, len(result.Participants))
	}

	p := result.Participants[0]
	if p.Userid != "user1" {
		t.Errorf("Userid = %q, want user1", p.Userid)
	}
	if len(p.Password) != GeneratedPasswordLength {
		t.Errorf("generated password length = %d, want %d", len(p.Password), GeneratedPasswordLength)
	}
	if p.Email != "user1@test.com" || p.FirstName != "Dummy" || p.LastName != "User" {
		t.Errorf("passthrough fields = %+v", p)
	}

	if len(reg.grants) != 1 {
		t.Fatalf("GrantRoles called %d times, want 1", len(reg.grants))
	}
	g := reg.grants[0]
	if g.userid != "user1" || len(g.roles) != 1 || g.roles[0] != RoleAdmin {
		t.Errorf("grant = %+v, want admin for user1", g)
	}
}

func TestService_ValidationBlocksImport(t *testing.T) {
	reg := newFakeRegistry()
	svc := newTestService(reg, ServiceOptions{})

	_, err := svc.Import(context.Background(),
		MeetingScope{MeetingID: "m1"},
		";password1;user1@test.com;Dummy;User\n",
		[]Role{RoleDiscuss})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Import() error = %T, want *ValidationError", err)
	}
	if len(verr.Report.MissingUserid) == 0 {
		t.Error("report does not flag the missing userid")
	}
	if len(reg.users) != 0 {
		t.Errorf("%d accounts created despite rejection, want 0", len(reg.users))
	}
	if len(reg.grants) != 0 {
		t.Errorf("%d role grants despite rejection, want 0", len(reg.grants))
	}
}

func TestService_Validate(t *testing.T) {
	reg := newFakeRegistry()
	reg.seed("taken", "")
	svc := newTestService(reg, ServiceOptions{})
	ctx := context.Background()

	if err := svc.Validate(ctx, "user1;password1;user1@test.com;Dummy;User\n"); err != nil {
		t.Errorf("Validate(clean) = %v, want nil", err)
	}

	err := svc.Validate(ctx, "taken;password1;;;\n")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate(taken) error = %T, want *ValidationError", err)
	}
	if !strings.Contains(err.Error(), "already registered: taken") {
		t.Errorf("Validate(taken) message = %q", err.Error())
	}

	err = svc.Validate(ctx, "user1;\"broken\n")
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("Validate(broken) error = %T, want *MalformedInputError", err)
	}
}

func TestService_RoleChecks(t *testing.T) {
	reg := newFakeRegistry()
	svc := newTestService(reg, ServiceOptions{})
	ctx := context.Background()
	scope := MeetingScope{MeetingID: "m1"}

	if _, err := svc.Import(ctx, scope, "user1;password1;;;\n", nil); !errors.Is(err, ErrNoRoles) {
		t.Errorf("Import(no roles) error = %v, want ErrNoRoles", err)
	}

	_, err := svc.Import(ctx, scope, "user1;password1;;;\n", []Role{"superuser"})
	if !errors.Is(err, ErrUnknownRole) {
		t.Errorf("Import(bad role) error = %v, want ErrUnknownRole", err)
	}
	if len(reg.users) != 0 {
		t.Error("accounts created despite role rejection")
	}
}

func TestService_MaxRows(t *testing.T) {
	reg := newFakeRegistry()
	svc := newTestService(reg, ServiceOptions{MaxRows: 2})

	_, err := svc.Import(context.Background(), MeetingScope{MeetingID: "m1"},
		"user1;password1;;;\nuser2;password1;;;\nuser3;password1;;;\n",
		[]Role{RoleDiscuss})
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Errorf("Import(oversized) error = %v, want ErrBatchTooLarge", err)
	}
}

func TestService_EmptyBatch(t *testing.T) {
	reg := newFakeRegistry()
	svc := newTestService(reg, ServiceOptions{})

	result, err := svc.Import(context.Background(), MeetingScope{MeetingID: "m1"}, "", []Role{RoleDiscuss})
	if err != nil {
		t.Fatalf("Import(empty) error = %v", err)
	}
	if result.Count != 0 {
		t.Errorf("Import(empty) count = %d, want 0", result.Count)
	}
}

func TestService_PartialImportSurfaced(t *testing.T) {
	reg := newFakeRegistry()
	reg.failFor = "user2"
	svc := newTestService(reg, ServiceOptions{})

	_, err := svc.Import(context.Background(), MeetingScope{MeetingID: "m1"},
		"user1;password1;;;\nuser2;password1;;;\n",
		[]Role{RoleDiscuss})

	var acErr *AccountCreationError
	if !errors.As(err, &acErr) {
		t.Fatalf("Import() error = %T, want *AccountCreationError", err)
	}
	if acErr.Created != 1 {
		t.Errorf("Created = %d, want 1", acErr.Created)
	}
}
