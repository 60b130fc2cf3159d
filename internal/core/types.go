// Package core implements the participant import pipeline for a meeting:
// parsing pasted semicolon-delimited text into records, validating them
// against the live user registry, and materializing one account plus a set
// of meeting role grants per record. The package has no HTTP or storage
// dependencies; collaborators are injected as interfaces.
package core

import (
	"context"

	"github.com/google/uuid"
)

// Record is one parsed row of participant data. Missing trailing fields are
// empty strings, never a parse error; a Record always has exactly these five
// logical fields.
type Record struct {
	Line      int // 1-based position in the submitted batch, for error reporting
	Userid    string
	Password  string // empty means "generate one at import time"
	Email     string
	FirstName string
	LastName  string
}

// Role is a named permission grant scoped to one meeting.
type Role string

// The fixed meeting role vocabulary. Imports may only grant these.
const (
	RoleDiscuss  Role = "discuss"
	RolePropose  Role = "propose"
	RoleVote     Role = "vote"
	RoleView     Role = "view"
	RoleModerate Role = "moderate"
	RoleAdmin    Role = "admin"
)

// MeetingRoles lists every grantable role.
var MeetingRoles = []Role{RoleDiscuss, RolePropose, RoleVote, RoleView, RoleModerate, RoleAdmin}

// ValidRole reports whether r is part of the meeting role vocabulary.
func ValidRole(r Role) bool {
	for _, known := range MeetingRoles {
		if r == known {
			return true
		}
	}
	return false
}

// MeetingScope identifies the meeting a role grant applies to.
type MeetingScope struct {
	MeetingID string
}

// NewAccount carries the fields for one account creation.
type NewAccount struct {
	Userid    string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

// AccountHandle identifies a created account in the registry.
type AccountHandle struct {
	ID     uuid.UUID
	Userid string
}

// Imported describes one account as it was actually created: the resolved
// userid, the supplied or generated password, and the passthrough fields.
type Imported struct {
	Userid    string `json:"userid"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Directory answers existence questions against the live user registry.
type Directory interface {
	// UserExists reports whether userid is already registered.
	UserExists(ctx context.Context, userid string) (bool, error)

	// EmailAvailable reports whether email is well formed and not yet
	// registered. Format and uniqueness are one predicate on purpose:
	// callers never need to tell the two failures apart.
	EmailAvailable(ctx context.Context, email string) (bool, error)
}

// Accounts creates user accounts in the registry.
type Accounts interface {
	CreateAccount(ctx context.Context, acct NewAccount) (AccountHandle, error)
}

// Roles grants meeting roles to users.
type Roles interface {
	GrantRoles(ctx context.Context, scope MeetingScope, userid string, roles []Role) error
}
