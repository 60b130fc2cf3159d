package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/quorumtools/participants/internal/core"
)

// StoredAccount is an account as kept by the in-memory registry.
type StoredAccount struct {
	ID           uuid.UUID
	Userid       string
	PasswordHash string
	Email        string
	FirstName    string
	LastName     string
}

// Memory is a mutex-guarded in-memory registry with the same semantics as
// Store. It backs tests and local development without a database.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]StoredAccount
	emails   map[string]string // lower(email) -> userid

	// grants maps meeting ID -> userid -> granted roles.
	grants map[string]map[string][]core.Role
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]StoredAccount),
		emails:   make(map[string]string),
		grants:   make(map[string]map[string][]core.Role),
	}
}

func (m *Memory) UserExists(_ context.Context, userid string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.accounts[userid]
	return ok, nil
}

func (m *Memory) EmailAvailable(_ context.Context, email string) (bool, error) {
	if !wellFormedEmail(email) {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, taken := m.emails[strings.ToLower(email)]
	return !taken, nil
}

func (m *Memory) CreateAccount(_ context.Context, acct core.NewAccount) (core.AccountHandle, error) {
	// MinCost keeps account creation cheap where no real credentials are
	// at stake.
	hash, err := bcrypt.GenerateFromPassword([]byte(acct.Password), bcrypt.MinCost)
	if err != nil {
		return core.AccountHandle{}, fmt.Errorf("hash password: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[acct.Userid]; ok {
		return core.AccountHandle{}, fmt.Errorf("userid %q already registered", acct.Userid)
	}

	stored := StoredAccount{
		ID:           uuid.New(),
		Userid:       acct.Userid,
		PasswordHash: string(hash),
		Email:        acct.Email,
		FirstName:    acct.FirstName,
		LastName:     acct.LastName,
	}
	m.accounts[acct.Userid] = stored
	if acct.Email != "" {
		m.emails[strings.ToLower(acct.Email)] = acct.Userid
	}

	return core.AccountHandle{ID: stored.ID, Userid: acct.Userid}, nil
}

func (m *Memory) GrantRoles(_ context.Context, scope core.MeetingScope, userid string, roles []core.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meeting := m.grants[scope.MeetingID]
	if meeting == nil {
		meeting = make(map[string][]core.Role)
		m.grants[scope.MeetingID] = meeting
	}

	for _, role := range roles {
		if !hasRole(meeting[userid], role) {
			meeting[userid] = append(meeting[userid], role)
		}
	}
	return nil
}

// Seed registers an account directly, bypassing the import pipeline. Test
// and development helper.
func (m *Memory) Seed(userid, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts[userid] = StoredAccount{ID: uuid.New(), Userid: userid, Email: email}
	if email != "" {
		m.emails[strings.ToLower(email)] = userid
	}
}

// Account returns the stored account for userid.
func (m *Memory) Account(userid string) (StoredAccount, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[userid]
	return acct, ok
}

// Userids returns all registered userids in sorted order.
func (m *Memory) Userids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.accounts))
	for id := range m.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RolesFor returns the roles granted to userid within the meeting.
func (m *Memory) RolesFor(meetingID, userid string) []core.Role {
	m.mu.Lock()
	defer m.mu.Unlock()

	meeting := m.grants[meetingID]
	if meeting == nil {
		return nil
	}
	return append([]core.Role(nil), meeting[userid]...)
}

func hasRole(roles []core.Role, role core.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
