package core

// Shared in-memory registry fakes for the pipeline tests.

import (
	"context"
	"errors"
	"net/mail"
	"sort"

	"github.com/google/uuid"
)

type grantCall struct {
	scope  MeetingScope
	userid string
	roles  []Role
}

// fakeRegistry implements Directory, Accounts and Roles in memory.
type fakeRegistry struct {
	users    map[string]NewAccount
	emails   map[string]bool
	grants   []grantCall
	failFor  string // userid whose CreateAccount fails
	grantErr error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		users:  make(map[string]NewAccount),
		emails: make(map[string]bool),
	}
}

// seed registers a pre-existing account outside any import batch.
func (f *fakeRegistry) seed(userid, email string) {
	f.users[userid] = NewAccount{Userid: userid, Email: email}
	if email != "" {
		f.emails[email] = true
	}
}

func (f *fakeRegistry) UserExists(_ context.Context, userid string) (bool, error) {
	_, ok := f.users[userid]
	return ok, nil
}

func (f *fakeRegistry) EmailAvailable(_ context.Context, email string) (bool, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return false, nil
	}
	return !f.emails[email], nil
}

func (f *fakeRegistry) CreateAccount(_ context.Context, acct NewAccount) (AccountHandle, error) {
	if acct.Userid == f.failFor {
		return AccountHandle{}, errors.New("storage unavailable")
	}
	if _, ok := f.users[acct.Userid]; ok {
		return AccountHandle{}, errors.New("userid already registered")
	}
	f.users[acct.Userid] = acct
	if acct.Email != "" {
		f.emails[acct.Email] = true
	}
	return AccountHandle{ID: uuid.New(), Userid: acct.Userid}, nil
}

func (f *fakeRegistry) GrantRoles(_ context.Context, scope MeetingScope, userid string, roles []Role) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	f.grants = append(f.grants, grantCall{scope: scope, userid: userid, roles: roles})
	return nil
}

// userids returns the registered userids in sorted order.
func (f *fakeRegistry) userids() []string {
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
