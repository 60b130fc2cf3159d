package core

// importer.go materializes validated records: one account creation and one
// role grant per record, strictly in input order.
//
// This is the only place duplicate userids within a batch are resolved.
// The validator already rejected userids that clash with pre-existing
// accounts, but two rows may still ask for the same name; the second one
// gets a -1 suffix, the third -2, and so on. Suffixed candidates are also
// checked against the registry so a generated variant cannot collide with
// an account that existed before the batch.

import (
	"context"
	"fmt"
)

// Importer creates accounts and grants meeting roles for a validated batch.
type Importer struct {
	dir      Directory
	accounts Accounts
	roles    Roles

	// generate produces fallback passwords; replaceable for tests.
	generate func() string
}

// NewImporter wires an Importer to its registry collaborators.
func NewImporter(dir Directory, accounts Accounts, roles Roles) *Importer {
	return &Importer{
		dir:      dir,
		accounts: accounts,
		roles:    roles,
		generate: GeneratePassword,
	}
}

// SetPasswordGenerator overrides the fallback password source.
func (im *Importer) SetPasswordGenerator(fn func() string) {
	if fn != nil {
		im.generate = fn
	}
}

// Import materializes every record in order and returns the created
// participants, same order and count as the input.
//
// Records are expected to have passed validation. A registry failure
// mid-batch aborts the remaining rows and surfaces as an
// *AccountCreationError; rows committed before the failure stay committed.
func (im *Importer) Import(ctx context.Context, scope MeetingScope, records []Record, roles []Role) ([]Imported, error) {
	created := make(map[string]bool, len(records))
	out := make([]Imported, 0, len(records))

	for _, rec := range records {
		password := rec.Password
		if password == "" {
			password = im.generate()
		}

		userid, err := im.resolveUserid(ctx, rec.Userid, created)
		if err != nil {
			return out, fmt.Errorf("resolving userid %q: %w", rec.Userid, err)
		}

		_, err = im.accounts.CreateAccount(ctx, NewAccount{
			Userid:    userid,
			Password:  password,
			Email:     rec.Email,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
		})
		if err != nil {
			return out, &AccountCreationError{Line: rec.Line, Userid: userid, Created: len(out), Err: err}
		}
		created[userid] = true

		if err := im.roles.GrantRoles(ctx, scope, userid, roles); err != nil {
			return out, &AccountCreationError{Line: rec.Line, Userid: userid, Created: len(out), Err: err}
		}

		out = append(out, Imported{
			Userid:    userid,
			Password:  password,
			Email:     rec.Email,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
		})
	}

	return out, nil
}

// resolveUserid finds the first free variant of base: base itself, then
// base-1, base-2, ... A candidate is taken if an earlier row in this batch
// claimed it or if the registry already knows it.
func (im *Importer) resolveUserid(ctx context.Context, base string, created map[string]bool) (string, error) {
	candidate := base
	for n := 1; ; n++ {
		if !created[candidate] {
			exists, err := im.dir.UserExists(ctx, candidate)
			if err != nil {
				return "", err
			}
			if !exists {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
