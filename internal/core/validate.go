package core

// validate.go checks parsed records against the import rules without
// mutating any state.
//
// Findings are accumulated into category sets across the whole batch rather
// than stopping at the first offending row, so the user sees every problem
// in one pass. Any non-empty category rejects the entire import.
//
// Duplicate userids WITHIN the batch are deliberately not a finding here:
// the importer resolves them by suffixing (-1, -2, ...) at materialization
// time. The validator only checks against pre-existing accounts.

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// useridPattern is the allowed shape of a new userid: 3-30 characters,
// leading lowercase a-z, then lowercase a-z, digits, minus or underscore.
var useridPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{2,29}$`)

// Supplied password length bounds. Generated passwords always satisfy them.
const (
	MinPasswordLength = 6
	MaxPasswordLength = 100
)

// Report collects validation findings per category. It is clean iff all
// five categories are empty.
type Report struct {
	MissingUserid    []int    // rows with no userid at all
	MalformedUserids []string // userids failing the allowed pattern
	TakenUserids     []string // userids already registered
	InvalidEmails    []string // emails that are malformed or already in use
	BadPasswordRows  []int    // rows whose supplied password breaks the rules
}

// Clean reports whether the batch passed every check.
func (r *Report) Clean() bool {
	return len(r.MissingUserid) == 0 &&
		len(r.MalformedUserids) == 0 &&
		len(r.TakenUserids) == 0 &&
		len(r.InvalidEmails) == 0 &&
		len(r.BadPasswordRows) == 0
}

// Err returns nil for a clean report, otherwise a *ValidationError wrapping
// the report.
func (r *Report) Err() error {
	if r.Clean() {
		return nil
	}
	return &ValidationError{Report: r}
}

// Messages renders one human-readable line per non-empty category, listing
// the offending rows or values.
func (r *Report) Messages() []string {
	var msgs []string
	if len(r.MissingUserid) > 0 {
		msgs = append(msgs, fmt.Sprintf(
			"The following rows had no userid specified: %s.", joinRows(r.MissingUserid)))
	}
	if len(r.MalformedUserids) > 0 {
		msgs = append(msgs, fmt.Sprintf(
			"The following userids are invalid: %s. Userids must be 3-30 characters, start with a-z and may only contain lowercase a-z, digits, minus and underscore.",
			strings.Join(r.MalformedUserids, ", ")))
	}
	if len(r.TakenUserids) > 0 {
		msgs = append(msgs, fmt.Sprintf(
			"The following userids are already registered: %s.", strings.Join(r.TakenUserids, ", ")))
	}
	if len(r.InvalidEmails) > 0 {
		msgs = append(msgs, fmt.Sprintf(
			"The following email addresses are invalid or already registered: %s.",
			strings.Join(r.InvalidEmails, ", ")))
	}
	if len(r.BadPasswordRows) > 0 {
		msgs = append(msgs, fmt.Sprintf(
			"The following rows have an invalid password: %s. Passwords must be between %d and %d characters.",
			joinRows(r.BadPasswordRows), MinPasswordLength, MaxPasswordLength))
	}
	return msgs
}

// Validator checks batches of records against the live registry. It never
// writes; running it twice on the same input and registry state yields the
// same report.
type Validator struct {
	dir Directory
}

// NewValidator creates a Validator backed by the given directory.
func NewValidator(dir Directory) *Validator {
	return &Validator{dir: dir}
}

// Validate runs every record through the per-row checks and returns the
// aggregate report. The returned error is non-nil only for registry lookup
// failures, never for rule violations.
func (v *Validator) Validate(ctx context.Context, records []Record) (*Report, error) {
	report := &Report{}

	for _, rec := range records {
		if rec.Userid == "" {
			report.MissingUserid = appendRow(report.MissingUserid, rec.Line)
		} else {
			if !useridPattern.MatchString(rec.Userid) {
				report.MalformedUserids = appendValue(report.MalformedUserids, rec.Userid)
			}
			exists, err := v.dir.UserExists(ctx, rec.Userid)
			if err != nil {
				return nil, fmt.Errorf("userid lookup for %q: %w", rec.Userid, err)
			}
			if exists {
				report.TakenUserids = appendValue(report.TakenUserids, rec.Userid)
			}
		}

		if rec.Email != "" {
			ok, err := v.dir.EmailAvailable(ctx, rec.Email)
			if err != nil {
				return nil, fmt.Errorf("email lookup for %q: %w", rec.Email, err)
			}
			if !ok {
				report.InvalidEmails = appendValue(report.InvalidEmails, rec.Email)
			}
		}

		// An empty password is never a finding: one is generated at
		// import time.
		if rec.Password != "" && !validPassword(rec.Password) {
			report.BadPasswordRows = appendRow(report.BadPasswordRows, rec.Line)
		}
	}

	return report, nil
}

// validPassword checks the supplied password length bounds in characters,
// not bytes.
func validPassword(pw string) bool {
	n := utf8.RuneCountInString(pw)
	return n >= MinPasswordLength && n <= MaxPasswordLength
}

// appendRow adds a row index, keeping first-seen order and dropping
// duplicates.
func appendRow(rows []int, line int) []int {
	for _, r := range rows {
		if r == line {
			return rows
		}
	}
	return append(rows, line)
}

// appendValue adds a string finding, keeping first-seen order and dropping
// duplicates.
func appendValue(values []string, v string) []string {
	for _, existing := range values {
		if existing == v {
			return values
		}
	}
	return append(values, v)
}

// joinRows renders row indices as a comma-separated list.
func joinRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}
