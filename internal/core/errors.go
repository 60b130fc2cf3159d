package core

// errors.go defines the three error kinds the pipeline can produce.
//
// The channels are deliberately distinct:
//
//   - MalformedInputError: the text could not be parsed into rows at all.
//     Recoverable at the request boundary; the form is redisplayed with the
//     original text intact.
//   - ValidationError: the batch was parsed but one or more rules failed.
//     Also recoverable; carries the full categorized report so the user
//     sees every problem in one pass.
//   - AccountCreationError: the registry rejected an account mid-import.
//     Fatal; earlier rows stay committed and the error says how many.

import (
	"fmt"
	"strings"
)

// MalformedInputError reports that the submitted text could not be parsed
// with the fixed semicolon dialect (unbalanced quoting, too many fields).
type MalformedInputError struct {
	Line int // 1-based input line where parsing broke, 0 if unknown
	Err  error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed participant list on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed participant list: %v", e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// ValidationError rejects a whole batch. The import is all-or-nothing: any
// offending row blocks every row.
type ValidationError struct {
	Report *Report
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Report.Messages(), "\n")
}

// AccountCreationError reports a registry failure while materializing one
// account. Created tells the caller how many earlier rows were already
// committed, so "partial import" can be distinguished from "nothing
// imported"; no rollback is attempted.
type AccountCreationError struct {
	Line    int
	Userid  string
	Created int
	Err     error
}

func (e *AccountCreationError) Error() string {
	return fmt.Sprintf("creating account %q (row %d) failed after %d participants were imported: %v",
		e.Userid, e.Line, e.Created, e.Err)
}

func (e *AccountCreationError) Unwrap() error { return e.Err }
