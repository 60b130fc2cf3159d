package web

// errors.go maps pipeline errors to HTTP responses.
//
// The three core error kinds keep their distinct channels on the wire:
//
//   - MalformedInputError  -> 400, the text never parsed
//   - ValidationError      -> 422, categorized messages for the whole batch
//   - AccountCreationError -> 500, with the count already committed so the
//     caller can tell a partial import from no import
//
// Everything else is a plain 500. Technical detail goes to the log with the
// request ID; the response body stays user-facing.

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quorumtools/participants/internal/core"
	"github.com/quorumtools/participants/internal/logging"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages,omitempty"`
	Line     int      `json:"line,omitempty"`
	Imported int      `json:"imported,omitempty"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		malformed *core.MalformedInputError
		rejected  *core.ValidationError
		creation  *core.AccountCreationError
	)

	var status int
	var body errorResponse

	switch {
	case errors.As(err, &malformed):
		status = http.StatusBadRequest
		body = errorResponse{Error: malformed.Error(), Line: malformed.Line}

	case errors.As(err, &rejected):
		status = http.StatusUnprocessableEntity
		body = errorResponse{
			Error:    "participant list rejected",
			Messages: rejected.Report.Messages(),
		}

	case errors.As(err, &creation):
		status = http.StatusInternalServerError
		body = errorResponse{
			Error:    "import aborted: " + creation.Error(),
			Imported: creation.Created,
		}

	case errors.Is(err, core.ErrUnknownRole),
		errors.Is(err, core.ErrNoRoles),
		errors.Is(err, core.ErrBatchTooLarge):
		status = http.StatusBadRequest
		body = errorResponse{Error: err.Error()}

	default:
		status = http.StatusInternalServerError
		body = errorResponse{Error: "internal error"}
	}

	logging.FromContext(r.Context()).Error("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err,
	)

	writeJSON(w, status, body)
}

// writeError writes a bare JSON error without consulting the core error
// taxonomy; used for request decoding failures.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON writes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
