package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quorumtools/participants/internal/core"
)

// importRequest is the body of both import endpoints. Roles is optional on
// validate and defaults from configuration on import, mirroring the roles
// preselected on the original form.
type importRequest struct {
	CSV   string   `json:"csv"`
	Roles []string `json:"roles"`
}

// importResponse is the success body of a committed import.
type importResponse struct {
	BatchID      string          `json:"batch_id"`
	Count        int             `json:"count"`
	Participants []core.Imported `json:"participants"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidate runs the advisory check: parse plus validation, no writes.
// 204 means the batch would import cleanly.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeImportRequest(w, r)
	if !ok {
		return
	}

	if err := s.service.Validate(r.Context(), req.CSV); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImport runs the full pipeline and creates the accounts.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	meetingID := chi.URLParam(r, "meetingID")
	if meetingID == "" {
		writeError(w, http.StatusBadRequest, "missing meeting ID")
		return
	}

	req, ok := s.decodeImportRequest(w, r)
	if !ok {
		return
	}

	roleNames := req.Roles
	if len(roleNames) == 0 {
		roleNames = s.cfg.Import.DefaultRoles
	}
	roles := make([]core.Role, len(roleNames))
	for i, name := range roleNames {
		roles[i] = core.Role(name)
	}

	result, err := s.service.Import(r.Context(), core.MeetingScope{MeetingID: meetingID}, req.CSV, roles)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, importResponse{
		BatchID:      result.BatchID.String(),
		Count:        result.Count,
		Participants: result.Participants,
	})
}

// decodeImportRequest reads and validates the shared request body. It
// writes the error response itself when decoding fails.
func (s *Server) decodeImportRequest(w http.ResponseWriter, r *http.Request) (importRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodySize)

	var req importRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return importRequest{}, false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return importRequest{}, false
	}
	if req.CSV == "" {
		writeError(w, http.StatusBadRequest, "csv field is required")
		return importRequest{}, false
	}
	return req, true
}
