package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/spin"
	historysync "github.com/youngmentor/Name-Spinner-Backend/internal/sync"
)

// defaultSelectionsLimit bounds GET /v1/selections when ?limit= is absent.
const defaultSelectionsLimit = 100

// spinInput is the JSON body for POST /v1/meetings/{id}/spin.
type spinInput struct {
	Department              string                `json:"department"`
	SelectionMethod         model.SelectionMethod `json:"selection_method"`
	ExcludeRecentlySelected *bool                 `json:"exclude_recently_selected"` // nil = true
	DurationMs              *int                  `json:"duration_ms"`
	SessionID               string                `json:"session_id"`
}

// recordInput is the JSON body for POST /v1/meetings/{id}/selections.
type recordInput struct {
	ParticipantID   string                `json:"participant_id"`
	SelectionMethod model.SelectionMethod `json:"selection_method"`
	DurationMs      *int                  `json:"duration_ms"`
	SessionID       string                `json:"session_id"`
	Metadata        json.RawMessage       `json:"metadata"`
}

// handleSpin handles POST /v1/meetings/{id}/spin.
func (s *Server) handleSpin(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	var in spinInput
	// An empty body spins with the defaults.
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	exclude := true
	if in.ExcludeRecentlySelected != nil {
		exclude = *in.ExcludeRecentlySelected
	}

	res, err := s.engine.Select(r.Context(), spin.SelectRequest{
		OrganizationID:          org,
		MeetingID:               r.PathValue("id"),
		Department:              in.Department,
		Method:                  in.SelectionMethod,
		ExcludeRecentlySelected: exclude,
		DurationMs:              in.DurationMs,
		SessionID:               in.SessionID,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if res.Method == model.MethodManual {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleRecordSelection handles POST /v1/meetings/{id}/selections.
func (s *Server) handleRecordSelection(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	var in recordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := s.engine.RecordSelection(r.Context(), spin.RecordRequest{
		OrganizationID: org,
		MeetingID:      r.PathValue("id"),
		ParticipantID:  in.ParticipantID,
		Method:         in.SelectionMethod,
		DurationMs:     in.DurationMs,
		SessionID:      in.SessionID,
		Metadata:       in.Metadata,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// handleListSelections handles GET /v1/selections.
func (s *Server) handleListSelections(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	limit, err := queryLimit(r, defaultSelectionsLimit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	q := r.URL.Query()
	recs, err := s.store.ListSelections(r.Context(), model.SelectionFilter{
		OrganizationID: org,
		MeetingID:      q.Get("meeting"),
		ParticipantID:  q.Get("participant"),
		Department:     q.Get("department"),
		TeamID:         q.Get("team"),
		Limit:          limit,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []*model.SelectionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"selections": recs})
}

// handleClearHistory handles DELETE /v1/selections.
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	n, err := s.engine.ClearHistory(r.Context(), scope)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared_count": n})
}

// handleExport handles GET /v1/export, streaming the organization's history
// in the same JSONL format the scheduler uploads.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	var buf bytes.Buffer
	if _, err := historysync.ExportJSONL(r.Context(), s.store, org, s.clock.Now(), &buf); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// scopeFromRequest builds a SelectionScope from the tenant header and the
// ?meeting=&department=&team= query.
func scopeFromRequest(r *http.Request) (model.SelectionScope, error) {
	org, err := organizationID(r)
	if err != nil {
		return model.SelectionScope{}, err
	}
	q := r.URL.Query()
	return model.NewSelectionScope(
		org,
		q.Get("department"),
		q.Get("meeting"),
		q.Get("team"),
	)
}
