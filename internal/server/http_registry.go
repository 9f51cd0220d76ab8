package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// handleCreateMeeting handles POST /v1/meetings.
func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	var in createMeetingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m, err := s.createMeeting(r.Context(), org, in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// handleListMeetings handles GET /v1/meetings.
func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	q := r.URL.Query()
	meetings, err := s.store.ListMeetings(r.Context(), model.MeetingFilter{
		OrganizationID: org,
		Department:     q.Get("department"),
		TeamID:         q.Get("team"),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if meetings == nil {
		meetings = []*model.Meeting{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"meetings": meetings})
}

// handleGetMeeting handles GET /v1/meetings/{id}.
func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	id := r.PathValue("id")
	m, err := s.store.GetMeeting(r.Context(), org, id)
	if errors.Is(err, sql.ErrNoRows) {
		err = &model.NotFoundError{Resource: "meeting", ID: id}
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleCreateParticipant handles POST /v1/participants.
func (s *Server) handleCreateParticipant(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	var in createParticipantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	p, err := s.createParticipant(r.Context(), org, in)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// handleListParticipants handles GET /v1/participants.
func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	q := r.URL.Query()
	participants, err := s.store.ListParticipants(r.Context(), model.ParticipantFilter{
		OrganizationID: org,
		Department:     q.Get("department"),
		TeamID:         q.Get("team"),
		ActiveOnly:     q.Get("active") == "true",
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if participants == nil {
		participants = []*model.Participant{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"participants": participants})
}

// handleGetParticipant handles GET /v1/participants/{id}.
func (s *Server) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	id := r.PathValue("id")
	p, err := s.store.GetParticipant(r.Context(), org, id)
	if errors.Is(err, sql.ErrNoRows) {
		err = &model.NotFoundError{Resource: "participant", ID: id}
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
