package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/youngmentor/Name-Spinner-Backend/internal/idgen"
	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// createMeetingInput is the JSON body for POST /v1/meetings.
type createMeetingInput struct {
	Name       string                `json:"name"`
	Department string                `json:"department"`
	TeamID     string                `json:"team_id"`
	Roster     []string              `json:"roster"`
	Settings   model.MeetingSettings `json:"settings"`
}

// createParticipantInput is the JSON body for POST /v1/participants.
type createParticipantInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	TeamID     string `json:"team_id"`
	Active     *bool  `json:"active"` // nil = active
}

func (s *Server) createMeeting(ctx context.Context, orgID string, in createMeetingInput) (*model.Meeting, error) {
	id, err := idgen.Meeting()
	if err != nil {
		return nil, fmt.Errorf("generate meeting id: %w", err)
	}
	now := s.clock.Now().UTC()
	m := &model.Meeting{
		ID:             id,
		OrganizationID: orgID,
		Name:           strings.TrimSpace(in.Name),
		Department:     strings.TrimSpace(in.Department),
		TeamID:         strings.TrimSpace(in.TeamID),
		Roster:         in.Roster,
		Settings:       in.Settings,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := model.ValidateMeeting(m); err != nil {
		return nil, err
	}
	if err := s.store.CreateMeeting(ctx, m); err != nil {
		return nil, fmt.Errorf("create meeting: %w", err)
	}
	s.logger.Info("meeting created", "organization_id", orgID, "meeting_id", m.ID)
	return m, nil
}

func (s *Server) createParticipant(ctx context.Context, orgID string, in createParticipantInput) (*model.Participant, error) {
	id, err := idgen.Participant()
	if err != nil {
		return nil, fmt.Errorf("generate participant id: %w", err)
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now := s.clock.Now().UTC()
	p := &model.Participant{
		ID:             id,
		OrganizationID: orgID,
		Name:           strings.TrimSpace(in.Name),
		Email:          strings.TrimSpace(in.Email),
		Department:     strings.TrimSpace(in.Department),
		TeamID:         strings.TrimSpace(in.TeamID),
		Active:         active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := model.ValidateParticipant(p); err != nil {
		return nil, err
	}
	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, fmt.Errorf("create participant: %w", err)
	}
	s.logger.Info("participant created", "organization_id", orgID, "participant_id", p.ID)
	return p, nil
}
