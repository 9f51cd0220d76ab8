package model

import "strings"

// SelectionScope bounds aggregate queries and clear-history operations.
// OrganizationID is mandatory; the other bounds are optional and combine
// with AND semantics. Build values with NewSelectionScope.
type SelectionScope struct {
	OrganizationID string `json:"organization_id"`
	Department     string `json:"department,omitempty"`
	MeetingID      string `json:"meeting_id,omitempty"`
	TeamID         string `json:"team_id,omitempty"`
}

// NewSelectionScope trims its inputs and validates the result.
func NewSelectionScope(organizationID, department, meetingID, teamID string) (SelectionScope, error) {
	s := SelectionScope{
		OrganizationID: strings.TrimSpace(organizationID),
		Department:     strings.TrimSpace(department),
		MeetingID:      strings.TrimSpace(meetingID),
		TeamID:         strings.TrimSpace(teamID),
	}
	if err := s.Validate(); err != nil {
		return SelectionScope{}, err
	}
	return s, nil
}

// Validate returns a *ValidationError when the organization is missing.
func (s SelectionScope) Validate() error {
	if s.OrganizationID == "" {
		return NewValidationError("organization_id", "is required")
	}
	return nil
}

// SelectionFilter converts the scope into a selection log filter.
func (s SelectionScope) SelectionFilter() SelectionFilter {
	return SelectionFilter{
		OrganizationID: s.OrganizationID,
		MeetingID:      s.MeetingID,
		Department:     s.Department,
		TeamID:         s.TeamID,
	}
}
