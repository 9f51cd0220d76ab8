package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxSelectionDurationMs bounds the optional spin duration stored on a record.
const MaxSelectionDurationMs = 60000

// SelectionMethod is the closed set of pick strategies.
type SelectionMethod string

const (
	MethodRandom   SelectionMethod = "random"
	MethodWeighted SelectionMethod = "weighted"
	MethodManual   SelectionMethod = "manual"
)

// String returns the string representation of the method.
func (m SelectionMethod) String() string {
	return string(m)
}

// IsValid checks whether the method is a known value.
func (m SelectionMethod) IsValid() bool {
	switch m {
	case MethodRandom, MethodWeighted, MethodManual:
		return true
	}
	return false
}

// ParseSelectionMethod converts a raw value into a SelectionMethod.
// Unknown values wrap ErrInvalidSelectionMethod.
func ParseSelectionMethod(s string) (SelectionMethod, error) {
	m := SelectionMethod(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSelectionMethod, s)
	}
	return m, nil
}

// SelectionRecord is an immutable entry in the selection log. The participant
// name, department and team are snapshots taken at selection time.
type SelectionRecord struct {
	ID                    string          `json:"id"`
	OrganizationID        string          `json:"organization_id"`
	MeetingID             string          `json:"meeting_id"`
	ParticipantID         string          `json:"participant_id"`
	ParticipantName       string          `json:"participant_name"`
	ParticipantDepartment string          `json:"participant_department,omitempty"`
	ParticipantTeamID     string          `json:"participant_team_id,omitempty"`
	Method                SelectionMethod `json:"selection_method"`
	DurationMs            *int            `json:"duration_ms,omitempty"`
	SessionID             string          `json:"session_id,omitempty"`
	Metadata              json.RawMessage `json:"metadata,omitempty"`
	SelectedAt            time.Time       `json:"selected_at"`
}

// SelectionFilter holds criteria for reading the selection log.
type SelectionFilter struct {
	OrganizationID string     `json:"organization_id"`
	MeetingID      string     `json:"meeting_id,omitempty"`
	ParticipantID  string     `json:"participant_id,omitempty"`
	Department     string     `json:"department,omitempty"` // matches the department snapshot
	TeamID         string     `json:"team_id,omitempty"`    // matches the team snapshot
	From           *time.Time `json:"from,omitempty"`       // inclusive
	To             *time.Time `json:"to,omitempty"`         // exclusive
	Limit          int        `json:"limit,omitempty"`      // 0 = unlimited
}

// ClearResult describes what a clear-history deletion touched.
type ClearResult struct {
	Deleted        int      `json:"deleted"`
	ParticipantIDs []string `json:"participant_ids,omitempty"`
	MeetingIDs     []string `json:"meeting_ids,omitempty"`
}
