package model

import "time"

// MeetingSettings holds per-meeting spin defaults.
type MeetingSettings struct {
	SelectionMethod SelectionMethod `json:"selection_method,omitempty"`
}

// MeetingStatistics is the denormalized spin counter for a meeting.
type MeetingStatistics struct {
	TotalSpins   int        `json:"total_spins"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
}

// Meeting scopes a spin. When Roster is non-empty it is the explicit
// candidate list; otherwise Department/TeamID select the candidates.
type Meeting struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id"`
	Name           string            `json:"name"`
	Department     string            `json:"department,omitempty"`
	TeamID         string            `json:"team_id,omitempty"`
	Roster         []string          `json:"roster,omitempty"`
	Settings       MeetingSettings   `json:"settings"`
	Statistics     MeetingStatistics `json:"statistics"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// HasRoster reports whether the meeting restricts candidates to an explicit list.
func (m *Meeting) HasRoster() bool {
	return len(m.Roster) > 0
}

// MeetingFilter holds criteria for querying meetings.
type MeetingFilter struct {
	OrganizationID string     `json:"organization_id"`
	Department     string     `json:"department,omitempty"`
	TeamID         string     `json:"team_id,omitempty"`
	CreatedFrom    *time.Time `json:"created_from,omitempty"` // inclusive
	CreatedTo      *time.Time `json:"created_to,omitempty"`   // exclusive
}
