package model

import "time"

// Participant is a person who can be picked during a spin.
// SelectionCount and LastSelectedAt are maintained by the selection
// coordinator and always agree with the selection log.
type Participant struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organization_id"`
	Name           string     `json:"name"`
	Email          string     `json:"email,omitempty"`
	Department     string     `json:"department,omitempty"`
	TeamID         string     `json:"team_id,omitempty"`
	SelectionCount int        `json:"selection_count"`
	LastSelectedAt *time.Time `json:"last_selected_at,omitempty"`
	Active         bool       `json:"active"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NeverSelected reports whether the participant has no recorded selection.
func (p *Participant) NeverSelected() bool {
	return p.LastSelectedAt == nil
}

// MarkSelected counts one more selection made at at. LastSelectedAt never
// moves backwards.
func (p *Participant) MarkSelected(at time.Time) {
	p.SelectionCount++
	if p.LastSelectedAt == nil || at.After(*p.LastSelectedAt) {
		p.LastSelectedAt = &at
	}
}

// ParticipantFilter holds criteria for querying participants.
// OrganizationID is mandatory; the remaining fields narrow the result.
type ParticipantFilter struct {
	OrganizationID string     `json:"organization_id"`
	IDs            []string   `json:"ids,omitempty"` // explicit roster membership
	Department     string     `json:"department,omitempty"`
	TeamID         string     `json:"team_id,omitempty"`
	ActiveOnly     bool       `json:"active_only,omitempty"`
	CreatedFrom    *time.Time `json:"created_from,omitempty"` // inclusive
	CreatedTo      *time.Time `json:"created_to,omitempty"`   // exclusive
}
