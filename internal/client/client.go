// Package client provides a transport-agnostic interface for the spinner
// service and an HTTP/JSON implementation that talks to its REST API.
package client

import (
	"context"
	"encoding/json"
	"io"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// SpinnerClient is the interface every CLI command uses to talk to the
// spinner server. It is implemented by HTTPClient.
type SpinnerClient interface {
	// Registry
	CreateMeeting(ctx context.Context, req *CreateMeetingRequest) (*model.Meeting, error)
	GetMeeting(ctx context.Context, id string) (*model.Meeting, error)
	ListMeetings(ctx context.Context, q *ListQuery) ([]*model.Meeting, error)
	CreateParticipant(ctx context.Context, req *CreateParticipantRequest) (*model.Participant, error)
	GetParticipant(ctx context.Context, id string) (*model.Participant, error)
	ListParticipants(ctx context.Context, q *ListQuery) ([]*model.Participant, error)

	// Spins and history
	Spin(ctx context.Context, meetingID string, req *SpinRequest) (*SpinResult, error)
	RecordSelection(ctx context.Context, meetingID string, req *RecordRequest) (*model.SelectionRecord, error)
	ListSelections(ctx context.Context, q *SelectionQuery) ([]*model.SelectionRecord, error)
	ClearHistory(ctx context.Context, scope *Scope) (int, error)

	// Analytics
	Fairness(ctx context.Context, scope *Scope) (*model.FairnessReport, error)
	Engagement(ctx context.Context) (*model.EngagementReport, error)
	PeakHours(ctx context.Context) (*model.PeakHoursReport, error)
	WeeklyTrend(ctx context.Context) (*model.WeeklyTrendReport, error)
	Departments(ctx context.Context) ([]model.DepartmentPerformance, error)

	// Export streams the organization's JSONL history into w.
	Export(ctx context.Context, w io.Writer) error

	// Health
	Health(ctx context.Context) (string, error)

	// Lifecycle
	Close() error
}

// CreateMeetingRequest holds parameters for creating a meeting.
type CreateMeetingRequest struct {
	Name       string                `json:"name"`
	Department string                `json:"department,omitempty"`
	TeamID     string                `json:"team_id,omitempty"`
	Roster     []string              `json:"roster,omitempty"`
	Settings   model.MeetingSettings `json:"settings"`
}

// CreateParticipantRequest holds parameters for creating a participant.
type CreateParticipantRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	TeamID     string `json:"team_id,omitempty"`
	Active     *bool  `json:"active,omitempty"`
}

// ListQuery narrows meeting and participant listings.
type ListQuery struct {
	Department string
	TeamID     string
	ActiveOnly bool // participants only
}

// SpinRequest holds the optional spin parameters. Nil
// ExcludeRecentlySelected means the server default (true).
type SpinRequest struct {
	Department              string                `json:"department,omitempty"`
	SelectionMethod         model.SelectionMethod `json:"selection_method,omitempty"`
	ExcludeRecentlySelected *bool                 `json:"exclude_recently_selected,omitempty"`
	DurationMs              *int                  `json:"duration_ms,omitempty"`
	SessionID               string                `json:"session_id,omitempty"`
}

// SpinResult is the response from Spin. For manual spins only Method and
// Eligible are set.
type SpinResult struct {
	Method      model.SelectionMethod  `json:"selection_method"`
	Participant *model.Participant     `json:"participant,omitempty"`
	Record      *model.SelectionRecord `json:"record,omitempty"`
	Eligible    []*model.Participant   `json:"eligible_participants,omitempty"`
}

// RecordRequest holds parameters for recording an out-of-band pick.
type RecordRequest struct {
	ParticipantID   string                `json:"participant_id"`
	SelectionMethod model.SelectionMethod `json:"selection_method,omitempty"`
	DurationMs      *int                  `json:"duration_ms,omitempty"`
	SessionID       string                `json:"session_id,omitempty"`
	Metadata        json.RawMessage       `json:"metadata,omitempty"`
}

// SelectionQuery filters the selection history.
type SelectionQuery struct {
	MeetingID     string
	ParticipantID string
	Department    string
	TeamID        string
	Limit         int
}

// Scope bounds clear-history and fairness calls within the client's
// organization.
type Scope struct {
	MeetingID  string
	Department string
	TeamID     string
}
