package store

import (
	"context"
	"time"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// Store defines the persistence interface for meetings, participants and
// the selection log. Every read and write is scoped by organization.
// Lookups of missing rows return sql.ErrNoRows.
type Store interface {
	// Meetings
	CreateMeeting(ctx context.Context, m *model.Meeting) error
	GetMeeting(ctx context.Context, orgID, id string) (*model.Meeting, error)
	ListMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error)

	// Participants
	CreateParticipant(ctx context.Context, p *model.Participant) error
	GetParticipant(ctx context.Context, orgID, id string) (*model.Participant, error)
	ListParticipants(ctx context.Context, filter model.ParticipantFilter) ([]*model.Participant, error)

	// Selection log and counters
	InsertSelection(ctx context.Context, rec *model.SelectionRecord) error
	ListSelections(ctx context.Context, filter model.SelectionFilter) ([]*model.SelectionRecord, error)
	IncrementParticipantSelection(ctx context.Context, orgID, participantID string, at time.Time) error
	IncrementMeetingSpins(ctx context.Context, orgID, meetingID string, at time.Time) error
	DeleteSelections(ctx context.Context, scope model.SelectionScope) (*model.ClearResult, error)
	RecountParticipants(ctx context.Context, orgID string, participantIDs []string) error
	RecountMeetings(ctx context.Context, orgID string, meetingIDs []string) error

	// Organizations that own any meeting or participant (used by export).
	ListOrganizationIDs(ctx context.Context) ([]string, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
