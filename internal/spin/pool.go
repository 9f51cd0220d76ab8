// Package spin implements the selection engine: candidate resolution,
// the recency eligibility policy, the pick strategies, and the atomic
// write that records a selection together with its counters.
package spin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

// ParticipantPool resolves the raw candidate set for a meeting.
type ParticipantPool struct {
	store store.Store
}

// NewParticipantPool returns a pool reading from s.
func NewParticipantPool(s store.Store) *ParticipantPool {
	return &ParticipantPool{store: s}
}

// Candidates loads the meeting and its active candidates. A meeting roster,
// when present, is the candidate list; otherwise candidates match the
// department (the argument, else the meeting's) and the meeting's team.
// An empty result is not an error here.
func (p *ParticipantPool) Candidates(ctx context.Context, orgID, meetingID, department string) (*model.Meeting, []*model.Participant, error) {
	meeting, err := p.store.GetMeeting(ctx, orgID, meetingID)
	if err != nil {
		return nil, nil, lookupError(err, "meeting", meetingID)
	}

	filter := model.ParticipantFilter{
		OrganizationID: orgID,
		ActiveOnly:     true,
	}
	if meeting.HasRoster() {
		filter.IDs = meeting.Roster
	} else {
		filter.Department = department
		if filter.Department == "" {
			filter.Department = meeting.Department
		}
		filter.TeamID = meeting.TeamID
	}

	candidates, err := p.store.ListParticipants(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list candidates for meeting %s: %w", meetingID, err)
	}
	return meeting, candidates, nil
}

// FilterEligible applies the recency policy to candidates. Without
// excludeRecent every candidate is eligible. With it, never-selected
// candidates win outright; if everyone has been picked before, the
// least recently selected ceil(n/2) remain. The input slice is not
// modified. An empty result fails with model.ErrNoEligibleParticipants.
func FilterEligible(candidates []*model.Participant, excludeRecent bool) ([]*model.Participant, error) {
	if len(candidates) == 0 {
		return nil, model.ErrNoEligibleParticipants
	}
	if !excludeRecent {
		return append([]*model.Participant(nil), candidates...), nil
	}

	var never, previous []*model.Participant
	for _, c := range candidates {
		if c.NeverSelected() {
			never = append(never, c)
		} else {
			previous = append(previous, c)
		}
	}
	if len(never) > 0 {
		return never, nil
	}

	// Ties keep the pool order (name, id).
	sort.SliceStable(previous, func(i, j int) bool {
		return previous[i].LastSelectedAt.Before(*previous[j].LastSelectedAt)
	})
	half := (len(previous) + 1) / 2
	return previous[:half], nil
}

// lookupError converts a missing row into a *model.NotFoundError.
func lookupError(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &model.NotFoundError{Resource: resource, ID: id}
	}
	return fmt.Errorf("get %s %s: %w", resource, id, err)
}
