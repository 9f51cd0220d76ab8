package memory

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

type state struct {
	meetings     map[string]*model.Meeting
	participants map[string]*model.Participant
	selections   []*model.SelectionRecord
}

func newState() *state {
	return &state{
		meetings:     make(map[string]*model.Meeting),
		participants: make(map[string]*model.Participant),
	}
}

// clone deep-copies the mutable rows. Selection records are never
// modified in place, so the log shares its entries.
func (s *state) clone() *state {
	c := newState()
	for k, m := range s.meetings {
		c.meetings[k] = cloneMeeting(m)
	}
	for k, p := range s.participants {
		c.participants[k] = cloneParticipant(p)
	}
	c.selections = append([]*model.SelectionRecord(nil), s.selections...)
	return c
}

func key(orgID, id string) string {
	return orgID + "/" + id
}

func cloneMeeting(m *model.Meeting) *model.Meeting {
	c := *m
	if m.Roster != nil {
		c.Roster = append([]string(nil), m.Roster...)
	}
	c.Statistics.LastActivity = cloneTime(m.Statistics.LastActivity)
	return &c
}

func cloneParticipant(p *model.Participant) *model.Participant {
	c := *p
	c.LastSelectedAt = cloneTime(p.LastSelectedAt)
	return &c
}

func cloneSelection(r *model.SelectionRecord) *model.SelectionRecord {
	c := *r
	if r.DurationMs != nil {
		d := *r.DurationMs
		c.DurationMs = &d
	}
	if r.Metadata != nil {
		c.Metadata = append(json.RawMessage(nil), r.Metadata...)
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func laterOf(cur *time.Time, at time.Time) *time.Time {
	if cur != nil && cur.After(at) {
		return cur
	}
	return &at
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && !t.Before(*to) {
		return false
	}
	return true
}

func matchSelection(r *model.SelectionRecord, f model.SelectionFilter) bool {
	if r.OrganizationID != f.OrganizationID {
		return false
	}
	if f.MeetingID != "" && r.MeetingID != f.MeetingID {
		return false
	}
	if f.ParticipantID != "" && r.ParticipantID != f.ParticipantID {
		return false
	}
	if f.Department != "" && r.ParticipantDepartment != f.Department {
		return false
	}
	if f.TeamID != "" && r.ParticipantTeamID != f.TeamID {
		return false
	}
	return inRange(r.SelectedAt, f.From, f.To)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
