// Package memory implements store.Store in process memory. It backs the
// test suites and the "memory://" database URL used for local demos.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

// MemoryStore implements store.Store. Transactions run against a copy of
// the data that replaces the live copy only when fn succeeds.
type MemoryStore struct {
	mu     sync.Mutex
	data   *state
	faults map[string]error
}

// Compile-time check that MemoryStore implements store.Store.
var _ store.Store = (*MemoryStore)(nil)

// New returns an empty store.
func New() *MemoryStore {
	return &MemoryStore{
		data:   newState(),
		faults: make(map[string]error),
	}
}

// FailOn makes every later call to the named Store method return err.
// Passing a nil err clears the fault.
func (s *MemoryStore) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, method)
		return
	}
	s.faults[method] = err
}

func (s *MemoryStore) view() *txView {
	return &txView{data: s.data, faults: s.faults}
}

func (s *MemoryStore) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateMeeting(ctx, m)
}

func (s *MemoryStore) GetMeeting(ctx context.Context, orgID, id string) (*model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetMeeting(ctx, orgID, id)
}

func (s *MemoryStore) ListMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListMeetings(ctx, filter)
}

func (s *MemoryStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().CreateParticipant(ctx, p)
}

func (s *MemoryStore) GetParticipant(ctx context.Context, orgID, id string) (*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetParticipant(ctx, orgID, id)
}

func (s *MemoryStore) ListParticipants(ctx context.Context, filter model.ParticipantFilter) ([]*model.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListParticipants(ctx, filter)
}

func (s *MemoryStore) InsertSelection(ctx context.Context, rec *model.SelectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().InsertSelection(ctx, rec)
}

func (s *MemoryStore) ListSelections(ctx context.Context, filter model.SelectionFilter) ([]*model.SelectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListSelections(ctx, filter)
}

func (s *MemoryStore) IncrementParticipantSelection(ctx context.Context, orgID, participantID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().IncrementParticipantSelection(ctx, orgID, participantID, at)
}

func (s *MemoryStore) IncrementMeetingSpins(ctx context.Context, orgID, meetingID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().IncrementMeetingSpins(ctx, orgID, meetingID, at)
}

func (s *MemoryStore) DeleteSelections(ctx context.Context, scope model.SelectionScope) (*model.ClearResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().DeleteSelections(ctx, scope)
}

func (s *MemoryStore) RecountParticipants(ctx context.Context, orgID string, participantIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().RecountParticipants(ctx, orgID, participantIDs)
}

func (s *MemoryStore) RecountMeetings(ctx context.Context, orgID string, meetingIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().RecountMeetings(ctx, orgID, meetingIDs)
}

func (s *MemoryStore) ListOrganizationIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListOrganizationIDs(ctx)
}

// RunInTransaction serializes fn against all other access. Writes made
// through tx become visible only if fn returns nil; an error or panic
// leaves the store untouched.
func (s *MemoryStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.faults["RunInTransaction"]; err != nil {
		return err
	}

	tx := &txView{data: s.data.clone(), faults: s.faults}
	if err := fn(tx); err != nil {
		return err
	}
	if err := s.faults["Commit"]; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.data = tx.data
	return nil
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults["Ping"]
}

func (s *MemoryStore) Close() error { return nil }

// txView operates on a state without locking. The live store wraps it
// under its mutex; transactions hand it out over a private copy.
type txView struct {
	data   *state
	faults map[string]error
}

// Compile-time check that txView implements store.Store.
var _ store.Store = (*txView)(nil)

func (v *txView) CreateMeeting(_ context.Context, m *model.Meeting) error {
	if err := v.faults["CreateMeeting"]; err != nil {
		return err
	}
	k := key(m.OrganizationID, m.ID)
	if _, ok := v.data.meetings[k]; ok {
		return fmt.Errorf("meeting %q already exists", m.ID)
	}
	v.data.meetings[k] = cloneMeeting(m)
	return nil
}

func (v *txView) GetMeeting(_ context.Context, orgID, id string) (*model.Meeting, error) {
	if err := v.faults["GetMeeting"]; err != nil {
		return nil, err
	}
	m, ok := v.data.meetings[key(orgID, id)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneMeeting(m), nil
}

func (v *txView) ListMeetings(_ context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	if err := v.faults["ListMeetings"]; err != nil {
		return nil, err
	}
	var out []*model.Meeting
	for _, m := range v.data.meetings {
		if m.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.Department != "" && m.Department != filter.Department {
			continue
		}
		if filter.TeamID != "" && m.TeamID != filter.TeamID {
			continue
		}
		if !inRange(m.CreatedAt, filter.CreatedFrom, filter.CreatedTo) {
			continue
		}
		out = append(out, cloneMeeting(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *txView) CreateParticipant(_ context.Context, p *model.Participant) error {
	if err := v.faults["CreateParticipant"]; err != nil {
		return err
	}
	k := key(p.OrganizationID, p.ID)
	if _, ok := v.data.participants[k]; ok {
		return fmt.Errorf("participant %q already exists", p.ID)
	}
	v.data.participants[k] = cloneParticipant(p)
	return nil
}

func (v *txView) GetParticipant(_ context.Context, orgID, id string) (*model.Participant, error) {
	if err := v.faults["GetParticipant"]; err != nil {
		return nil, err
	}
	p, ok := v.data.participants[key(orgID, id)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cloneParticipant(p), nil
}

func (v *txView) ListParticipants(_ context.Context, filter model.ParticipantFilter) ([]*model.Participant, error) {
	if err := v.faults["ListParticipants"]; err != nil {
		return nil, err
	}
	var ids map[string]bool
	if filter.IDs != nil {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	var out []*model.Participant
	for _, p := range v.data.participants {
		if p.OrganizationID != filter.OrganizationID {
			continue
		}
		if ids != nil && !ids[p.ID] {
			continue
		}
		if filter.Department != "" && p.Department != filter.Department {
			continue
		}
		if filter.TeamID != "" && p.TeamID != filter.TeamID {
			continue
		}
		if filter.ActiveOnly && !p.Active {
			continue
		}
		if !inRange(p.CreatedAt, filter.CreatedFrom, filter.CreatedTo) {
			continue
		}
		out = append(out, cloneParticipant(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *txView) InsertSelection(_ context.Context, rec *model.SelectionRecord) error {
	if err := v.faults["InsertSelection"]; err != nil {
		return err
	}
	if _, ok := v.data.meetings[key(rec.OrganizationID, rec.MeetingID)]; !ok {
		return fmt.Errorf("insert selection: meeting %q does not exist", rec.MeetingID)
	}
	if _, ok := v.data.participants[key(rec.OrganizationID, rec.ParticipantID)]; !ok {
		return fmt.Errorf("insert selection: participant %q does not exist", rec.ParticipantID)
	}
	for _, existing := range v.data.selections {
		if existing.ID == rec.ID {
			return fmt.Errorf("selection %q already exists", rec.ID)
		}
	}
	v.data.selections = append(v.data.selections, cloneSelection(rec))
	return nil
}

func (v *txView) ListSelections(_ context.Context, filter model.SelectionFilter) ([]*model.SelectionRecord, error) {
	if err := v.faults["ListSelections"]; err != nil {
		return nil, err
	}
	var out []*model.SelectionRecord
	for _, r := range v.data.selections {
		if matchSelection(r, filter) {
			out = append(out, cloneSelection(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SelectedAt.Equal(out[j].SelectedAt) {
			return out[i].SelectedAt.After(out[j].SelectedAt)
		}
		return out[i].ID < out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (v *txView) IncrementParticipantSelection(_ context.Context, orgID, participantID string, at time.Time) error {
	if err := v.faults["IncrementParticipantSelection"]; err != nil {
		return err
	}
	p, ok := v.data.participants[key(orgID, participantID)]
	if !ok {
		return sql.ErrNoRows
	}
	p.MarkSelected(at)
	p.UpdatedAt = at
	return nil
}

func (v *txView) IncrementMeetingSpins(_ context.Context, orgID, meetingID string, at time.Time) error {
	if err := v.faults["IncrementMeetingSpins"]; err != nil {
		return err
	}
	m, ok := v.data.meetings[key(orgID, meetingID)]
	if !ok {
		return sql.ErrNoRows
	}
	m.Statistics.TotalSpins++
	m.Statistics.LastActivity = laterOf(m.Statistics.LastActivity, at)
	m.UpdatedAt = at
	return nil
}

func (v *txView) DeleteSelections(_ context.Context, scope model.SelectionScope) (*model.ClearResult, error) {
	if err := v.faults["DeleteSelections"]; err != nil {
		return nil, err
	}
	filter := scope.SelectionFilter()
	result := &model.ClearResult{}
	participants := make(map[string]struct{})
	meetings := make(map[string]struct{})

	kept := v.data.selections[:0:0]
	for _, r := range v.data.selections {
		if !matchSelection(r, filter) {
			kept = append(kept, r)
			continue
		}
		result.Deleted++
		participants[r.ParticipantID] = struct{}{}
		meetings[r.MeetingID] = struct{}{}
	}
	v.data.selections = kept
	result.ParticipantIDs = sortedKeys(participants)
	result.MeetingIDs = sortedKeys(meetings)
	return result, nil
}

func (v *txView) RecountParticipants(_ context.Context, orgID string, participantIDs []string) error {
	if err := v.faults["RecountParticipants"]; err != nil {
		return err
	}
	for _, id := range participantIDs {
		p, ok := v.data.participants[key(orgID, id)]
		if !ok {
			continue
		}
		p.SelectionCount, p.LastSelectedAt = 0, nil
		for _, r := range v.data.selections {
			if r.OrganizationID == orgID && r.ParticipantID == id {
				p.SelectionCount++
				p.LastSelectedAt = laterOf(p.LastSelectedAt, r.SelectedAt)
			}
		}
	}
	return nil
}

func (v *txView) RecountMeetings(_ context.Context, orgID string, meetingIDs []string) error {
	if err := v.faults["RecountMeetings"]; err != nil {
		return err
	}
	for _, id := range meetingIDs {
		m, ok := v.data.meetings[key(orgID, id)]
		if !ok {
			continue
		}
		m.Statistics = model.MeetingStatistics{}
		for _, r := range v.data.selections {
			if r.OrganizationID == orgID && r.MeetingID == id {
				m.Statistics.TotalSpins++
				m.Statistics.LastActivity = laterOf(m.Statistics.LastActivity, r.SelectedAt)
			}
		}
	}
	return nil
}

func (v *txView) ListOrganizationIDs(context.Context) ([]string, error) {
	if err := v.faults["ListOrganizationIDs"]; err != nil {
		return nil, err
	}
	orgs := make(map[string]struct{})
	for _, m := range v.data.meetings {
		orgs[m.OrganizationID] = struct{}{}
	}
	for _, p := range v.data.participants {
		orgs[p.OrganizationID] = struct{}{}
	}
	return sortedKeys(orgs), nil
}

// RunInTransaction on a txView reuses the enclosing transaction.
func (v *txView) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(v)
}

func (v *txView) Ping(context.Context) error { return nil }

func (v *txView) Close() error { return nil }
