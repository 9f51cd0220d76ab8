package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version          string    `json:"version"`
	Type             string    `json:"type"`
	Timestamp        time.Time `json:"timestamp"`
	OrganizationID   string    `json:"organization_id"`
	MeetingCount     int       `json:"meeting_count"`
	ParticipantCount int       `json:"participant_count"`
	SelectionCount   int       `json:"selection_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Stats reports how many rows an export wrote.
type Stats struct {
	Meetings     int
	Participants int
	Selections   int
}

// ExportJSONL writes one organization's meetings, participants and
// selection log to w as JSONL. Meetings and participants are sorted by ID;
// selections are written oldest first.
func ExportJSONL(ctx context.Context, s store.Store, orgID string, now time.Time, w io.Writer) (Stats, error) {
	meetings, err := s.ListMeetings(ctx, model.MeetingFilter{OrganizationID: orgID})
	if err != nil {
		return Stats{}, fmt.Errorf("list meetings: %w", err)
	}
	sort.Slice(meetings, func(i, j int) bool { return meetings[i].ID < meetings[j].ID })

	participants, err := s.ListParticipants(ctx, model.ParticipantFilter{OrganizationID: orgID})
	if err != nil {
		return Stats{}, fmt.Errorf("list participants: %w", err)
	}
	sort.Slice(participants, func(i, j int) bool { return participants[i].ID < participants[j].ID })

	selections, err := s.ListSelections(ctx, model.SelectionFilter{OrganizationID: orgID})
	if err != nil {
		return Stats{}, fmt.Errorf("list selections: %w", err)
	}
	sort.SliceStable(selections, func(i, j int) bool {
		if !selections[i].SelectedAt.Equal(selections[j].SelectedAt) {
			return selections[i].SelectedAt.Before(selections[j].SelectedAt)
		}
		return selections[i].ID < selections[j].ID
	})

	stats := Stats{Meetings: len(meetings), Participants: len(participants), Selections: len(selections)}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:          "1",
		Type:             "header",
		Timestamp:        now.UTC(),
		OrganizationID:   orgID,
		MeetingCount:     stats.Meetings,
		ParticipantCount: stats.Participants,
		SelectionCount:   stats.Selections,
	}); err != nil {
		return stats, fmt.Errorf("encode header: %w", err)
	}

	for _, m := range meetings {
		if err := enc.Encode(record{Type: "meeting", Data: m}); err != nil {
			return stats, fmt.Errorf("encode meeting %s: %w", m.ID, err)
		}
	}
	for _, p := range participants {
		if err := enc.Encode(record{Type: "participant", Data: p}); err != nil {
			return stats, fmt.Errorf("encode participant %s: %w", p.ID, err)
		}
	}
	for _, r := range selections {
		if err := enc.Encode(record{Type: "selection", Data: r}); err != nil {
			return stats, fmt.Errorf("encode selection %s: %w", r.ID, err)
		}
	}

	return stats, nil
}
