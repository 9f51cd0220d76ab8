package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store/memory"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// seedStore returns a memory store holding two organizations.
func seedStore(t *testing.T) *memory.MemoryStore {
	t.Helper()
	s := memory.New()
	ctx := context.Background()
	for _, m := range []*model.Meeting{
		{ID: "mtg-b", OrganizationID: "org-1", Name: "Retro", CreatedAt: t0},
		{ID: "mtg-a", OrganizationID: "org-1", Name: "Standup", CreatedAt: t0.Add(time.Hour)},
		{ID: "mtg-z", OrganizationID: "org-2", Name: "Other", CreatedAt: t0},
	} {
		if err := s.CreateMeeting(ctx, m); err != nil {
			t.Fatalf("CreateMeeting: %v", err)
		}
	}
	for _, p := range []*model.Participant{
		{ID: "ppl-b", OrganizationID: "org-1", Name: "Bob", Active: true, CreatedAt: t0},
		{ID: "ppl-a", OrganizationID: "org-1", Name: "Ada", Active: true, CreatedAt: t0},
		{ID: "ppl-z", OrganizationID: "org-2", Name: "Zed", Active: true, CreatedAt: t0},
	} {
		if err := s.CreateParticipant(ctx, p); err != nil {
			t.Fatalf("CreateParticipant: %v", err)
		}
	}
	for _, r := range []*model.SelectionRecord{
		{ID: "sel-2", OrganizationID: "org-1", MeetingID: "mtg-a", ParticipantID: "ppl-a", ParticipantName: "Ada", Method: model.MethodRandom, SelectedAt: t0.Add(2 * time.Hour)},
		{ID: "sel-1", OrganizationID: "org-1", MeetingID: "mtg-a", ParticipantID: "ppl-b", ParticipantName: "Bob", Method: model.MethodWeighted, SelectedAt: t0.Add(time.Hour)},
	} {
		if err := s.InsertSelection(ctx, r); err != nil {
			t.Fatalf("InsertSelection: %v", err)
		}
	}
	return s
}

func TestExportJSONL_Empty(t *testing.T) {
	var buf bytes.Buffer
	stats, err := ExportJSONL(context.Background(), memory.New(), "org-1", t0, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != (Stats{}) {
		t.Fatalf("stats = %+v, want zero", stats)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.OrganizationID != "org-1" || h.SelectionCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if !h.Timestamp.Equal(t0) {
		t.Errorf("header timestamp = %v, want %v", h.Timestamp, t0)
	}
}

func TestExportJSONL_OrderAndScope(t *testing.T) {
	s := seedStore(t)
	var buf bytes.Buffer
	stats, err := ExportJSONL(context.Background(), s, "org-1", t0, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != (Stats{Meetings: 2, Participants: 2, Selections: 2}) {
		t.Fatalf("stats = %+v", stats)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 meetings + 2 participants + 2 selections
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), buf.String())
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.MeetingCount != 2 || h.ParticipantCount != 2 || h.SelectionCount != 2 {
		t.Fatalf("header counts: %+v", h)
	}

	type line struct {
		Type string `json:"type"`
		Data struct {
			ID             string `json:"id"`
			OrganizationID string `json:"organization_id"`
		} `json:"data"`
	}
	want := []struct{ typ, id string }{
		{"meeting", "mtg-a"},
		{"meeting", "mtg-b"},
		{"participant", "ppl-a"},
		{"participant", "ppl-b"},
		{"selection", "sel-1"}, // oldest first
		{"selection", "sel-2"},
	}
	for i, w := range want {
		var got line
		if err := json.Unmarshal([]byte(lines[i+1]), &got); err != nil {
			t.Fatalf("unmarshal line %d: %v", i+1, err)
		}
		if got.Type != w.typ || got.Data.ID != w.id {
			t.Errorf("line %d = %s/%s, want %s/%s", i+1, got.Type, got.Data.ID, w.typ, w.id)
		}
		if got.Data.OrganizationID != "org-1" {
			t.Errorf("line %d leaked organization %q", i+1, got.Data.OrganizationID)
		}
	}
}

func TestExportJSONL_StoreError(t *testing.T) {
	s := seedStore(t)
	boom := errors.New("boom")
	s.FailOn("ListSelections", boom)

	var buf bytes.Buffer
	_, err := ExportJSONL(context.Background(), s, "org-1", t0, &buf)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on a read failure, got %q", buf.String())
	}
}

// nonEmptyLines splits s by newline and returns non-blank lines.
func nonEmptyLines(s string) []string {
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			result = append(result, line)
		}
	}
	return result
}
