package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/youngmentor/Name-Spinner-Backend/internal/events"
	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store/memory"
)

var t0 = time.Date(2026, 3, 16, 10, 30, 0, 0, time.UTC)

// recordingPublisher captures published topics.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

type testServer struct {
	srv     *Server
	store   *memory.MemoryStore
	pub     *recordingPublisher
	handler http.Handler
}

// newTestServer returns a server over a seeded memory store:
// mtg-1 (eng) with Ada and Bob, mtg-empty whose roster only names an
// inactive participant, and a foreign meeting in org-2.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ms := memory.New()
	ctx := context.Background()
	for _, m := range []*model.Meeting{
		{ID: "mtg-1", OrganizationID: "org-1", Name: "Standup", Department: "eng", CreatedAt: t0},
		{ID: "mtg-empty", OrganizationID: "org-1", Name: "Ghost", Roster: []string{"ppl-off"}, CreatedAt: t0},
		{ID: "mtg-x", OrganizationID: "org-2", Name: "Other", CreatedAt: t0},
	} {
		if err := ms.CreateMeeting(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	for _, p := range []*model.Participant{
		{ID: "ppl-ada", OrganizationID: "org-1", Name: "Ada", Department: "eng", Active: true, CreatedAt: t0},
		{ID: "ppl-bob", OrganizationID: "org-1", Name: "Bob", Department: "eng", Active: true, CreatedAt: t0},
		{ID: "ppl-off", OrganizationID: "org-1", Name: "Dee", Department: "ops", Active: false, CreatedAt: t0},
	} {
		if err := ms.CreateParticipant(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	pub := &recordingPublisher{}
	s := New(ms,
		WithPublisher(pub),
		WithClock(clockwork.NewFakeClockAt(t0)),
		WithRand(rand.New(rand.NewPCG(7, 11))),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return &testServer{srv: s, store: ms, pub: pub, handler: s.NewHTTPHandler("")}
}

// do performs a request for org-1 (or no tenant when org is empty).
func (ts *testServer) do(t *testing.T, method, path, org string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if org != "" {
		req.Header.Set(OrganizationHeader, org)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// requireStatus asserts the recorder has the expected HTTP status code.
func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d; body: %s", code, rec.Code, rec.Body.String())
	}
}

// decodeJSON decodes the recorder's response body into v.
func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "GET", "/v1/health", "", nil)
	requireStatus(t, rec, 200)
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["status"] != "ok" {
		t.Fatalf("expected status=ok, got %q", body["status"])
	}

	ts.store.FailOn("Ping", errors.New("connection refused"))
	requireStatus(t, ts.do(t, "GET", "/v1/health", "", nil), 503)
}

func TestHandleHTTPErrors(t *testing.T) {
	for _, tc := range []struct {
		name      string
		method    string
		path      string
		org       string
		body      any
		code      int
		wantField string
	}{
		{"MissingOrganization", "GET", "/v1/meetings", "", nil, 400, "organization_id"},
		{"CreateMeeting/MissingName", "POST", "/v1/meetings", "org-1", map[string]any{"department": "eng"}, 400, "name"},
		{"CreateMeeting/BadMethod", "POST", "/v1/meetings", "org-1", map[string]any{"name": "x", "settings": map[string]any{"selection_method": "roulette"}}, 400, "settings.selection_method"},
		{"CreateParticipant/MissingName", "POST", "/v1/participants", "org-1", map[string]any{}, 400, "name"},
		{"GetMeeting/NotFound", "GET", "/v1/meetings/nope", "org-1", nil, 404, ""},
		{"GetMeeting/OtherTenant", "GET", "/v1/meetings/mtg-x", "org-1", nil, 404, ""},
		{"GetParticipant/NotFound", "GET", "/v1/participants/nope", "org-1", nil, 404, ""},
		{"Spin/InvalidMethod", "POST", "/v1/meetings/mtg-1/spin", "org-1", map[string]any{"selection_method": "roulette"}, 400, ""},
		{"Spin/BadDuration", "POST", "/v1/meetings/mtg-1/spin", "org-1", map[string]any{"duration_ms": -5}, 400, "duration_ms"},
		{"Spin/UnknownMeeting", "POST", "/v1/meetings/nope/spin", "org-1", nil, 404, ""},
		{"Spin/NoEligible", "POST", "/v1/meetings/mtg-empty/spin", "org-1", nil, 409, ""},
		{"Record/MissingParticipant", "POST", "/v1/meetings/mtg-1/selections", "org-1", map[string]any{}, 400, "participant_id"},
		{"Record/UnknownParticipant", "POST", "/v1/meetings/mtg-1/selections", "org-1", map[string]any{"participant_id": "ppl-zz"}, 404, ""},
		{"Selections/BadLimit", "GET", "/v1/selections?limit=-1", "org-1", nil, 400, "limit"},
		{"Clear/MissingOrganization", "DELETE", "/v1/selections", "", nil, 400, "organization_id"},
		{"Fairness/MissingOrganization", "GET", "/v1/analytics/fairness", "", nil, 400, "organization_id"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.do(t, tc.method, tc.path, tc.org, tc.body)
			requireStatus(t, rec, tc.code)
			var body errorBody
			decodeJSON(t, rec, &body)
			if body.Error == "" {
				t.Fatal("expected an error message")
			}
			if tc.wantField != "" {
				found := false
				for _, f := range body.Fields {
					found = found || f.Field == tc.wantField
				}
				if !found {
					t.Fatalf("expected field error on %q, got %+v", tc.wantField, body.Fields)
				}
			}
		})
	}
}

func TestHandleHTTPErrors_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest("POST", "/v1/meetings", strings.NewReader("{"))
	req.Header.Set(OrganizationHeader, "org-1")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	requireStatus(t, rec, 400)
}

func TestHandleSpin_TransactionFailureIsRetryable(t *testing.T) {
	ts := newTestServer(t)
	ts.store.FailOn("IncrementMeetingSpins", errors.New("deadlock detected"))

	rec := ts.do(t, "POST", "/v1/meetings/mtg-1/spin", "org-1", nil)
	requireStatus(t, rec, 503)
	var body errorBody
	decodeJSON(t, rec, &body)
	if !body.Retryable {
		t.Fatalf("expected retryable=true, got %+v", body)
	}

	recs, _ := ts.store.ListSelections(context.Background(), model.SelectionFilter{OrganizationID: "org-1"})
	if len(recs) != 0 {
		t.Fatalf("failed spin left %d records", len(recs))
	}
	if got := ts.pub.published(); len(got) != 0 {
		t.Fatalf("failed spin published %v", got)
	}
}

func TestHandleSpin_InternalError(t *testing.T) {
	ts := newTestServer(t)
	ts.store.FailOn("GetMeeting", errors.New("connection reset"))
	rec := ts.do(t, "POST", "/v1/meetings/mtg-1/spin", "org-1", nil)
	requireStatus(t, rec, 500)
	if strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("internal error leaked to client: %s", rec.Body.String())
	}
}

func TestHandleCreateAndListMeetings(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "POST", "/v1/meetings", "org-1", map[string]any{
		"name":     "  Retro ",
		"roster":   []string{"ppl-ada", "ppl-bob"},
		"settings": map[string]any{"selection_method": "weighted"},
	})
	requireStatus(t, rec, 201)
	var m model.Meeting
	decodeJSON(t, rec, &m)
	if !strings.HasPrefix(m.ID, "mtg-") || m.OrganizationID != "org-1" || m.Name != "Retro" {
		t.Fatalf("unexpected meeting: %+v", m)
	}
	if m.Settings.SelectionMethod != model.MethodWeighted || !m.CreatedAt.Equal(t0) {
		t.Fatalf("unexpected settings or timestamp: %+v", m)
	}

	rec = ts.do(t, "GET", "/v1/meetings/"+m.ID, "org-1", nil)
	requireStatus(t, rec, 200)

	rec = ts.do(t, "GET", "/v1/meetings", "org-1", nil)
	requireStatus(t, rec, 200)
	var list struct {
		Meetings []model.Meeting `json:"meetings"`
	}
	decodeJSON(t, rec, &list)
	if len(list.Meetings) != 3 {
		t.Fatalf("expected 3 meetings in org-1, got %d", len(list.Meetings))
	}

	rec = ts.do(t, "GET", "/v1/meetings", "org-empty", nil)
	requireStatus(t, rec, 200)
	if !strings.Contains(rec.Body.String(), `"meetings":[]`) {
		t.Fatalf("expected empty list, got %s", rec.Body.String())
	}
}

func TestHandleCreateAndListParticipants(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "POST", "/v1/participants", "org-1", map[string]any{"name": "Eve", "department": "ops"})
	requireStatus(t, rec, 201)
	var p model.Participant
	decodeJSON(t, rec, &p)
	if !strings.HasPrefix(p.ID, "ppl-") || !p.Active || p.SelectionCount != 0 {
		t.Fatalf("unexpected participant: %+v", p)
	}

	rec = ts.do(t, "GET", "/v1/participants?department=ops&active=true", "org-1", nil)
	requireStatus(t, rec, 200)
	var list struct {
		Participants []model.Participant `json:"participants"`
	}
	decodeJSON(t, rec, &list)
	if len(list.Participants) != 1 || list.Participants[0].Name != "Eve" {
		t.Fatalf("active ops participants = %+v", list.Participants)
	}

	rec = ts.do(t, "GET", "/v1/participants/"+p.ID, "org-1", nil)
	requireStatus(t, rec, 200)
}

func TestHandleSpin_RecordsSelection(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "POST", "/v1/meetings/mtg-1/spin", "org-1", map[string]any{
		"selection_method": "random",
		"duration_ms":      3200,
		"session_id":       "sess-1",
	})
	requireStatus(t, rec, 201)

	var res struct {
		Method      model.SelectionMethod  `json:"selection_method"`
		Participant *model.Participant     `json:"participant"`
		Record      *model.SelectionRecord `json:"record"`
	}
	decodeJSON(t, rec, &res)
	if res.Participant == nil || res.Record == nil {
		t.Fatalf("expected participant and record, got %+v", res)
	}
	if res.Participant.SelectionCount != 1 || res.Record.ParticipantID != res.Participant.ID {
		t.Fatalf("inconsistent result: %+v / %+v", res.Participant, res.Record)
	}
	if res.Record.SessionID != "sess-1" || res.Record.DurationMs == nil || *res.Record.DurationMs != 3200 {
		t.Fatalf("record fields not stored: %+v", res.Record)
	}

	m, _ := ts.store.GetMeeting(context.Background(), "org-1", "mtg-1")
	if m.Statistics.TotalSpins != 1 {
		t.Fatalf("total_spins = %d, want 1", m.Statistics.TotalSpins)
	}
	if got := ts.pub.published(); len(got) != 1 || got[0] != events.TopicSelectionRecorded {
		t.Fatalf("published = %v", got)
	}
}

func TestHandleSpin_RecencyAcrossRequests(t *testing.T) {
	ts := newTestServer(t)
	seen := map[string]bool{}
	for range 2 {
		rec := ts.do(t, "POST", "/v1/meetings/mtg-1/spin", "org-1", nil)
		requireStatus(t, rec, 201)
		var res struct {
			Participant *model.Participant `json:"participant"`
		}
		decodeJSON(t, rec, &res)
		seen[res.Participant.ID] = true
	}
	// The second spin may only pick the participant never selected before.
	if !seen["ppl-ada"] || !seen["ppl-bob"] {
		t.Fatalf("expected both participants picked once, got %v", seen)
	}
}

func TestHandleSpin_Manual(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "POST", "/v1/meetings/mtg-1/spin", "org-1", map[string]any{"selection_method": "manual"})
	requireStatus(t, rec, 200)
	var res struct {
		Eligible []model.Participant `json:"eligible_participants"`
	}
	decodeJSON(t, rec, &res)
	if len(res.Eligible) != 2 {
		t.Fatalf("expected 2 eligible participants, got %d", len(res.Eligible))
	}
	recs, _ := ts.store.ListSelections(context.Background(), model.SelectionFilter{OrganizationID: "org-1"})
	if len(recs) != 0 {
		t.Fatalf("manual spin must not record, got %d records", len(recs))
	}
}

func TestHandleRecordSelection(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, "POST", "/v1/meetings/mtg-1/selections", "org-1", map[string]any{"participant_id": "ppl-bob"})
	requireStatus(t, rec, 201)
	var r model.SelectionRecord
	decodeJSON(t, rec, &r)
	if r.Method != model.MethodManual || string(r.Metadata) != `{"source":"manual"}` {
		t.Fatalf("unexpected record: %+v (metadata %s)", r, r.Metadata)
	}
	p, _ := ts.store.GetParticipant(context.Background(), "org-1", "ppl-bob")
	if p.SelectionCount != 1 || p.LastSelectedAt == nil {
		t.Fatalf("participant counters not updated: %+v", p)
	}
}

func TestHandleListAndClearSelections(t *testing.T) {
	ts := newTestServer(t)
	for _, pid := range []string{"ppl-ada", "ppl-bob", "ppl-ada"} {
		requireStatus(t, ts.do(t, "POST", "/v1/meetings/mtg-1/selections", "org-1", map[string]any{"participant_id": pid}), 201)
	}

	rec := ts.do(t, "GET", "/v1/selections?limit=2", "org-1", nil)
	requireStatus(t, rec, 200)
	var list struct {
		Selections []model.SelectionRecord `json:"selections"`
	}
	decodeJSON(t, rec, &list)
	if len(list.Selections) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(list.Selections))
	}

	rec = ts.do(t, "DELETE", "/v1/selections?meeting=mtg-1", "org-1", nil)
	requireStatus(t, rec, 200)
	if body := strings.TrimSpace(rec.Body.String()); body != `{"cleared_count":3}` {
		t.Fatalf("clear body = %s", body)
	}
	var cleared map[string]int
	decodeJSON(t, rec, &cleared)
	if cleared["cleared_count"] != 3 {
		t.Fatalf("cleared = %d, want 3", cleared["cleared_count"])
	}

	p, _ := ts.store.GetParticipant(context.Background(), "org-1", "ppl-ada")
	if p.SelectionCount != 0 || p.LastSelectedAt != nil {
		t.Fatalf("participant not reset: %+v", p)
	}

	// Clearing again is a no-op.
	rec = ts.do(t, "DELETE", "/v1/selections?meeting=mtg-1", "org-1", nil)
	requireStatus(t, rec, 200)
	decodeJSON(t, rec, &cleared)
	if cleared["cleared_count"] != 0 {
		t.Fatalf("second clear = %d, want 0", cleared["cleared_count"])
	}
	want := []string{events.TopicSelectionRecorded, events.TopicSelectionRecorded, events.TopicSelectionRecorded,
		events.TopicHistoryCleared, events.TopicHistoryCleared}
	if got := ts.pub.published(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("published = %v", got)
	}
}

func TestHandleAnalytics(t *testing.T) {
	ts := newTestServer(t)
	requireStatus(t, ts.do(t, "POST", "/v1/meetings/mtg-1/selections", "org-1", map[string]any{"participant_id": "ppl-ada", "duration_ms": 3000}), 201)

	rec := ts.do(t, "GET", "/v1/analytics/fairness?department=eng", "org-1", nil)
	requireStatus(t, rec, 200)
	var fair model.FairnessReport
	decodeJSON(t, rec, &fair)
	if fair.FairnessScore != 50 || fair.TotalParticipants != 2 {
		t.Fatalf("fairness = %+v", fair)
	}

	rec = ts.do(t, "GET", "/v1/analytics/peak-hours", "org-1", nil)
	requireStatus(t, rec, 200)
	var peak model.PeakHoursReport
	decodeJSON(t, rec, &peak)
	if !peak.HasData || peak.Hour != 10 || peak.Label != "10:00-11:00" {
		t.Fatalf("peak hours = %+v", peak)
	}

	for _, path := range []string{"/v1/analytics/engagement", "/v1/analytics/weekly-trend"} {
		requireStatus(t, ts.do(t, "GET", path, "org-1", nil), 200)
	}

	rec = ts.do(t, "GET", "/v1/analytics/departments", "org-2", nil)
	requireStatus(t, rec, 200)
	if !strings.Contains(rec.Body.String(), `"departments":[]`) {
		t.Fatalf("expected empty departments list, got %s", rec.Body.String())
	}
}

func TestHandleExport(t *testing.T) {
	ts := newTestServer(t)
	requireStatus(t, ts.do(t, "POST", "/v1/meetings/mtg-1/selections", "org-1", map[string]any{"participant_id": "ppl-ada"}), 201)

	rec := ts.do(t, "GET", "/v1/export", "org-1", nil)
	requireStatus(t, rec, 200)
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("Content-Type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	// header + 2 meetings + 3 participants + 1 selection
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), rec.Body.String())
	}
	if !strings.Contains(lines[0], `"organization_id":"org-1"`) {
		t.Fatalf("unexpected header: %s", lines[0])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	requireStatus(t, ts.do(t, "GET", "/v1/meetings", "org-1", nil), 200)

	rec := ts.do(t, "GET", "/metrics", "", nil)
	requireStatus(t, rec, 200)
	body := rec.Body.String()
	if !strings.Contains(body, `spinner_http_requests_total{code="200",route="GET /v1/meetings"}`) {
		t.Fatalf("request counter missing from /metrics output")
	}
}
