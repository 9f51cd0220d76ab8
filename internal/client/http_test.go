package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	method string
	path   string
	query  string
	body   string
	org    string
	auth   string

	statusCode   int
	contentType  string
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.method = r.Method
	h.path = r.URL.Path
	h.query = r.URL.RawQuery
	h.org = r.Header.Get("X-Organization-ID")
	h.auth = r.Header.Get("Authorization")
	data, _ := io.ReadAll(r.Body)
	h.body = string(data)

	ct := h.contentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	}
	_, _ = w.Write([]byte(h.responseBody))
}

// newTestClient creates an HTTPClient for org-1 pointed at a test server.
func newTestClient(t *testing.T, h http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", "tok", "org-1")
}

func TestHTTPClient_Headers(t *testing.T) {
	h := &testHandler{responseBody: `{"status":"ok"}`}
	c := newTestClient(t, h)

	status, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if status != "ok" {
		t.Errorf("status = %q", status)
	}
	if h.org != "org-1" || h.auth != "Bearer tok" {
		t.Errorf("headers org=%q auth=%q", h.org, h.auth)
	}
	if h.path != "/v1/health" {
		t.Errorf("path = %q (trailing slash on base URL must be trimmed)", h.path)
	}
}

func TestHTTPClient_Requests(t *testing.T) {
	exclude := false
	duration := 1500
	for _, tc := range []struct {
		name      string
		call      func(c *HTTPClient) error
		response  string
		method    string
		path      string
		query     string
		bodyParts []string
	}{
		{
			name: "CreateMeeting",
			call: func(c *HTTPClient) error {
				_, err := c.CreateMeeting(context.Background(), &CreateMeetingRequest{Name: "Standup", Roster: []string{"ppl-1"}})
				return err
			},
			response: `{"id":"mtg-1"}`, method: "POST", path: "/v1/meetings",
			bodyParts: []string{`"name":"Standup"`, `"roster":["ppl-1"]`},
		},
		{
			name: "GetParticipant",
			call: func(c *HTTPClient) error {
				_, err := c.GetParticipant(context.Background(), "ppl-1")
				return err
			},
			response: `{"id":"ppl-1"}`, method: "GET", path: "/v1/participants/ppl-1",
		},
		{
			name: "ListParticipants",
			call: func(c *HTTPClient) error {
				_, err := c.ListParticipants(context.Background(), &ListQuery{Department: "eng", ActiveOnly: true})
				return err
			},
			response: `{"participants":[]}`, method: "GET", path: "/v1/participants", query: "active=true&department=eng",
		},
		{
			name: "Spin",
			call: func(c *HTTPClient) error {
				_, err := c.Spin(context.Background(), "mtg 1", &SpinRequest{SelectionMethod: model.MethodWeighted, ExcludeRecentlySelected: &exclude, DurationMs: &duration})
				return err
			},
			response: `{"selection_method":"weighted"}`, method: "POST", path: "/v1/meetings/mtg 1/spin",
			bodyParts: []string{`"selection_method":"weighted"`, `"exclude_recently_selected":false`, `"duration_ms":1500`},
		},
		{
			name: "SpinDefaults",
			call: func(c *HTTPClient) error {
				_, err := c.Spin(context.Background(), "mtg-1", nil)
				return err
			},
			response: `{}`, method: "POST", path: "/v1/meetings/mtg-1/spin", bodyParts: []string{`{}`},
		},
		{
			name: "RecordSelection",
			call: func(c *HTTPClient) error {
				_, err := c.RecordSelection(context.Background(), "mtg-1", &RecordRequest{ParticipantID: "ppl-2"})
				return err
			},
			response: `{"id":"sel-1"}`, method: "POST", path: "/v1/meetings/mtg-1/selections",
			bodyParts: []string{`"participant_id":"ppl-2"`},
		},
		{
			name: "ListSelections",
			call: func(c *HTTPClient) error {
				_, err := c.ListSelections(context.Background(), &SelectionQuery{MeetingID: "mtg-1", Limit: 5})
				return err
			},
			response: `{"selections":[]}`, method: "GET", path: "/v1/selections", query: "limit=5&meeting=mtg-1",
		},
		{
			name: "ClearHistory",
			call: func(c *HTTPClient) error {
				_, err := c.ClearHistory(context.Background(), &Scope{Department: "eng"})
				return err
			},
			response: `{"cleared_count":3}`, method: "DELETE", path: "/v1/selections", query: "department=eng",
		},
		{
			name: "Fairness",
			call: func(c *HTTPClient) error {
				_, err := c.Fairness(context.Background(), &Scope{MeetingID: "mtg-1"})
				return err
			},
			response: `{"fairness_score":50}`, method: "GET", path: "/v1/analytics/fairness", query: "meeting=mtg-1",
		},
		{
			name: "Departments",
			call: func(c *HTTPClient) error {
				_, err := c.Departments(context.Background())
				return err
			},
			response: `{"departments":[]}`, method: "GET", path: "/v1/analytics/departments",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := &testHandler{responseBody: tc.response}
			c := newTestClient(t, h)
			if err := tc.call(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.method != tc.method || h.path != tc.path {
				t.Errorf("request = %s %s, want %s %s", h.method, h.path, tc.method, tc.path)
			}
			if h.query != tc.query {
				t.Errorf("query = %q, want %q", h.query, tc.query)
			}
			for _, part := range tc.bodyParts {
				if !strings.Contains(h.body, part) {
					t.Errorf("body %s missing %s", h.body, part)
				}
			}
		})
	}
}

func TestHTTPClient_DecodesResults(t *testing.T) {
	h := &testHandler{responseBody: `{
		"selection_method": "random",
		"participant": {"id": "ppl-1", "name": "Ada", "selection_count": 3, "active": true},
		"record": {"id": "sel-9", "participant_id": "ppl-1", "selection_method": "random", "selected_at": "2026-03-16T10:30:00Z"}
	}`}
	c := newTestClient(t, h)
	res, err := c.Spin(context.Background(), "mtg-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Participant.Name != "Ada" || res.Participant.SelectionCount != 3 || res.Record.ID != "sel-9" {
		t.Fatalf("unexpected result: %+v / %+v", res.Participant, res.Record)
	}

	h.responseBody = `{"cleared_count":4}`
	n, err := c.ClearHistory(context.Background(), nil)
	if err != nil || n != 4 {
		t.Fatalf("ClearHistory = %d, %v", n, err)
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	for _, tc := range []struct {
		name      string
		status    int
		body      string
		message   string
		retryable bool
		fields    int
	}{
		{"Validation", 400, `{"error":"validation failed: name: is required","fields":[{"field":"name","message":"is required"}]}`, "validation failed: name: is required", false, 1},
		{"Conflict", 409, `{"error":"no eligible participants"}`, "no eligible participants", false, 0},
		{"Retryable", 503, `{"error":"record selection: transaction failed","retryable":true}`, "record selection: transaction failed", true, 0},
		{"PlainText", 502, "bad gateway\n", "bad gateway", false, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, &testHandler{statusCode: tc.status, responseBody: tc.body})
			_, err := c.GetMeeting(context.Background(), "mtg-1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T (%v)", err, err)
			}
			if apiErr.StatusCode != tc.status || apiErr.Message != tc.message {
				t.Errorf("APIError = %+v", apiErr)
			}
			if IsRetryable(err) != tc.retryable {
				t.Errorf("IsRetryable = %v, want %v", IsRetryable(err), tc.retryable)
			}
			if len(apiErr.Fields) != tc.fields {
				t.Errorf("fields = %+v", apiErr.Fields)
			}
		})
	}
}

func TestHTTPClient_Export(t *testing.T) {
	h := &testHandler{contentType: "application/x-ndjson", responseBody: "{\"type\":\"header\"}\n{\"type\":\"selection\"}\n"}
	c := newTestClient(t, h)

	var buf bytes.Buffer
	if err := c.Export(context.Background(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if buf.String() != h.responseBody {
		t.Fatalf("export body = %q", buf.String())
	}

	c = newTestClient(t, &testHandler{statusCode: 400, responseBody: `{"error":"organization_id: is required"}`})
	if err := c.Export(context.Background(), &buf); err == nil {
		t.Fatal("expected error")
	}
}

func TestHTTPClient_ConnectionError(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", "", "org-1")
	if _, err := c.Health(context.Background()); err == nil {
		t.Fatal("expected connection error")
	}
}
