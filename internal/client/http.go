package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

var _ SpinnerClient = (*HTTPClient)(nil)

// HTTPClient implements SpinnerClient using the spinner HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	orgID      string
	httpClient *http.Client
}

// NewHTTPClient creates a client targeting baseURL (e.g.
// "http://localhost:8080") on behalf of orgID. When token is non-empty, an
// Authorization header is set on every request.
func NewHTTPClient(baseURL, token, orgID string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		orgID:      orgID,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Registry ---

func (c *HTTPClient) CreateMeeting(ctx context.Context, req *CreateMeetingRequest) (*model.Meeting, error) {
	var m model.Meeting
	if err := c.doJSON(ctx, http.MethodPost, "/v1/meetings", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *HTTPClient) GetMeeting(ctx context.Context, id string) (*model.Meeting, error) {
	var m model.Meeting
	if err := c.doJSON(ctx, http.MethodGet, "/v1/meetings/"+url.PathEscape(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *HTTPClient) ListMeetings(ctx context.Context, q *ListQuery) ([]*model.Meeting, error) {
	var resp struct {
		Meetings []*model.Meeting `json:"meetings"`
	}
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/v1/meetings", listValues(q)), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Meetings, nil
}

func (c *HTTPClient) CreateParticipant(ctx context.Context, req *CreateParticipantRequest) (*model.Participant, error) {
	var p model.Participant
	if err := c.doJSON(ctx, http.MethodPost, "/v1/participants", req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) GetParticipant(ctx context.Context, id string) (*model.Participant, error) {
	var p model.Participant
	if err := c.doJSON(ctx, http.MethodGet, "/v1/participants/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) ListParticipants(ctx context.Context, q *ListQuery) ([]*model.Participant, error) {
	var resp struct {
		Participants []*model.Participant `json:"participants"`
	}
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/v1/participants", listValues(q)), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Participants, nil
}

// --- Spins and history ---

func (c *HTTPClient) Spin(ctx context.Context, meetingID string, req *SpinRequest) (*SpinResult, error) {
	if req == nil {
		req = &SpinRequest{}
	}
	var res SpinResult
	if err := c.doJSON(ctx, http.MethodPost, "/v1/meetings/"+url.PathEscape(meetingID)+"/spin", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) RecordSelection(ctx context.Context, meetingID string, req *RecordRequest) (*model.SelectionRecord, error) {
	var rec model.SelectionRecord
	if err := c.doJSON(ctx, http.MethodPost, "/v1/meetings/"+url.PathEscape(meetingID)+"/selections", req, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *HTTPClient) ListSelections(ctx context.Context, q *SelectionQuery) ([]*model.SelectionRecord, error) {
	v := url.Values{}
	if q != nil {
		setIf(v, "meeting", q.MeetingID)
		setIf(v, "participant", q.ParticipantID)
		setIf(v, "department", q.Department)
		setIf(v, "team", q.TeamID)
		if q.Limit > 0 {
			v.Set("limit", strconv.Itoa(q.Limit))
		}
	}
	var resp struct {
		Selections []*model.SelectionRecord `json:"selections"`
	}
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/v1/selections", v), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Selections, nil
}

func (c *HTTPClient) ClearHistory(ctx context.Context, scope *Scope) (int, error) {
	var resp struct {
		Cleared int `json:"cleared_count"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, withQuery("/v1/selections", scopeValues(scope)), nil, &resp); err != nil {
		return 0, err
	}
	return resp.Cleared, nil
}

// --- Analytics ---

func (c *HTTPClient) Fairness(ctx context.Context, scope *Scope) (*model.FairnessReport, error) {
	var r model.FairnessReport
	if err := c.doJSON(ctx, http.MethodGet, withQuery("/v1/analytics/fairness", scopeValues(scope)), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) Engagement(ctx context.Context) (*model.EngagementReport, error) {
	var r model.EngagementReport
	if err := c.doJSON(ctx, http.MethodGet, "/v1/analytics/engagement", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) PeakHours(ctx context.Context) (*model.PeakHoursReport, error) {
	var r model.PeakHoursReport
	if err := c.doJSON(ctx, http.MethodGet, "/v1/analytics/peak-hours", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) WeeklyTrend(ctx context.Context) (*model.WeeklyTrendReport, error) {
	var r model.WeeklyTrendReport
	if err := c.doJSON(ctx, http.MethodGet, "/v1/analytics/weekly-trend", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) Departments(ctx context.Context) ([]model.DepartmentPerformance, error) {
	var resp struct {
		Departments []model.DepartmentPerformance `json:"departments"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/analytics/departments", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Departments, nil
}

// --- Export ---

func (c *HTTPClient) Export(ctx context.Context, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/v1/export", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return newAPIError(resp.StatusCode, body)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading export: %w", err)
	}
	return nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []model.FieldError
	Retryable  bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether err is a server response marked retryable.
func IsRetryable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Retryable
}

func newAPIError(status int, body []byte) *APIError {
	var errResp struct {
		Error     string             `json:"error"`
		Fields    []model.FieldError `json:"fields"`
		Retryable bool               `json:"retryable"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: status, Message: errResp.Error, Fields: errResp.Fields, Retryable: errResp.Retryable}
	}
	return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
}

// do sends a request with the auth and tenant headers set.
func (c *HTTPClient) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.orgID != "" {
		req.Header.Set("X-Organization-ID", c.orgID)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	return resp, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, method, path, bodyReader)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func listValues(q *ListQuery) url.Values {
	v := url.Values{}
	if q == nil {
		return v
	}
	setIf(v, "department", q.Department)
	setIf(v, "team", q.TeamID)
	if q.ActiveOnly {
		v.Set("active", "true")
	}
	return v
}

func scopeValues(s *Scope) url.Values {
	v := url.Values{}
	if s == nil {
		return v
	}
	setIf(v, "meeting", s.MeetingID)
	setIf(v, "department", s.Department)
	setIf(v, "team", s.TeamID)
	return v
}
