package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/youngmentor/Name-Spinner-Backend/internal/events"
	"github.com/youngmentor/Name-Spinner-Backend/internal/metrics"
	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// OrganizationHeader carries the tenant for every /v1 request except health.
const OrganizationHeader = "X-Organization-ID"

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health and
// GET /metrics) must include a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/meetings", s.handleCreateMeeting)
	mux.HandleFunc("GET /v1/meetings", s.handleListMeetings)
	mux.HandleFunc("GET /v1/meetings/{id}", s.handleGetMeeting)
	mux.HandleFunc("POST /v1/meetings/{id}/spin", s.handleSpin)
	mux.HandleFunc("POST /v1/meetings/{id}/selections", s.handleRecordSelection)
	mux.HandleFunc("POST /v1/participants", s.handleCreateParticipant)
	mux.HandleFunc("GET /v1/participants", s.handleListParticipants)
	mux.HandleFunc("GET /v1/participants/{id}", s.handleGetParticipant)
	mux.HandleFunc("GET /v1/selections", s.handleListSelections)
	mux.HandleFunc("DELETE /v1/selections", s.handleClearHistory)
	mux.HandleFunc("GET /v1/analytics/fairness", s.handleFairness)
	mux.HandleFunc("GET /v1/analytics/engagement", s.handleEngagement)
	mux.HandleFunc("GET /v1/analytics/peak-hours", s.handlePeakHours)
	mux.HandleFunc("GET /v1/analytics/weekly-trend", s.handleWeeklyTrend)
	mux.HandleFunc("GET /v1/analytics/departments", s.handleDepartments)
	mux.HandleFunc("GET /v1/export", s.handleExport)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return instrument(AuthMiddleware(authToken, mux))
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// organizationID returns the tenant from the request header.
func organizationID(r *http.Request) (string, error) {
	org := strings.TrimSpace(r.Header.Get(OrganizationHeader))
	if org == "" {
		return "", model.NewValidationError("organization_id", OrganizationHeader+" header is required")
	}
	if !events.ValidOrganization(org) {
		return "", model.NewValidationError("organization_id", "must not contain '.', '*', '>' or whitespace")
	}
	return org, nil
}

// queryLimit parses ?limit=, returning def when absent.
func queryLimit(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, model.NewValidationError("limit", "must be a non-negative integer")
	}
	return n, nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// errorBody is the JSON shape of a failed request.
type errorBody struct {
	Error     string             `json:"error"`
	Fields    []model.FieldError `json:"fields,omitempty"`
	Retryable bool               `json:"retryable,omitempty"`
}

// writeServiceError maps the error taxonomy onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Fields: ve.Errors})
	case errors.Is(err, model.ErrInvalidSelectionMethod):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, model.ErrNoEligibleParticipants):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case model.IsRetryable(err):
		s.logger.Warn("transaction failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error(), Retryable: true})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// instrument records request counts and latency by route pattern.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
