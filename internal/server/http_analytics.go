package server

import (
	"net/http"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// handleFairness handles GET /v1/analytics/fairness.
func (s *Server) handleFairness(w http.ResponseWriter, r *http.Request) {
	scope, err := scopeFromRequest(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	report, err := s.analytics.Fairness(r.Context(), scope)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleEngagement handles GET /v1/analytics/engagement.
func (s *Server) handleEngagement(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	report, err := s.analytics.EngagementScore(r.Context(), org)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handlePeakHours handles GET /v1/analytics/peak-hours.
func (s *Server) handlePeakHours(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	report, err := s.analytics.PeakHours(r.Context(), org)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleWeeklyTrend handles GET /v1/analytics/weekly-trend.
func (s *Server) handleWeeklyTrend(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	report, err := s.analytics.WeeklyTrend(r.Context(), org)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleDepartments handles GET /v1/analytics/departments.
func (s *Server) handleDepartments(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	perf, err := s.analytics.DepartmentPerformance(r.Context(), org)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if perf == nil {
		perf = []model.DepartmentPerformance{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"departments": perf})
}
