package model

// ParticipantCount is one entry of the fairness distribution.
type ParticipantCount struct {
	ParticipantID  string `json:"participant_id"`
	Name           string `json:"name"`
	Department     string `json:"department,omitempty"`
	SelectionCount int    `json:"selection_count"`
}

// FairnessReport is the share of scoped participants picked at least once.
type FairnessReport struct {
	FairnessScore        int                `json:"fairness_score"`
	TotalParticipants    int                `json:"total_participants"`
	SelectedParticipants int                `json:"selected_participants"`
	Distribution         []ParticipantCount `json:"distribution"`
}

// EngagementReport scores usage over a trailing window on a 10-point scale.
type EngagementReport struct {
	Score             float64 `json:"score"`
	ParticipationRate float64 `json:"participation_rate"`
	RepeatUsageRate   float64 `json:"repeat_usage_rate"`
	DurationScore     float64 `json:"duration_score"`
	WindowDays        int     `json:"window_days"`
}

// PeakHoursReport is the busiest hour of day across the whole log.
type PeakHoursReport struct {
	HasData    bool    `json:"has_data"`
	Hour       int     `json:"hour"`
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
	Total      int     `json:"total"`
	Histogram  [24]int `json:"histogram"`
}

// WeekStats holds one 7-day window of activity.
type WeekStats struct {
	Meetings          int     `json:"meetings"`
	Participants      int     `json:"participants"`
	Selections        int     `json:"selections"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// WeeklyTrendReport compares the current 7 days with the 7 days before.
type WeeklyTrendReport struct {
	ThisWeek          WeekStats `json:"this_week"`
	LastWeek          WeekStats `json:"last_week"`
	MeetingsTrend     string    `json:"meetings_trend"`
	ParticipantsTrend string    `json:"participants_trend"`
	SelectionsTrend   string    `json:"selections_trend"`
	ResponseTimeTrend string    `json:"response_time_trend"`
}

// DepartmentPerformance aggregates the log by department snapshot.
type DepartmentPerformance struct {
	Department        string  `json:"department"`
	Selections        int     `json:"selections"`
	Participants      int     `json:"participants"`
	Meetings          int     `json:"meetings"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}
