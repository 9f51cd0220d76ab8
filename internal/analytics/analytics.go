// Package analytics derives fairness and engagement reports from the
// selection log. Every report is computed from stored data at call time.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/spin"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

const (
	// EngagementWindow is the trailing window scored by EngagementScore.
	EngagementWindow = 30 * 24 * time.Hour

	week = 7 * 24 * time.Hour

	// UnassignedDepartment labels records whose participant had no department.
	UnassignedDepartment = "unassigned"
)

// Aggregator computes read-only reports. It holds no derived state.
type Aggregator struct {
	store store.Store
	clock clockwork.Clock
	loc   *time.Location
}

// New returns an aggregator. loc is the zone used to bucket hours of the
// day; nil means UTC.
func New(s store.Store, clock clockwork.Clock, loc *time.Location) *Aggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{store: s, clock: clock, loc: loc}
}

// Fairness reports the share of in-scope participants picked at least
// once. With a meeting in scope, the participants are that meeting's
// candidates (narrowed to the scope's team, which must not contradict the
// meeting's own) and counts come from that meeting's records; otherwise
// they are the organization's active participants, narrowed by
// department and team.
func (a *Aggregator) Fairness(ctx context.Context, scope model.SelectionScope) (*model.FairnessReport, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	var participants []*model.Participant
	counts := make(map[string]int)
	if scope.MeetingID != "" {
		meeting, candidates, err := spin.NewParticipantPool(a.store).Candidates(ctx, scope.OrganizationID, scope.MeetingID, scope.Department)
		if err != nil {
			return nil, err
		}
		if scope.TeamID != "" {
			if meeting.TeamID != "" && meeting.TeamID != scope.TeamID {
				return nil, model.NewValidationError("team_id",
					fmt.Sprintf("team %q conflicts with meeting %s team %q", scope.TeamID, meeting.ID, meeting.TeamID))
			}
			candidates = onTeam(candidates, scope.TeamID)
		}
		participants = candidates
		recs, err := a.store.ListSelections(ctx, model.SelectionFilter{
			OrganizationID: scope.OrganizationID,
			MeetingID:      scope.MeetingID,
		})
		if err != nil {
			return nil, fmt.Errorf("fairness: %w", err)
		}
		for _, r := range recs {
			counts[r.ParticipantID]++
		}
	} else {
		ps, err := a.store.ListParticipants(ctx, model.ParticipantFilter{
			OrganizationID: scope.OrganizationID,
			Department:     scope.Department,
			TeamID:         scope.TeamID,
			ActiveOnly:     true,
		})
		if err != nil {
			return nil, fmt.Errorf("fairness: %w", err)
		}
		participants = ps
		for _, p := range ps {
			counts[p.ID] = p.SelectionCount
		}
	}

	report := &model.FairnessReport{Distribution: []model.ParticipantCount{}}
	for _, p := range participants {
		c := counts[p.ID]
		if c > 0 {
			report.SelectedParticipants++
		}
		report.Distribution = append(report.Distribution, model.ParticipantCount{
			ParticipantID:  p.ID,
			Name:           p.Name,
			Department:     p.Department,
			SelectionCount: c,
		})
	}
	report.TotalParticipants = len(participants)
	if report.TotalParticipants > 0 {
		report.FairnessScore = int(math.Round(100 * float64(report.SelectedParticipants) / float64(report.TotalParticipants)))
	}

	sort.SliceStable(report.Distribution, func(i, j int) bool {
		return report.Distribution[i].SelectionCount > report.Distribution[j].SelectionCount
	})
	return report, nil
}

// EngagementScore scores the trailing 30 days on a 10-point scale:
// 40% participation rate, 30% repeat-usage rate, 30% average spin
// duration normalized against one minute.
func (a *Aggregator) EngagementScore(ctx context.Context, orgID string) (*model.EngagementReport, error) {
	if err := requireOrg(orgID); err != nil {
		return nil, err
	}
	now := a.clock.Now()
	from := now.Add(-EngagementWindow)

	recs, err := a.store.ListSelections(ctx, model.SelectionFilter{OrganizationID: orgID, From: &from})
	if err != nil {
		return nil, fmt.Errorf("engagement: %w", err)
	}
	active, err := a.store.ListParticipants(ctx, model.ParticipantFilter{OrganizationID: orgID, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("engagement: %w", err)
	}

	perParticipant := make(map[string]int)
	for _, r := range recs {
		perParticipant[r.ParticipantID]++
	}
	repeat := 0
	for _, n := range perParticipant {
		if n > 1 {
			repeat++
		}
	}

	var participation, repeatUsage float64
	if len(active) > 0 {
		participation = min(1, float64(len(perParticipant))/float64(len(active)))
	}
	if len(perParticipant) > 0 {
		repeatUsage = float64(repeat) / float64(len(perParticipant))
	}
	durationScore := 0.0
	if avg, ok := averageDuration(recs); ok {
		durationScore = min(1, avg/model.MaxSelectionDurationMs)
	}

	score := 10 * (0.4*participation + 0.3*repeatUsage + 0.3*durationScore)
	return &model.EngagementReport{
		Score:             round(score, 1),
		ParticipationRate: round(participation, 3),
		RepeatUsageRate:   round(repeatUsage, 3),
		DurationScore:     round(durationScore, 3),
		WindowDays:        int(EngagementWindow / (24 * time.Hour)),
	}, nil
}

// PeakHours buckets the whole log by hour of day and reports the busiest
// hour. Ties resolve to the earliest hour.
func (a *Aggregator) PeakHours(ctx context.Context, orgID string) (*model.PeakHoursReport, error) {
	if err := requireOrg(orgID); err != nil {
		return nil, err
	}
	recs, err := a.store.ListSelections(ctx, model.SelectionFilter{OrganizationID: orgID})
	if err != nil {
		return nil, fmt.Errorf("peak hours: %w", err)
	}

	report := &model.PeakHoursReport{Label: "no data"}
	if len(recs) == 0 {
		return report, nil
	}
	for _, r := range recs {
		report.Histogram[r.SelectedAt.In(a.loc).Hour()]++
	}
	for h, n := range report.Histogram {
		if n > report.Count {
			report.Hour, report.Count = h, n
		}
	}
	report.HasData = true
	report.Total = len(recs)
	report.Label = fmt.Sprintf("%02d:00-%02d:00", report.Hour, (report.Hour+1)%24)
	report.Percentage = round(100*float64(report.Count)/float64(report.Total), 1)
	return report, nil
}

// WeeklyTrend compares the last 7 days with the 7 days before them.
// Meetings and participants count entities created in each window.
func (a *Aggregator) WeeklyTrend(ctx context.Context, orgID string) (*model.WeeklyTrendReport, error) {
	if err := requireOrg(orgID); err != nil {
		return nil, err
	}
	now := a.clock.Now()
	thisStart := now.Add(-week)
	lastStart := now.Add(-2 * week)

	// The current window includes records stamped exactly now.
	thisWeek, err := a.weekStats(ctx, orgID, thisStart, now.Add(time.Nanosecond))
	if err != nil {
		return nil, err
	}
	lastWeek, err := a.weekStats(ctx, orgID, lastStart, thisStart)
	if err != nil {
		return nil, err
	}

	return &model.WeeklyTrendReport{
		ThisWeek:          *thisWeek,
		LastWeek:          *lastWeek,
		MeetingsTrend:     FormatTrend(float64(thisWeek.Meetings), float64(lastWeek.Meetings)),
		ParticipantsTrend: FormatTrend(float64(thisWeek.Participants), float64(lastWeek.Participants)),
		SelectionsTrend:   FormatTrend(float64(thisWeek.Selections), float64(lastWeek.Selections)),
		// Shorter spins are the improvement, so the operands swap.
		ResponseTimeTrend: FormatTrend(lastWeek.AvgResponseTimeMs, thisWeek.AvgResponseTimeMs),
	}, nil
}

// weekStats covers [from, to).
func (a *Aggregator) weekStats(ctx context.Context, orgID string, from, to time.Time) (*model.WeekStats, error) {
	meetings, err := a.store.ListMeetings(ctx, model.MeetingFilter{OrganizationID: orgID, CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}
	participants, err := a.store.ListParticipants(ctx, model.ParticipantFilter{OrganizationID: orgID, CreatedFrom: &from, CreatedTo: &to})
	if err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}
	recs, err := a.store.ListSelections(ctx, model.SelectionFilter{OrganizationID: orgID, From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("weekly trend: %w", err)
	}

	stats := &model.WeekStats{
		Meetings:     len(meetings),
		Participants: len(participants),
		Selections:   len(recs),
	}
	if avg, ok := averageDuration(recs); ok {
		stats.AvgResponseTimeMs = round(avg, 1)
	}
	return stats, nil
}

// DepartmentPerformance groups the organization's whole log by the
// department snapshot stored on each record.
func (a *Aggregator) DepartmentPerformance(ctx context.Context, orgID string) ([]model.DepartmentPerformance, error) {
	if err := requireOrg(orgID); err != nil {
		return nil, err
	}
	recs, err := a.store.ListSelections(ctx, model.SelectionFilter{OrganizationID: orgID})
	if err != nil {
		return nil, fmt.Errorf("department performance: %w", err)
	}

	type group struct {
		recs         []*model.SelectionRecord
		participants map[string]struct{}
		meetings     map[string]struct{}
	}
	groups := make(map[string]*group)
	for _, r := range recs {
		dept := r.ParticipantDepartment
		if dept == "" {
			dept = UnassignedDepartment
		}
		g, ok := groups[dept]
		if !ok {
			g = &group{participants: map[string]struct{}{}, meetings: map[string]struct{}{}}
			groups[dept] = g
		}
		g.recs = append(g.recs, r)
		g.participants[r.ParticipantID] = struct{}{}
		g.meetings[r.MeetingID] = struct{}{}
	}

	out := make([]model.DepartmentPerformance, 0, len(groups))
	for dept, g := range groups {
		perf := model.DepartmentPerformance{
			Department:   dept,
			Selections:   len(g.recs),
			Participants: len(g.participants),
			Meetings:     len(g.meetings),
		}
		if avg, ok := averageDuration(g.recs); ok {
			perf.AvgResponseTimeMs = round(avg, 1)
		}
		out = append(out, perf)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Selections != out[j].Selections {
			return out[i].Selections > out[j].Selections
		}
		return out[i].Department < out[j].Department
	})
	return out, nil
}

// FormatTrend renders the percentage change from previous to current,
// rounded to a whole percent. A zero previous maps to "+100%" when
// current is positive and "+0%" otherwise.
func FormatTrend(current, previous float64) string {
	if previous == 0 {
		if current > 0 {
			return "+100%"
		}
		return "+0%"
	}
	pct := math.Round((current - previous) / previous * 100)
	if pct >= 0 {
		return fmt.Sprintf("+%d%%", int(pct))
	}
	return fmt.Sprintf("%d%%", int(pct))
}

// averageDuration averages the records that carry a duration.
func averageDuration(recs []*model.SelectionRecord) (float64, bool) {
	sum, n := 0, 0
	for _, r := range recs {
		if r.DurationMs != nil {
			sum += *r.DurationMs
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func requireOrg(orgID string) error {
	if strings.TrimSpace(orgID) == "" {
		return model.NewValidationError("organization_id", "is required")
	}
	return nil
}

func onTeam(ps []*model.Participant, teamID string) []*model.Participant {
	var out []*model.Participant
	for _, p := range ps {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}
