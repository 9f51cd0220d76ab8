package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/youngmentor/Name-Spinner-Backend/internal/client"
	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(timeLayout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printMeeting(w io.Writer, m *model.Meeting) {
	fmt.Fprintf(w, "ID:          %s\n", m.ID)
	fmt.Fprintf(w, "Name:        %s\n", m.Name)
	fmt.Fprintf(w, "Department:  %s\n", orDash(m.Department))
	fmt.Fprintf(w, "Team:        %s\n", orDash(m.TeamID))
	if m.HasRoster() {
		fmt.Fprintf(w, "Roster:      %s\n", strings.Join(m.Roster, ", "))
	}
	if m.Settings.SelectionMethod != "" {
		fmt.Fprintf(w, "Method:      %s\n", m.Settings.SelectionMethod)
	}
	fmt.Fprintf(w, "Spins:       %d\n", m.Statistics.TotalSpins)
	fmt.Fprintf(w, "Last Spin:   %s\n", formatTime(m.Statistics.LastActivity))
	fmt.Fprintf(w, "Created At:  %s\n", m.CreatedAt.Format(timeLayout))
}

func printMeetingList(w io.Writer, meetings []*model.Meeting) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tTEAM\tSPINS\tLAST SPIN")
	for _, m := range meetings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			m.ID,
			truncate(m.Name, 40),
			orDash(m.Department),
			orDash(m.TeamID),
			m.Statistics.TotalSpins,
			formatTime(m.Statistics.LastActivity),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d meetings\n", len(meetings))
}

func printParticipant(w io.Writer, p *model.Participant) {
	fmt.Fprintf(w, "ID:          %s\n", p.ID)
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	if p.Email != "" {
		fmt.Fprintf(w, "Email:       %s\n", p.Email)
	}
	fmt.Fprintf(w, "Department:  %s\n", orDash(p.Department))
	fmt.Fprintf(w, "Team:        %s\n", orDash(p.TeamID))
	fmt.Fprintf(w, "Active:      %t\n", p.Active)
	fmt.Fprintf(w, "Selections:  %d\n", p.SelectionCount)
	fmt.Fprintf(w, "Last Picked: %s\n", formatTime(p.LastSelectedAt))
}

func printParticipantList(w io.Writer, participants []*model.Participant) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDEPARTMENT\tTEAM\tACTIVE\tPICKS\tLAST PICKED")
	for _, p := range participants {
		active := "yes"
		if !p.Active {
			active = ui.RenderMuted("no")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			p.ID,
			truncate(p.Name, 40),
			orDash(p.Department),
			orDash(p.TeamID),
			active,
			p.SelectionCount,
			formatTime(p.LastSelectedAt),
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d participants\n", len(participants))
}

func printSpinResult(w io.Writer, res *client.SpinResult) {
	if res.Participant == nil {
		fmt.Fprintf(w, "%s %d eligible participants (pick one with 'spinner record')\n",
			ui.RenderAccent("Manual spin:"), len(res.Eligible))
		if len(res.Eligible) > 0 {
			printParticipantList(w, res.Eligible)
		}
		return
	}
	p := res.Participant
	label := p.Name
	if p.Department != "" {
		label += " (" + p.Department + ")"
	}
	fmt.Fprintf(w, "Selected:  %s\n", ui.RenderWinner(label))
	fmt.Fprintf(w, "Method:    %s\n", res.Method)
	fmt.Fprintf(w, "Eligible:  %d\n", len(res.Eligible))
	if res.Record != nil {
		fmt.Fprintf(w, "Record:    %s\n", ui.RenderMuted(res.Record.ID))
	}
}

func printSelection(w io.Writer, r *model.SelectionRecord) {
	fmt.Fprintf(w, "Recorded %s for %s (%s) as %s\n",
		ui.RenderWinner(r.ParticipantName), r.MeetingID, r.Method, ui.RenderMuted(r.ID))
}

func printSelectionList(w io.Writer, records []*model.SelectionRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SELECTED AT\tMEETING\tPARTICIPANT\tDEPARTMENT\tMETHOD\tDURATION")
	for _, r := range records {
		duration := "-"
		if r.DurationMs != nil {
			duration = fmt.Sprintf("%dms", *r.DurationMs)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.SelectedAt.Format(timeLayout),
			r.MeetingID,
			r.ParticipantName,
			orDash(r.ParticipantDepartment),
			r.Method,
			duration,
		)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d selections\n", len(records))
}

func printFairness(w io.Writer, r *model.FairnessReport) {
	fmt.Fprintf(w, "%s %d/100\n", ui.RenderAccent("Fairness:"), r.FairnessScore)
	fmt.Fprintf(w, "Selected %d of %d participants\n\n", r.SelectedParticipants, r.TotalParticipants)
	if len(r.Distribution) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PARTICIPANT\tDEPARTMENT\tPICKS")
	for _, c := range r.Distribution {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, orDash(c.Department), c.SelectionCount)
	}
	tw.Flush()
}

func printEngagement(w io.Writer, r *model.EngagementReport) {
	fmt.Fprintf(w, "%s %.1f/10\n", ui.RenderAccent("Engagement:"), r.Score)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "participation rate:\t%.1f%%\n", 100*r.ParticipationRate)
	fmt.Fprintf(tw, "repeat usage rate:\t%.1f%%\n", 100*r.RepeatUsageRate)
	fmt.Fprintf(tw, "duration score:\t%.2f\n", r.DurationScore)
	fmt.Fprintf(tw, "window:\t%d days\n", r.WindowDays)
	tw.Flush()
}

func printPeakHours(w io.Writer, r *model.PeakHoursReport) {
	if !r.HasData {
		fmt.Fprintln(w, ui.RenderMuted("No selections recorded yet"))
		return
	}
	fmt.Fprintf(w, "%s %s (%d of %d selections, %.1f%%)\n",
		ui.RenderAccent("Peak hour:"), r.Label, r.Count, r.Total, r.Percentage)

	peak := 0
	for _, n := range r.Histogram {
		if n > peak {
			peak = n
		}
	}
	for hour, n := range r.Histogram {
		if n == 0 {
			continue
		}
		bar := strings.Repeat("#", max1(n*30/peak))
		if hour == r.Hour {
			bar = ui.RenderWinner(bar)
		}
		fmt.Fprintf(w, "  %02d:00  %s %d\n", hour, bar, n)
	}
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func printWeeklyTrend(w io.Writer, r *model.WeeklyTrendReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tTHIS WEEK\tLAST WEEK\tTREND")
	fmt.Fprintf(tw, "meetings\t%d\t%d\t%s\n", r.ThisWeek.Meetings, r.LastWeek.Meetings, ui.RenderTrend(r.MeetingsTrend))
	fmt.Fprintf(tw, "participants\t%d\t%d\t%s\n", r.ThisWeek.Participants, r.LastWeek.Participants, ui.RenderTrend(r.ParticipantsTrend))
	fmt.Fprintf(tw, "selections\t%d\t%d\t%s\n", r.ThisWeek.Selections, r.LastWeek.Selections, ui.RenderTrend(r.SelectionsTrend))
	fmt.Fprintf(tw, "avg response (ms)\t%.0f\t%.0f\t%s\n", r.ThisWeek.AvgResponseTimeMs, r.LastWeek.AvgResponseTimeMs, ui.RenderTrend(r.ResponseTimeTrend))
	tw.Flush()
}

func printDepartments(w io.Writer, depts []model.DepartmentPerformance) {
	if len(depts) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No departments"))
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPARTMENT\tSELECTIONS\tPARTICIPANTS\tMEETINGS\tAVG RESPONSE (ms)")
	for _, d := range depts {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.0f\n", d.Department, d.Selections, d.Participants, d.Meetings, d.AvgResponseTimeMs)
	}
	tw.Flush()
}
