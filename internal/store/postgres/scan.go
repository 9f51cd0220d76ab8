package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanMeeting scans a single row into a model.Meeting.
// The row must contain columns in the order defined by meetingColumns.
func scanMeeting(row scannable) (*model.Meeting, error) {
	var m model.Meeting
	var (
		department   sql.NullString
		teamID       sql.NullString
		roster       pq.StringArray
		method       sql.NullString
		lastActivity sql.NullTime
	)

	err := row.Scan(
		&m.ID,
		&m.OrganizationID,
		&m.Name,
		&department,
		&teamID,
		&roster,
		&method,
		&m.Statistics.TotalSpins,
		&lastActivity,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Department = department.String
	m.TeamID = teamID.String
	m.Settings.SelectionMethod = model.SelectionMethod(method.String)
	if len(roster) > 0 {
		m.Roster = []string(roster)
	}
	m.Statistics.LastActivity = timePtr(lastActivity)

	return &m, nil
}

// scanMeetings scans multiple rows into a slice of model.Meeting pointers.
func scanMeetings(rows *sql.Rows) ([]*model.Meeting, error) {
	var meetings []*model.Meeting
	for rows.Next() {
		m, err := scanMeeting(rows)
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return meetings, nil
}

// scanParticipant scans a single row into a model.Participant.
// The row must contain columns in the order defined by participantColumns.
func scanParticipant(row scannable) (*model.Participant, error) {
	var p model.Participant
	var (
		email          sql.NullString
		department     sql.NullString
		teamID         sql.NullString
		lastSelectedAt sql.NullTime
	)

	err := row.Scan(
		&p.ID,
		&p.OrganizationID,
		&p.Name,
		&email,
		&department,
		&teamID,
		&p.SelectionCount,
		&lastSelectedAt,
		&p.Active,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Email = email.String
	p.Department = department.String
	p.TeamID = teamID.String
	p.LastSelectedAt = timePtr(lastSelectedAt)

	return &p, nil
}

// scanParticipants scans multiple rows into a slice of model.Participant pointers.
func scanParticipants(rows *sql.Rows) ([]*model.Participant, error) {
	var participants []*model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return participants, nil
}

// scanSelection scans a single row into a model.SelectionRecord.
// The row must contain columns in the order defined by selectionColumns.
func scanSelection(row scannable) (*model.SelectionRecord, error) {
	var r model.SelectionRecord
	var (
		department sql.NullString
		teamID     sql.NullString
		duration   sql.NullInt64
		sessionID  sql.NullString
		metadata   []byte
	)

	err := row.Scan(
		&r.ID,
		&r.OrganizationID,
		&r.MeetingID,
		&r.ParticipantID,
		&r.ParticipantName,
		&department,
		&teamID,
		&r.Method,
		&duration,
		&sessionID,
		&metadata,
		&r.SelectedAt,
	)
	if err != nil {
		return nil, err
	}

	r.ParticipantDepartment = department.String
	r.ParticipantTeamID = teamID.String
	r.SessionID = sessionID.String
	if duration.Valid {
		d := int(duration.Int64)
		r.DurationMs = &d
	}
	if len(metadata) > 0 {
		r.Metadata = json.RawMessage(metadata)
	}

	return &r, nil
}

// scanSelections scans multiple rows into a slice of model.SelectionRecord pointers.
func scanSelections(rows *sql.Rows) ([]*model.SelectionRecord, error) {
	var records []*model.SelectionRecord
	for rows.Next() {
		r, err := scanSelection(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// nullTimePtr converts a *time.Time to a sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// timePtr is the inverse of nullTimePtr.
func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullIntPtr converts an *int to sql.NullInt64.
func nullIntPtr(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// jsonbBytes converts json.RawMessage to a []byte suitable for JSONB columns.
func jsonbBytes(m json.RawMessage) []byte {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}
