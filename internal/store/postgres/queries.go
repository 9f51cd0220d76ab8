package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
)

// meetingColumns is the column list used for SELECT statements on the meetings table.
const meetingColumns = `id, organization_id, name, department, team_id, roster,
	selection_method, total_spins, last_activity, created_at, updated_at`

// participantColumns is the column list used for SELECT statements on the participants table.
const participantColumns = `id, organization_id, name, email, department, team_id,
	selection_count, last_selected_at, active, created_at, updated_at`

// selectionColumns is the column list used for SELECT statements on the selection_records table.
const selectionColumns = `id, organization_id, meeting_id, participant_id, participant_name,
	participant_department, participant_team_id, selection_method, duration_ms, session_id,
	metadata, selected_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// whereBuilder accumulates AND-ed predicates with positional placeholders.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) next(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) add(format string, v any) {
	w.clauses = append(w.clauses, fmt.Sprintf(format, w.next(v)))
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// --- Meetings ---

func queryCreateMeeting(ctx context.Context, db executor, m *model.Meeting) error {
	roster := m.Roster
	if roster == nil {
		roster = []string{}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO meetings (
			id, organization_id, name, department, team_id, roster,
			selection_method, total_spins, last_activity, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		)`,
		m.ID,
		m.OrganizationID,
		m.Name,
		nullString(m.Department),
		nullString(m.TeamID),
		pq.Array(roster),
		nullString(string(m.Settings.SelectionMethod)),
		m.Statistics.TotalSpins,
		nullTimePtr(m.Statistics.LastActivity),
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func queryGetMeeting(ctx context.Context, db executor, orgID, id string) (*model.Meeting, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings WHERE organization_id = $1 AND id = $2`, orgID, id)
	return scanMeeting(row)
}

func queryListMeetings(ctx context.Context, db executor, filter model.MeetingFilter) ([]*model.Meeting, error) {
	var w whereBuilder
	w.add("organization_id = %s", filter.OrganizationID)
	if filter.Department != "" {
		w.add("department = %s", filter.Department)
	}
	if filter.TeamID != "" {
		w.add("team_id = %s", filter.TeamID)
	}
	if filter.CreatedFrom != nil {
		w.add("created_at >= %s", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.add("created_at < %s", *filter.CreatedTo)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+meetingColumns+` FROM meetings`+w.sql()+` ORDER BY created_at DESC, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()
	return scanMeetings(rows)
}

// --- Participants ---

func queryCreateParticipant(ctx context.Context, db executor, p *model.Participant) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO participants (
			id, organization_id, name, email, department, team_id,
			selection_count, last_selected_at, active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		)`,
		p.ID,
		p.OrganizationID,
		p.Name,
		nullString(p.Email),
		nullString(p.Department),
		nullString(p.TeamID),
		p.SelectionCount,
		nullTimePtr(p.LastSelectedAt),
		p.Active,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func queryGetParticipant(ctx context.Context, db executor, orgID, id string) (*model.Participant, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE organization_id = $1 AND id = $2`, orgID, id)
	return scanParticipant(row)
}

func queryListParticipants(ctx context.Context, db executor, filter model.ParticipantFilter) ([]*model.Participant, error) {
	var w whereBuilder
	w.add("organization_id = %s", filter.OrganizationID)
	if filter.IDs != nil {
		w.add("id = ANY(%s)", pq.Array(filter.IDs))
	}
	if filter.Department != "" {
		w.add("department = %s", filter.Department)
	}
	if filter.TeamID != "" {
		w.add("team_id = %s", filter.TeamID)
	}
	if filter.ActiveOnly {
		w.clauses = append(w.clauses, "active")
	}
	if filter.CreatedFrom != nil {
		w.add("created_at >= %s", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		w.add("created_at < %s", *filter.CreatedTo)
	}

	// Stable order: weighted draws walk candidates in this order.
	rows, err := db.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants`+w.sql()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()
	return scanParticipants(rows)
}

// --- Selection log ---

func queryInsertSelection(ctx context.Context, db executor, r *model.SelectionRecord) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO selection_records (
			id, organization_id, meeting_id, participant_id, participant_name,
			participant_department, participant_team_id, selection_method, duration_ms, session_id,
			metadata, selected_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12
		)`,
		r.ID,
		r.OrganizationID,
		r.MeetingID,
		r.ParticipantID,
		r.ParticipantName,
		nullString(r.ParticipantDepartment),
		nullString(r.ParticipantTeamID),
		string(r.Method),
		nullIntPtr(r.DurationMs),
		nullString(r.SessionID),
		jsonbBytes(r.Metadata),
		r.SelectedAt,
	)
	return err
}

// selectionWhere builds the predicate shared by listing and deletion.
func selectionWhere(filter model.SelectionFilter) *whereBuilder {
	w := &whereBuilder{}
	w.add("organization_id = %s", filter.OrganizationID)
	if filter.MeetingID != "" {
		w.add("meeting_id = %s", filter.MeetingID)
	}
	if filter.ParticipantID != "" {
		w.add("participant_id = %s", filter.ParticipantID)
	}
	if filter.Department != "" {
		w.add("participant_department = %s", filter.Department)
	}
	if filter.TeamID != "" {
		w.add("participant_team_id = %s", filter.TeamID)
	}
	if filter.From != nil {
		w.add("selected_at >= %s", *filter.From)
	}
	if filter.To != nil {
		w.add("selected_at < %s", *filter.To)
	}
	return w
}

func queryListSelections(ctx context.Context, db executor, filter model.SelectionFilter) ([]*model.SelectionRecord, error) {
	w := selectionWhere(filter)
	q := `SELECT ` + selectionColumns + ` FROM selection_records` + w.sql() + ` ORDER BY selected_at DESC, id`
	if filter.Limit > 0 {
		q += " LIMIT " + w.next(filter.Limit)
	}

	rows, err := db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	defer rows.Close()
	return scanSelections(rows)
}

func queryIncrementParticipantSelection(ctx context.Context, db executor, orgID, participantID string, at time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE participants SET
			selection_count = selection_count + 1,
			last_selected_at = GREATEST(COALESCE(last_selected_at, $3), $3),
			updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`,
		orgID, participantID, at,
	)
	return requireOneRow(res, err)
}

func queryIncrementMeetingSpins(ctx context.Context, db executor, orgID, meetingID string, at time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE meetings SET
			total_spins = total_spins + 1,
			last_activity = GREATEST(COALESCE(last_activity, $3), $3),
			updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`,
		orgID, meetingID, at,
	)
	return requireOneRow(res, err)
}

func queryDeleteSelections(ctx context.Context, db executor, scope model.SelectionScope) (*model.ClearResult, error) {
	w := selectionWhere(scope.SelectionFilter())
	rows, err := db.QueryContext(ctx,
		`DELETE FROM selection_records`+w.sql()+` RETURNING participant_id, meeting_id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("delete selections: %w", err)
	}
	defer rows.Close()

	result := &model.ClearResult{}
	participants := make(map[string]struct{})
	meetings := make(map[string]struct{})
	for rows.Next() {
		var participantID, meetingID string
		if err := rows.Scan(&participantID, &meetingID); err != nil {
			return nil, fmt.Errorf("delete selections: scan: %w", err)
		}
		result.Deleted++
		participants[participantID] = struct{}{}
		meetings[meetingID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete selections: %w", err)
	}

	result.ParticipantIDs = sortedKeys(participants)
	result.MeetingIDs = sortedKeys(meetings)
	return result, nil
}

// queryRecountParticipants rewrites the counters of the given participants
// from the remaining selection log.
func queryRecountParticipants(ctx context.Context, db executor, orgID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		UPDATE participants p SET
			selection_count = COALESCE(s.cnt, 0),
			last_selected_at = s.last_at,
			updated_at = NOW()
		FROM unnest($2::text[]) AS ids(id)
		LEFT JOIN (
			SELECT participant_id, COUNT(*) AS cnt, MAX(selected_at) AS last_at
			FROM selection_records
			WHERE organization_id = $1
			GROUP BY participant_id
		) s ON s.participant_id = ids.id
		WHERE p.organization_id = $1 AND p.id = ids.id`,
		orgID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("recount participants: %w", err)
	}
	return nil
}

// queryRecountMeetings rewrites the spin statistics of the given meetings
// from the remaining selection log.
func queryRecountMeetings(ctx context.Context, db executor, orgID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := db.ExecContext(ctx, `
		UPDATE meetings m SET
			total_spins = COALESCE(s.cnt, 0),
			last_activity = s.last_at,
			updated_at = NOW()
		FROM unnest($2::text[]) AS ids(id)
		LEFT JOIN (
			SELECT meeting_id, COUNT(*) AS cnt, MAX(selected_at) AS last_at
			FROM selection_records
			WHERE organization_id = $1
			GROUP BY meeting_id
		) s ON s.meeting_id = ids.id
		WHERE m.organization_id = $1 AND m.id = ids.id`,
		orgID, pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("recount meetings: %w", err)
	}
	return nil
}

func queryListOrganizationIDs(ctx context.Context, db executor) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT organization_id FROM meetings
		UNION
		SELECT organization_id FROM participants
		ORDER BY 1`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// requireOneRow turns a zero-row UPDATE into sql.ErrNoRows.
func requireOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
