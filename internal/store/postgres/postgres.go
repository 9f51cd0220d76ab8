// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewWithDB wraps an already-open database handle without running migrations.
func NewWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	return queryCreateMeeting(ctx, s.db, m)
}

func (s *PostgresStore) GetMeeting(ctx context.Context, orgID, id string) (*model.Meeting, error) {
	return queryGetMeeting(ctx, s.db, orgID, id)
}

func (s *PostgresStore) ListMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	return queryListMeetings(ctx, s.db, filter)
}

func (s *PostgresStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	return queryCreateParticipant(ctx, s.db, p)
}

func (s *PostgresStore) GetParticipant(ctx context.Context, orgID, id string) (*model.Participant, error) {
	return queryGetParticipant(ctx, s.db, orgID, id)
}

func (s *PostgresStore) ListParticipants(ctx context.Context, filter model.ParticipantFilter) ([]*model.Participant, error) {
	return queryListParticipants(ctx, s.db, filter)
}

func (s *PostgresStore) InsertSelection(ctx context.Context, rec *model.SelectionRecord) error {
	return queryInsertSelection(ctx, s.db, rec)
}

func (s *PostgresStore) ListSelections(ctx context.Context, filter model.SelectionFilter) ([]*model.SelectionRecord, error) {
	return queryListSelections(ctx, s.db, filter)
}

func (s *PostgresStore) IncrementParticipantSelection(ctx context.Context, orgID, participantID string, at time.Time) error {
	return queryIncrementParticipantSelection(ctx, s.db, orgID, participantID, at)
}

func (s *PostgresStore) IncrementMeetingSpins(ctx context.Context, orgID, meetingID string, at time.Time) error {
	return queryIncrementMeetingSpins(ctx, s.db, orgID, meetingID, at)
}

func (s *PostgresStore) DeleteSelections(ctx context.Context, scope model.SelectionScope) (*model.ClearResult, error) {
	return queryDeleteSelections(ctx, s.db, scope)
}

func (s *PostgresStore) RecountParticipants(ctx context.Context, orgID string, participantIDs []string) error {
	return queryRecountParticipants(ctx, s.db, orgID, participantIDs)
}

func (s *PostgresStore) RecountMeetings(ctx context.Context, orgID string, meetingIDs []string) error {
	return queryRecountMeetings(ctx, s.db, orgID, meetingIDs)
}

func (s *PostgresStore) ListOrganizationIDs(ctx context.Context) ([]string, error) {
	return queryListOrganizationIDs(ctx, s.db)
}

// setSerializable must be the first statement of a transaction.
const setSerializable = `SET TRANSACTION ISOLATION LEVEL SERIALIZABLE`

// RunInTransaction begins a SERIALIZABLE transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
// A write that races fn, such as a record landing during a recount, makes
// one side fail with SQLSTATE 40001. A panic inside fn rolls the
// transaction back before it propagates.
func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, setSerializable); err != nil {
		return fmt.Errorf("set isolation level: %w", err)
	}

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// txStore implements store.Store using a *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

// Compile-time check that txStore implements store.Store.
var _ store.Store = (*txStore)(nil)

func (s *txStore) CreateMeeting(ctx context.Context, m *model.Meeting) error {
	return queryCreateMeeting(ctx, s.tx, m)
}

func (s *txStore) GetMeeting(ctx context.Context, orgID, id string) (*model.Meeting, error) {
	return queryGetMeeting(ctx, s.tx, orgID, id)
}

func (s *txStore) ListMeetings(ctx context.Context, filter model.MeetingFilter) ([]*model.Meeting, error) {
	return queryListMeetings(ctx, s.tx, filter)
}

func (s *txStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	return queryCreateParticipant(ctx, s.tx, p)
}

func (s *txStore) GetParticipant(ctx context.Context, orgID, id string) (*model.Participant, error) {
	return queryGetParticipant(ctx, s.tx, orgID, id)
}

func (s *txStore) ListParticipants(ctx context.Context, filter model.ParticipantFilter) ([]*model.Participant, error) {
	return queryListParticipants(ctx, s.tx, filter)
}

func (s *txStore) InsertSelection(ctx context.Context, rec *model.SelectionRecord) error {
	return queryInsertSelection(ctx, s.tx, rec)
}

func (s *txStore) ListSelections(ctx context.Context, filter model.SelectionFilter) ([]*model.SelectionRecord, error) {
	return queryListSelections(ctx, s.tx, filter)
}

func (s *txStore) IncrementParticipantSelection(ctx context.Context, orgID, participantID string, at time.Time) error {
	return queryIncrementParticipantSelection(ctx, s.tx, orgID, participantID, at)
}

func (s *txStore) IncrementMeetingSpins(ctx context.Context, orgID, meetingID string, at time.Time) error {
	return queryIncrementMeetingSpins(ctx, s.tx, orgID, meetingID, at)
}

func (s *txStore) DeleteSelections(ctx context.Context, scope model.SelectionScope) (*model.ClearResult, error) {
	return queryDeleteSelections(ctx, s.tx, scope)
}

func (s *txStore) RecountParticipants(ctx context.Context, orgID string, participantIDs []string) error {
	return queryRecountParticipants(ctx, s.tx, orgID, participantIDs)
}

func (s *txStore) RecountMeetings(ctx context.Context, orgID string, meetingIDs []string) error {
	return queryRecountMeetings(ctx, s.tx, orgID, meetingIDs)
}

func (s *txStore) ListOrganizationIDs(ctx context.Context) ([]string, error) {
	return queryListOrganizationIDs(ctx, s.tx)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

// Ping is a no-op inside a transaction; the open tx already holds a connection.
func (s *txStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
