package spin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/youngmentor/Name-Spinner-Backend/internal/events"
	"github.com/youngmentor/Name-Spinner-Backend/internal/idgen"
	"github.com/youngmentor/Name-Spinner-Backend/internal/metrics"
	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

// Engine is the entry point for spins, out-of-band records and
// clear-history.
type Engine struct {
	pool        *ParticipantPool
	coordinator *Coordinator
	clock       clockwork.Clock
	rng         Rand
	publisher   events.Publisher
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to timestamp records.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRand sets the randomness source. Access to it is serialized.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = &lockedRand{src: r} }
}

// WithPublisher sets where committed selections and clears are announced.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an engine over s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		pool:        NewParticipantPool(s),
		coordinator: NewCoordinator(s),
		clock:       clockwork.NewRealClock(),
		rng:         globalRand{},
		publisher:   &events.NoopPublisher{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SelectRequest describes one spin. An empty Method uses the meeting's
// default, falling back to random.
type SelectRequest struct {
	OrganizationID          string
	MeetingID               string
	Department              string
	Method                  model.SelectionMethod
	ExcludeRecentlySelected bool
	DurationMs              *int
	SessionID               string
}

// SelectResult is the outcome of a spin. For the manual method only
// Method and Eligible are set and nothing was recorded.
type SelectResult struct {
	Method      model.SelectionMethod  `json:"selection_method"`
	Participant *model.Participant     `json:"participant,omitempty"`
	Record      *model.SelectionRecord `json:"record,omitempty"`
	Eligible    []*model.Participant   `json:"eligible_participants,omitempty"`
}

// Select resolves the candidates, applies the recency policy, picks, and
// records the pick atomically.
func (e *Engine) Select(ctx context.Context, req SelectRequest) (*SelectResult, error) {
	res, err := e.selectParticipant(ctx, req)
	if err != nil {
		e.countError(err)
		return nil, err
	}
	return res, nil
}

func (e *Engine) selectParticipant(ctx context.Context, req SelectRequest) (*SelectResult, error) {
	if err := validateTarget(req.OrganizationID, req.MeetingID); err != nil {
		return nil, err
	}
	if err := model.ValidateDuration(req.DurationMs); err != nil {
		return nil, err
	}
	if req.Method != "" && !req.Method.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidSelectionMethod, req.Method)
	}

	meeting, candidates, err := e.pool.Candidates(ctx, req.OrganizationID, req.MeetingID, strings.TrimSpace(req.Department))
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = meeting.Settings.SelectionMethod
	}
	if method == "" {
		method = model.MethodRandom
	}
	strategy, err := StrategyFor(method)
	if err != nil {
		return nil, err
	}

	eligible, err := FilterEligible(candidates, req.ExcludeRecentlySelected)
	if err != nil {
		return nil, fmt.Errorf("meeting %s: %w", meeting.ID, err)
	}

	outcome := strategy.Pick(eligible, e.rng)
	if outcome.Chosen == nil {
		metrics.ManualDrawsTotal.Inc()
		return &SelectResult{Method: method, Eligible: outcome.Eligible}, nil
	}

	metadata, err := json.Marshal(map[string]any{
		"eligibleCount":           len(eligible),
		"excludeRecentlySelected": req.ExcludeRecentlySelected,
	})
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	chosen := outcome.Chosen
	rec, err := e.newRecord(meeting, chosen, method, req.DurationMs, req.SessionID, metadata)
	if err != nil {
		return nil, err
	}
	if err := e.coordinator.Record(ctx, rec); err != nil {
		e.logger.Warn("selection not recorded",
			"organization_id", rec.OrganizationID, "meeting_id", rec.MeetingID,
			"participant_id", rec.ParticipantID, "method", method, "error", err)
		return nil, err
	}

	updated := *chosen
	updated.MarkSelected(rec.SelectedAt)

	e.committed(ctx, rec, len(eligible))
	return &SelectResult{Method: method, Participant: &updated, Record: rec, Eligible: eligible}, nil
}

// RecordRequest describes an out-of-band choice, usually made by a human
// after a manual spin. An empty Method records as manual.
type RecordRequest struct {
	OrganizationID string
	MeetingID      string
	ParticipantID  string
	Method         model.SelectionMethod
	DurationMs     *int
	SessionID      string
	Metadata       json.RawMessage
}

// RecordSelection writes a selection for a participant chosen elsewhere.
func (e *Engine) RecordSelection(ctx context.Context, req RecordRequest) (*model.SelectionRecord, error) {
	rec, err := e.recordSelection(ctx, req)
	if err != nil {
		e.countError(err)
		return nil, err
	}
	return rec, nil
}

func (e *Engine) recordSelection(ctx context.Context, req RecordRequest) (*model.SelectionRecord, error) {
	if err := validateTarget(req.OrganizationID, req.MeetingID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ParticipantID) == "" {
		return nil, model.NewValidationError("participant_id", "is required")
	}
	if err := model.ValidateDuration(req.DurationMs); err != nil {
		return nil, err
	}
	method := req.Method
	if method == "" {
		method = model.MethodManual
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidSelectionMethod, method)
	}
	metadata := req.Metadata
	if len(metadata) == 0 {
		metadata = json.RawMessage(`{"source":"manual"}`)
	} else if !json.Valid(metadata) {
		return nil, model.NewValidationError("metadata", "must be valid JSON")
	}

	meeting, err := e.pool.store.GetMeeting(ctx, req.OrganizationID, req.MeetingID)
	if err != nil {
		return nil, lookupError(err, "meeting", req.MeetingID)
	}
	participant, err := e.pool.store.GetParticipant(ctx, req.OrganizationID, req.ParticipantID)
	if err != nil {
		return nil, lookupError(err, "participant", req.ParticipantID)
	}

	rec, err := e.newRecord(meeting, participant, method, req.DurationMs, req.SessionID, metadata)
	if err != nil {
		return nil, err
	}
	if err := e.coordinator.Record(ctx, rec); err != nil {
		e.logger.Warn("selection not recorded",
			"organization_id", rec.OrganizationID, "meeting_id", rec.MeetingID,
			"participant_id", rec.ParticipantID, "method", method, "error", err)
		return nil, err
	}

	e.committed(ctx, rec, 0)
	return rec, nil
}

// ClearHistory deletes the selection records in scope and returns how
// many were removed.
func (e *Engine) ClearHistory(ctx context.Context, scope model.SelectionScope) (int, error) {
	if err := scope.Validate(); err != nil {
		return 0, err
	}
	res, err := e.coordinator.ClearHistory(ctx, scope)
	if err != nil {
		e.logger.Warn("clear history failed", "organization_id", scope.OrganizationID, "error", err)
		return 0, err
	}

	metrics.HistoryClearedRecordsTotal.Add(float64(res.Deleted))
	e.logger.Info("history cleared",
		"organization_id", scope.OrganizationID, "department", scope.Department,
		"meeting_id", scope.MeetingID, "team_id", scope.TeamID, "cleared", res.Deleted)
	e.publish(ctx, events.TopicHistoryCleared, events.HistoryCleared{Scope: scope, ClearedCount: res.Deleted})
	return res.Deleted, nil
}

func (e *Engine) newRecord(meeting *model.Meeting, p *model.Participant, method model.SelectionMethod, durationMs *int, sessionID string, metadata json.RawMessage) (*model.SelectionRecord, error) {
	id, err := idgen.Selection()
	if err != nil {
		return nil, err
	}
	return &model.SelectionRecord{
		ID:                    id,
		OrganizationID:        meeting.OrganizationID,
		MeetingID:             meeting.ID,
		ParticipantID:         p.ID,
		ParticipantName:       p.Name,
		ParticipantDepartment: p.Department,
		ParticipantTeamID:     p.TeamID,
		Method:                method,
		DurationMs:            durationMs,
		SessionID:             strings.TrimSpace(sessionID),
		Metadata:              metadata,
		SelectedAt:            e.clock.Now().UTC(),
	}, nil
}

// committed runs the post-commit side effects of a recorded selection.
func (e *Engine) committed(ctx context.Context, rec *model.SelectionRecord, eligibleCount int) {
	metrics.SelectionsTotal.WithLabelValues(rec.Method.String()).Inc()
	if rec.DurationMs != nil {
		metrics.SpinDuration.Observe(float64(*rec.DurationMs))
	}
	e.logger.Info("selection recorded",
		"organization_id", rec.OrganizationID, "meeting_id", rec.MeetingID,
		"participant_id", rec.ParticipantID, "method", rec.Method)
	e.publish(ctx, events.TopicSelectionRecorded, events.SelectionRecorded{Record: rec, EligibleCount: eligibleCount})
}

// publish is best-effort; the write it announces has already committed.
func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if err := e.publisher.Publish(ctx, topic, event); err != nil {
		e.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

func (e *Engine) countError(err error) {
	metrics.SelectionErrorsTotal.WithLabelValues(ErrorReason(err)).Inc()
}

// ErrorReason classifies err for metrics and logs.
func ErrorReason(err error) string {
	switch {
	case model.IsValidation(err):
		return metrics.ReasonValidation
	case errors.Is(err, model.ErrNotFound):
		return metrics.ReasonNotFound
	case errors.Is(err, model.ErrNoEligibleParticipants):
		return metrics.ReasonNoEligible
	case errors.Is(err, model.ErrInvalidSelectionMethod):
		return metrics.ReasonInvalidMethod
	case errors.Is(err, model.ErrTransactionFailed):
		return metrics.ReasonTransaction
	}
	return metrics.ReasonInternal
}

func validateTarget(orgID, meetingID string) error {
	var fields []model.FieldError
	if strings.TrimSpace(orgID) == "" {
		fields = append(fields, model.FieldError{Field: "organization_id", Message: "is required"})
	}
	if strings.TrimSpace(meetingID) == "" {
		fields = append(fields, model.FieldError{Field: "meeting_id", Message: "is required"})
	}
	if len(fields) > 0 {
		return &model.ValidationError{Errors: fields}
	}
	return nil
}
