package spin

import (
	"context"
	"fmt"

	"github.com/youngmentor/Name-Spinner-Backend/internal/model"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

// Coordinator owns every write to the selection log and the counters
// derived from it. Each operation commits as one transaction or not at
// all. Failed transactions are returned to the caller, never retried.
type Coordinator struct {
	store store.Store
}

// NewCoordinator returns a coordinator writing through s.
func NewCoordinator(s store.Store) *Coordinator {
	return &Coordinator{store: s}
}

// Record inserts rec, bumps the participant's count and last-selected
// time, and bumps the meeting's spin statistics. Any failure surfaces as
// a *model.TransactionFailedError.
func (c *Coordinator) Record(ctx context.Context, rec *model.SelectionRecord) error {
	err := c.store.RunInTransaction(ctx, func(tx store.Store) error {
		if err := tx.InsertSelection(ctx, rec); err != nil {
			return fmt.Errorf("insert selection: %w", err)
		}
		if err := tx.IncrementParticipantSelection(ctx, rec.OrganizationID, rec.ParticipantID, rec.SelectedAt); err != nil {
			return fmt.Errorf("update participant %s: %w", rec.ParticipantID, err)
		}
		if err := tx.IncrementMeetingSpins(ctx, rec.OrganizationID, rec.MeetingID, rec.SelectedAt); err != nil {
			return fmt.Errorf("update meeting %s: %w", rec.MeetingID, err)
		}
		return nil
	})
	if err != nil {
		return &model.TransactionFailedError{Op: "record selection", Err: err}
	}
	return nil
}

// ClearHistory deletes the records matching scope and recomputes the
// counters of every participant and meeting that lost records from the
// log that remains.
func (c *Coordinator) ClearHistory(ctx context.Context, scope model.SelectionScope) (*model.ClearResult, error) {
	var result *model.ClearResult
	err := c.store.RunInTransaction(ctx, func(tx store.Store) error {
		res, err := tx.DeleteSelections(ctx, scope)
		if err != nil {
			return err
		}
		if err := tx.RecountParticipants(ctx, scope.OrganizationID, res.ParticipantIDs); err != nil {
			return err
		}
		if err := tx.RecountMeetings(ctx, scope.OrganizationID, res.MeetingIDs); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, &model.TransactionFailedError{Op: "clear history", Err: err}
	}
	return result, nil
}
