// Package sync periodically exports each organization's selection history
// as JSONL to one or more destinations.
package sync

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/youngmentor/Name-Spinner-Backend/internal/metrics"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

// Destination is the interface for an export target.
type Destination interface {
	// Write stores the JSONL payload under name.
	Write(ctx context.Context, name string, data []byte) error
}

// ObjectName returns the export object name for an organization.
func ObjectName(orgID string) string {
	return orgID + ".jsonl"
}

// Scheduler runs periodic exports to one or more destinations.
type Scheduler struct {
	store        store.Store
	destinations []Destination
	interval     time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports from the store to the given
// destinations at the specified interval. A nil clock uses the real clock.
func NewScheduler(s store.Store, destinations []Destination, interval time.Duration, clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		destinations: destinations,
		interval:     interval,
		clock:        clock,
		logger:       logger,
	}
}

// Start begins periodic export. It runs an initial export immediately, then
// on each tick.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.syncOnce(ctx)

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.syncOnce(ctx)
		}
	}
}

// syncOnce exports every organization. A failing organization or
// destination is logged and does not stop the others.
func (s *Scheduler) syncOnce(ctx context.Context) {
	orgs, err := s.store.ListOrganizationIDs(ctx)
	if err != nil {
		metrics.ExportRunsTotal.WithLabelValues("error").Inc()
		s.logger.Error("sync list organizations failed", "err", err)
		return
	}

	status := "ok"
	var total int
	for _, org := range orgs {
		var buf bytes.Buffer
		stats, err := ExportJSONL(ctx, s.store, org, s.clock.Now(), &buf)
		if err != nil {
			status = "error"
			s.logger.Error("sync export failed", "organization", org, "err", err)
			continue
		}
		for i, dest := range s.destinations {
			if err := dest.Write(ctx, ObjectName(org), buf.Bytes()); err != nil {
				status = "error"
				s.logger.Error("sync destination write failed", "organization", org, "destination", i, "err", err)
			}
		}
		total += stats.Selections
	}

	metrics.ExportRunsTotal.WithLabelValues(status).Inc()
	metrics.ExportedRecordsTotal.Add(float64(total))
	s.logger.Info("sync completed", "organizations", len(orgs), "destinations", len(s.destinations), "selections", total)
}
