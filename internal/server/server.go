// Package server exposes the spinner over HTTP/JSON, an SSE event stream
// and a gRPC health endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/youngmentor/Name-Spinner-Backend/internal/analytics"
	"github.com/youngmentor/Name-Spinner-Backend/internal/events"
	"github.com/youngmentor/Name-Spinner-Backend/internal/spin"
	"github.com/youngmentor/Name-Spinner-Backend/internal/store"
)

// Server wires the store, spin engine and analytics aggregator to the
// transport layers.
type Server struct {
	store     store.Store
	engine    *spin.Engine
	analytics *analytics.Aggregator
	clock     clockwork.Clock
	hub       *sseHub
	relay     events.Subscriber
	logger    *slog.Logger
}

type options struct {
	publisher events.Publisher
	relay     events.Subscriber
	clock     clockwork.Clock
	rng       spin.Rand
	location  *time.Location
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*options)

// WithPublisher sets the publisher for committed spin events.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithRelay feeds the SSE stream from sub instead of from this process's
// own publishes, so every replica streams every replica's events.
func WithRelay(sub events.Subscriber) Option {
	return func(o *options) { o.relay = sub }
}

// WithClock overrides the clock used for timestamps and analytics windows.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRand overrides the random source used by the spin strategies.
func WithRand(r spin.Rand) Option {
	return func(o *options) { o.rng = r }
}

// WithLocation sets the zone used for peak-hour bucketing.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a Server backed by s.
func New(s store.Store, opts ...Option) *Server {
	o := options{
		publisher: &events.NoopPublisher{},
		clock:     clockwork.NewRealClock(),
		location:  time.UTC,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	srv := &Server{
		store:     s,
		analytics: analytics.New(s, o.clock, o.location),
		clock:     o.clock,
		hub:       newSSEHub(),
		relay:     o.relay,
		logger:    o.logger,
	}

	publisher := o.publisher
	if o.relay == nil {
		publisher = &hubPublisher{next: o.publisher, hub: srv.hub, logger: o.logger}
	}
	engineOpts := []spin.Option{
		spin.WithClock(o.clock),
		spin.WithPublisher(publisher),
		spin.WithLogger(o.logger),
	}
	if o.rng != nil {
		engineOpts = append(engineOpts, spin.WithRand(o.rng))
	}
	srv.engine = spin.New(s, engineOpts...)
	return srv
}

// StartRelay subscribes to every organization's spinner topics on the
// configured relay and fans each message out to that organization's SSE
// clients until ctx is cancelled or stop is called. Without a relay it does
// nothing.
func (s *Server) StartRelay(ctx context.Context) (stop func(), err error) {
	if s.relay == nil {
		return func() {}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	var cancels []func()
	for _, topic := range []string{events.TopicSelectionRecorded, events.TopicHistoryCleared} {
		ch, unsub, err := s.relay.Subscribe(events.AnyOrganization(topic))
		if err != nil {
			cancel()
			for _, c := range cancels {
				c()
			}
			return nil, fmt.Errorf("subscribe %s: %w", topic, err)
		}
		cancels = append(cancels, unsub)
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-ch:
					if !ok {
						return
					}
					s.hub.broadcast(msg.OrganizationID, msg.Topic, msg.Data)
				}
			}
		}()
	}

	return func() {
		cancel()
		for _, c := range cancels {
			c()
		}
	}, nil
}

// hubPublisher forwards events to the next publisher and to the owning
// organization's local SSE clients.
type hubPublisher struct {
	next   events.Publisher
	hub    *sseHub
	logger *slog.Logger
}

func (p *hubPublisher) Publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
	} else {
		p.hub.broadcast(events.OrganizationOf(event), topic, payload)
	}
	return p.next.Publish(ctx, topic, event)
}

func (p *hubPublisher) Close() error {
	return p.next.Close()
}
