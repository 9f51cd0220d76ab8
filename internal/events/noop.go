package events

import "context"

// NoopPublisher drops every event. The server uses it when no NATS URL is
// configured; a cancelled ctx is still reported.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, _ string, _ any) error {
	return ctx.Err()
}

func (n *NoopPublisher) Close() error {
	return nil
}
