package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// sseReplaySize is the number of recent events kept for Last-Event-ID
	// reconnection.
	sseReplaySize = 512

	// sseClientBuffer is the per-client delivery queue length.
	sseClientBuffer = 64

	sseKeepaliveInterval = 15 * time.Second
)

// sseEvent is one spin event as delivered to stream clients.
type sseEvent struct {
	ID             uint64
	OrganizationID string
	Topic          string
	Data           []byte // JSON payload
}

// sseHub fans committed spin events out to the connected SSE clients of
// the owning organization and keeps a bounded replay log. Event IDs are
// shared across organizations, so a client may see gaps.
type sseHub struct {
	mu      sync.RWMutex
	clients map[*sseClient]struct{}
	lastID  uint64
	replay  []sseEvent // oldest first, at most sseReplaySize
}

// sseClient is a single connected stream consumer.
type sseClient struct {
	org    string
	topics []string // NATS-style patterns; empty = all
	ch     chan sseEvent
}

func newSSEHub() *sseHub {
	return &sseHub{clients: make(map[*sseClient]struct{})}
}

// broadcast assigns the next event ID and delivers the event to every
// matching client of org. Events without an organization are dropped.
// Slow clients miss events rather than block the caller.
func (h *sseHub) broadcast(org, topic string, payload []byte) {
	if org == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastID++
	evt := sseEvent{ID: h.lastID, OrganizationID: org, Topic: topic, Data: payload}
	if len(h.replay) == sseReplaySize {
		copy(h.replay, h.replay[1:])
		h.replay = h.replay[:sseReplaySize-1]
	}
	h.replay = append(h.replay, evt)

	for c := range h.clients {
		if !c.wants(evt) {
			continue
		}
		select {
		case c.ch <- evt:
		default:
		}
	}
}

// subscribe registers a client of org. The returned backlog holds the
// buffered events of org after lastID that match topics; it is captured
// atomically with the registration so nothing is delivered twice or lost
// in between.
func (h *sseHub) subscribe(org string, topics []string, lastID uint64) (*sseClient, []sseEvent) {
	c := &sseClient{org: org, topics: topics, ch: make(chan sseEvent, sseClientBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}

	var backlog []sseEvent
	if lastID > 0 {
		for _, evt := range h.replay {
			if evt.ID > lastID && c.wants(evt) {
				backlog = append(backlog, evt)
			}
		}
	}
	return c, backlog
}

func (h *sseHub) unsubscribe(c *sseClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *sseHub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *sseClient) wants(evt sseEvent) bool {
	if evt.OrganizationID != c.org {
		return false
	}
	if len(c.topics) == 0 {
		return true
	}
	for _, p := range c.topics {
		if matchTopicPattern(p, evt.Topic) {
			return true
		}
	}
	return false
}

// matchTopicPattern matches a dot-separated topic against a pattern.
// "*" matches exactly one segment and a trailing ">" matches one or more.
func matchTopicPattern(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	pat := strings.Split(pattern, ".")
	top := strings.Split(topic, ".")
	for i, p := range pat {
		if p == ">" {
			return i < len(top)
		}
		if i >= len(top) || (p != "*" && p != top[i]) {
			return false
		}
	}
	return len(pat) == len(top)
}

// parseTopics splits ?topics=a,b into trimmed non-empty patterns.
func parseTopics(raw string) []string {
	var topics []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// handleEventStream handles GET /v1/events/stream. The stream carries only
// the requesting organization's events.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	org, err := organizationID(r)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	var lastID uint64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		lastID, _ = strconv.ParseUint(v, 10, 64)
	}
	client, backlog := s.hub.subscribe(org, parseTopics(r.URL.Query().Get("topics")), lastID)
	defer s.hub.unsubscribe(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	for _, evt := range backlog {
		writeSSEEvent(w, evt)
	}
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-client.ch:
			writeSSEEvent(w, evt)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, evt sseEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", evt.ID, evt.Topic, evt.Data)
}
