package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// Conn is a live subscriber connection. Send delivers one complete
// serialized event and may block on network I/O; a Send error marks the
// connection dead, and the hub prunes it.
//
// Implementations must serialize concurrent Send calls themselves (the
// server's websocket peer guards its writer with a mutex).
type Conn interface {
	Send(data []byte) error
}

// Envelope is the wire shape of every published event.
type Envelope struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Data      any    `json:"data"`
}

// Hub tracks live subscriber connections per session and fans published
// events out to them.
//
// The registry lock is held only to snapshot a session's connection set
// and to prune dead connections afterwards; delivery itself happens
// outside the critical section so a stalled consumer cannot block other
// sessions' traffic.
//
// Delivery is fire-and-forget: a failed Send is treated as connection
// death, never surfaced to the publisher, and the connection is removed
// so later publishes never attempt it again. Subscribers not connected at
// publish time simply miss the event; there is no queuing or replay.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]map[Conn]struct{}
	logger   *slog.Logger
}

// New creates an empty [Hub].
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		sessions: make(map[string]map[Conn]struct{}),
		logger:   logger,
	}
}

// Subscribe adds a connection to a session's subscriber set. The caller
// is responsible for having checked that the session exists.
func (h *Hub) Subscribe(sessionID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sessions[sessionID]
	if !ok {
		set = make(map[Conn]struct{})
		h.sessions[sessionID] = set
	}
	set[c] = struct{}{}
}

// Unsubscribe removes a connection. When the session's set empties, the
// session entry is dropped entirely so idle sessions hold no memory.
// Unknown connections are ignored.
func (h *Hub) Unsubscribe(sessionID string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sessionID, c)
}

// Subscribers returns the number of live connections for a session.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions[sessionID])
}

// Publish delivers an event to every connection subscribed to a session.
//
// The envelope is serialized exactly once per call, not once per
// recipient. Publishing to a session with no subscribers is a no-op.
// Connections whose Send fails are pruned before Publish returns.
func (h *Hub) Publish(sessionID, event string, data any) {
	conns := h.snapshot(sessionID)
	if len(conns) == 0 {
		return
	}

	msg, err := json.Marshal(Envelope{Event: event, SessionID: sessionID, Data: data})
	if err != nil {
		h.logger.Error("event payload not serializable",
			"event", event,
			"session_id", sessionID,
			"error", err,
		)
		return
	}

	var dead []Conn
	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			h.logger.Warn("event delivery failed, dropping connection",
				"event", event,
				"session_id", sessionID,
				"error", err,
			)
			dead = append(dead, c)
		}
	}
	h.prune(sessionID, dead)
}

// PublishError broadcasts an error.occurred event with a human-readable
// message and a source tag (e.g. "stt").
func (h *Hub) PublishError(sessionID, message, source string) {
	h.Publish(sessionID, EventErrorOccurred, ErrorData{Message: message, Source: source})
}

// Run sweeps the registry at the given interval, sending a ping event to
// every connection and pruning the ones that fail. This catches
// subscribers that vanished silently between publishes; it does not
// change the publish contract. A non-positive interval disables the
// sweep and Run returns immediately.
//
// Run blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.sweep()
		}
	}
}

// sweep pings every registered connection once.
func (h *Hub) sweep() {
	h.mu.Lock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		h.Publish(id, EventPing, struct{}{})
	}
}

// snapshot copies a session's connection set under the lock. The returned
// slice is the single consistent view used for one broadcast pass.
func (h *Hub) snapshot(sessionID string) []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.sessions[sessionID]
	if len(set) == 0 {
		return nil
	}
	conns := make([]Conn, 0, len(set))
	for c := range set {
		conns = append(conns, c)
	}
	return conns
}

// prune removes dead connections and drops the session entry if the set
// ends up empty.
func (h *Hub) prune(sessionID string, dead []Conn) {
	if len(dead) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range dead {
		h.removeLocked(sessionID, c)
	}
}

// removeLocked must be called with the lock held.
func (h *Hub) removeLocked(sessionID string, c Conn) {
	set, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.sessions, sessionID)
	}
}
