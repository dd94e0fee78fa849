package application

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/orderboard/api-server/internal/domains/realtime/domain"
	"github.com/orderboard/api-server/internal/domains/realtime/ports"
)

// Hub owns the live session set and fans typed events out to it. It is
// constructed once at process start and passed by reference; there is no
// ambient registry.
type Hub struct {
	mu      sync.RWMutex
	members map[string]*member
	logger  *slog.Logger
	now     func() time.Time
}

type member struct {
	session *domain.Session
	sink    ports.Sink
}

type HubOption func(*Hub)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.now = now
	}
}

func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		members: map[string]*member{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register adds an admitted session with its transport sink.
func (h *Hub) Register(session *domain.Session, sink ports.Sink) {
	h.mu.Lock()
	h.members[session.ID] = &member{session: session, sink: sink}
	h.mu.Unlock()
	h.logger.Info("session registered", slog.String("session.id", session.ID), slog.Int("sessions", h.SessionCount()))
}

// Unregister drops a session from the registry and marks it closed. The sink
// is not closed here; the transport owns the connection teardown.
func (h *Hub) Unregister(sessionID string) {
	h.mu.Lock()
	m, ok := h.members[sessionID]
	if ok {
		delete(h.members, sessionID)
	}
	h.mu.Unlock()
	if ok {
		m.session.Close()
		h.logger.Info("session unregistered", slog.String("session.id", sessionID), slog.Int("sessions", h.SessionCount()))
	}
}

// Broadcast delivers an envelope to every connected session, subscribed or
// not. At-most-once: failed sends are logged and dropped.
func (h *Hub) Broadcast(envelope domain.Envelope) {
	for _, m := range h.snapshot() {
		h.deliver(m, envelope)
	}
}

// BroadcastGroup delivers an envelope to the sessions subscribed to a named
// group. Only the orders group exists today.
func (h *Hub) BroadcastGroup(group string, envelope domain.Envelope) {
	if group != domain.BroadcastGroup {
		return
	}
	for _, m := range h.snapshot() {
		if m.session.Subscribed() {
			h.deliver(m, envelope)
		}
	}
}

// SendTo delivers an envelope to a single session.
func (h *Hub) SendTo(sessionID string, envelope domain.Envelope) {
	h.mu.RLock()
	m, ok := h.members[sessionID]
	h.mu.RUnlock()
	if ok {
		h.deliver(m, envelope)
	}
}

// SessionCount reports connected sessions, subscribed or not.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.members)
}

// SubscriberCount reports sessions currently in the orders group.
func (h *Hub) SubscriberCount() int {
	count := 0
	for _, m := range h.snapshot() {
		if m.session.Subscribed() {
			count++
		}
	}
	return count
}

// EvictStale closes and removes sessions the admission policy considers dead:
// idle beyond the idle timeout or blocked well past block expiry.
func (h *Hub) EvictStale(now time.Time) int {
	var stale []*member
	for _, m := range h.snapshot() {
		if m.session.Stale(now) {
			stale = append(stale, m)
		}
	}
	for _, m := range stale {
		if err := m.sink.Close(); err != nil {
			h.logger.Warn("failed to close stale session", slog.String("session.id", m.session.ID), slog.String("error", err.Error()))
		}
		h.Unregister(m.session.ID)
	}
	return len(stale)
}

func (h *Hub) snapshot() []*member {
	h.mu.RLock()
	defer h.mu.RUnlock()
	list := make([]*member, 0, len(h.members))
	for _, m := range h.members {
		list = append(list, m)
	}
	return list
}

func (h *Hub) deliver(m *member, envelope domain.Envelope) {
	if err := m.sink.Send(envelope); err != nil {
		h.logger.Warn("event delivery failed",
			slog.String("session.id", m.session.ID),
			slog.String("event", envelope.Type),
			slog.String("error", err.Error()),
		)
	}
}
