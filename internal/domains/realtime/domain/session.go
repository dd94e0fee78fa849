package domain

import (
	"errors"
	"sync"
	"time"
)

// State tracks a viewer session through its admission lifecycle.
type State string

const (
	StateConnecting     State = "connecting"
	StateOriginRejected State = "origin-rejected"
	StateOpen           State = "open"
	StateAuthenticated  State = "authenticated"
	StateBlocked        State = "blocked"
	StateClosed         State = "closed"
)

// Admission limits for inbound viewer messages.
const (
	MessageWindow  = time.Minute
	MaxPerWindow   = 30
	BlockDuration  = 5 * time.Minute
	IdleTimeout    = 24 * time.Hour
	BlockStaleSlop = 5 * time.Minute
)

// MinSecretLen is the minimum accepted shared-secret length.
const MinSecretLen = 8

var (
	ErrNotAuthenticated = errors.New("authentication required")
	ErrBadSecret        = errors.New("invalid shared secret")
)

// Decision classifies one inbound message.
type Decision int

const (
	// DecisionAllow admits the message.
	DecisionAllow Decision = iota
	// DecisionBlocked rejects without counting; session is inside a block.
	DecisionBlocked
	// DecisionRateLimited rejects the triggering message and starts a block.
	DecisionRateLimited
)

// Session is one connected real-time viewer. It is ephemeral, never
// persisted, and mutated only through its own methods.
type Session struct {
	mu sync.Mutex

	ID              string
	OriginValidated bool

	state        State
	authed       bool
	subscribed   bool
	windowStart  time.Time
	messageCount int
	blockedUntil time.Time
	connectedAt  time.Time
	lastSeen     time.Time
}

// NewSession admits an origin-validated connection. With no shared secret
// configured the session starts authenticated.
func NewSession(id string, autoAuthenticated bool, now time.Time) *Session {
	state := StateOpen
	if autoAuthenticated {
		state = StateAuthenticated
	}
	return &Session{
		ID:              id,
		OriginValidated: true,
		state:           state,
		authed:          autoAuthenticated,
		connectedAt:     now,
		lastSeen:        now,
	}
}

// AdmitMessage applies the block check and the sliding message window to one
// inbound message. Messages rejected by an active block are not counted.
func (s *Session) AdmitMessage(now time.Time) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now

	if s.state == StateBlocked {
		if now.Before(s.blockedUntil) {
			return DecisionBlocked
		}
		// Block expired: back to the pre-block state with a fresh counter.
		s.state = StateOpen
		if s.authed {
			s.state = StateAuthenticated
		}
		s.blockedUntil = time.Time{}
		s.windowStart = now
		s.messageCount = 0
	}

	if s.windowStart.IsZero() || now.Sub(s.windowStart) >= MessageWindow {
		s.windowStart = now
		s.messageCount = 0
	}
	s.messageCount++
	if s.messageCount > MaxPerWindow {
		s.state = StateBlocked
		s.blockedUntil = now.Add(BlockDuration)
		return DecisionRateLimited
	}
	return DecisionAllow
}

// Authenticate validates the supplied secret against the configured one.
// With no configured secret the session is already authenticated. A failed
// attempt leaves the connection open.
func (s *Session) Authenticate(configured, supplied string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if configured == "" || s.authed {
		s.authed = true
		if s.state == StateOpen {
			s.state = StateAuthenticated
		}
		return nil
	}
	if len(supplied) < MinSecretLen || supplied != configured {
		return ErrBadSecret
	}
	s.authed = true
	if s.state == StateOpen {
		s.state = StateAuthenticated
	}
	return nil
}

// Authenticated reports whether subscribe is allowed without a secret.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authed
}

// Subscribe adds the session to the orders broadcast group.
func (s *Session) Subscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = true
}

// Unsubscribe removes the session from the orders broadcast group. The
// session still counts as connected for statistics.
func (s *Session) Unsubscribe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = false
}

// Subscribed reports broadcast group membership.
func (s *Session) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed
}

// Close marks the terminal state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stale reports whether the periodic sweep should evict this session:
// idle beyond the idle timeout, or still blocked well past block expiry.
func (s *Session) Stale(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastSeen) > IdleTimeout {
		return true
	}
	if s.state == StateBlocked && now.Sub(s.blockedUntil) > BlockStaleSlop {
		return true
	}
	return false
}

// Touch refreshes liveness, e.g. on pong receipt.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}
