package application

import (
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orderboard/api-server/internal/domains/realtime/domain"
)

// Gatekeeper gates new viewer connections and individual inbound messages:
// origin allow-list, per-session message quota, and subscribe authentication.
type Gatekeeper struct {
	allowedOrigins map[string]struct{}
	development    bool
	sharedSecret   string
	logger         *slog.Logger
	now            func() time.Time
}

type GatekeeperOption func(*Gatekeeper)

// WithGatekeeperLogger injects a slog logger.
func WithGatekeeperLogger(logger *slog.Logger) GatekeeperOption {
	return func(g *Gatekeeper) {
		g.logger = logger
	}
}

// WithGatekeeperClock overrides the time source. Test hook.
func WithGatekeeperClock(now func() time.Time) GatekeeperOption {
	return func(g *Gatekeeper) {
		g.now = now
	}
}

// NewGatekeeper builds the admission gate. development additionally admits
// any localhost origin regardless of port.
func NewGatekeeper(allowedOrigins []string, development bool, sharedSecret string, opts ...GatekeeperOption) *Gatekeeper {
	g := &Gatekeeper{
		allowedOrigins: make(map[string]struct{}, len(allowedOrigins)),
		development:    development,
		sharedSecret:   sharedSecret,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:            time.Now,
	}
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			g.allowedOrigins[origin] = struct{}{}
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// CheckOrigin decides whether a connection attempt may proceed past the
// Connecting state. A mismatch is terminal: the upgrade is refused.
func (g *Gatekeeper) CheckOrigin(origin string) bool {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		// Non-browser clients send no Origin header; only browsers need the
		// cross-origin gate.
		return true
	}
	if _, ok := g.allowedOrigins[origin]; ok {
		return true
	}
	if g.development && isLocalhost(origin) {
		return true
	}
	g.logger.Warn("websocket origin rejected", slog.String("origin", origin))
	return false
}

// Admit creates the session for an origin-validated connection. Sessions are
// auto-authenticated when no shared secret is configured.
func (g *Gatekeeper) Admit() *domain.Session {
	id := uuid.New().String()
	session := domain.NewSession(id, g.sharedSecret == "", g.now())
	g.logger.Info("session admitted", slog.String("session.id", id), slog.String("state", string(session.State())))
	return session
}

// Verdict is the outcome of screening one inbound message.
type Verdict struct {
	Allow bool
	// Reply, when set, is sent to the session instead of processing.
	Reply *domain.Envelope
}

// ScreenMessage applies block state and the message window to one inbound
// message before it reaches business logic.
func (g *Gatekeeper) ScreenMessage(session *domain.Session) Verdict {
	now := g.now()
	switch session.AdmitMessage(now) {
	case domain.DecisionBlocked:
		ack := domain.NewErrorAck("temporarily blocked, retry later", now)
		return Verdict{Reply: &ack}
	case domain.DecisionRateLimited:
		g.logger.Warn("session rate limited", slog.String("session.id", session.ID))
		ack := domain.NewErrorAck("message limit exceeded, blocked for 5 minutes", now)
		return Verdict{Reply: &ack}
	default:
		return Verdict{Allow: true}
	}
}

// ScreenSubscribe authorizes a subscribe message: prior authentication or a
// valid shared-secret field. Failure keeps the connection open.
func (g *Gatekeeper) ScreenSubscribe(session *domain.Session, secret string) Verdict {
	if session.Authenticated() {
		return Verdict{Allow: true}
	}
	if err := session.Authenticate(g.sharedSecret, secret); err != nil {
		g.logger.Warn("subscribe rejected", slog.String("session.id", session.ID), slog.String("error", err.Error()))
		ack := domain.NewErrorAck("subscription requires a valid shared secret", g.now())
		return Verdict{Reply: &ack}
	}
	return Verdict{Allow: true}
}

func isLocalhost(origin string) bool {
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}
