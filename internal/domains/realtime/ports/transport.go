package ports

import "github.com/orderboard/api-server/internal/domains/realtime/domain"

// Sink delivers envelopes to one connected session. Implementations must not
// block the caller; a send to a dead or congested connection fails fast and
// the event is simply lost (clients recover by reconnect-resync).
type Sink interface {
	Send(envelope domain.Envelope) error
	// Close tears the underlying connection down. Idempotent.
	Close() error
}
