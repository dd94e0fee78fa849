package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/orderboard/api-server/internal/domains/realtime/domain"
	"github.com/orderboard/api-server/internal/domains/realtime/ports"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second
	// pongWait is the liveness probe timeout; a connection that misses it is
	// considered half-open and torn down.
	pongWait = 60 * time.Second
	// pingInterval must be shorter than pongWait.
	pingInterval = 30 * time.Second
	// maxMessageSize caps inbound frames; viewer messages are tiny.
	maxMessageSize = 1024
	// sendBuffer absorbs bursts; a full buffer drops the event rather than
	// blocking the broadcaster (reconnect-resync covers the gap).
	sendBuffer = 64
)

var errSessionGone = errors.New("session connection is closed or congested")

var _ ports.Sink = (*client)(nil)

// client owns one WebSocket connection. All frame writes happen on the write
// pump goroutine; Send only enqueues.
type client struct {
	conn      *websocket.Conn
	send      chan domain.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan domain.Envelope, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send enqueues an envelope without blocking the broadcaster.
func (c *client) Send(envelope domain.Envelope) error {
	select {
	case <-c.done:
		return errSessionGone
	default:
	}
	select {
	case c.send <- envelope:
		return nil
	default:
		return errSessionGone
	}
}

// Close tears the connection down. Idempotent; unblocks both pumps.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
	return nil
}

// writePump serializes all writes to the connection and drives the liveness
// probe. Runs until Close or a write failure.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.Close()
	}()
	for {
		select {
		case <-c.done:
			return
		case envelope := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(envelope); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
