package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/orderboard/api-server/internal/domains/realtime/application"
	"github.com/orderboard/api-server/internal/domains/realtime/domain"
)

// Handler upgrades viewer connections and runs the per-session message loop.
type Handler struct {
	hub        *application.Hub
	gatekeeper *application.Gatekeeper
	snapshot   SnapshotFunc
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// SnapshotFunc renders the initial-sync payload for a new session.
type SnapshotFunc func(ctx *gin.Context) (any, error)

// NewHandler wires the websocket endpoint. snapshot produces the first-page
// payload pushed before any incremental event reaches the session.
func NewHandler(hub *application.Hub, gatekeeper *application.Gatekeeper, snapshot SnapshotFunc, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &Handler{
		hub:        hub,
		gatekeeper: gatekeeper,
		snapshot:   snapshot,
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return gatekeeper.CheckOrigin(r.Header.Get("Origin"))
		},
	}
	return h
}

// Connect is the GET /ws handler. Origin rejection happens inside the
// upgrader and refuses the connection outright.
func (h *Handler) Connect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the refusal response.
		h.logger.Warn("websocket upgrade refused", slog.String("error", err.Error()))
		return
	}

	session := h.gatekeeper.Admit()
	sink := newClient(conn)
	h.hub.Register(session, sink)
	go sink.writePump()

	h.pushSnapshot(c, session)
	h.readPump(session, sink, conn)
}

// pushSnapshot establishes the client baseline: one initial-orders event with
// the first page of current orders, before any incremental event.
func (h *Handler) pushSnapshot(c *gin.Context, session *domain.Session) {
	if h.snapshot == nil {
		return
	}
	payload, err := h.snapshot(c)
	if err != nil {
		h.logger.Error("initial snapshot failed", slog.String("session.id", session.ID), slog.String("error", err.Error()))
		return
	}
	h.hub.SendTo(session.ID, domain.NewSnapshot(payload, time.Now()))
}

func (h *Handler) readPump(session *domain.Session, sink *client, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(session.ID)
		_ = sink.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		session.Touch(time.Now())
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("session read failed", slog.String("session.id", session.ID), slog.String("error", err.Error()))
			}
			return
		}

		verdict := h.gatekeeper.ScreenMessage(session)
		if !verdict.Allow {
			if verdict.Reply != nil {
				h.hub.SendTo(session.ID, *verdict.Reply)
			}
			continue
		}

		var msg domain.InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.hub.SendTo(session.ID, domain.NewErrorAck("malformed message", time.Now()))
			continue
		}
		h.dispatch(session, msg)
	}
}

func (h *Handler) dispatch(session *domain.Session, msg domain.InboundMessage) {
	switch msg.Type {
	case domain.TypeSubscribe:
		verdict := h.gatekeeper.ScreenSubscribe(session, msg.Secret)
		if !verdict.Allow {
			if verdict.Reply != nil {
				h.hub.SendTo(session.ID, *verdict.Reply)
			}
			return
		}
		session.Subscribe()
	case domain.TypeUnsubscribe:
		session.Unsubscribe()
	case domain.TypePing:
		h.hub.SendTo(session.ID, domain.NewPong(time.Now()))
	default:
		h.hub.SendTo(session.ID, domain.NewErrorAck("unknown message type", time.Now()))
	}
}
