package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/OmegaDesk/backend/internal/domain/events"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/OmegaDesk/backend/internal/shared/types"
)

// Message types sent and accepted on the stream
const (
	TypeSystem = "system"
	TypeEvent  = "event"
	TypePing   = "ping"
	TypePong   = "pong"
	TypeError  = "error"
)

const writeWait = 5 * time.Second

// Handler streams session bus events to WebSocket clients
type Handler struct {
	bus      *events.Bus
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the handler logger
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithMetrics enables connection and message metrics
func WithMetrics(m *monitoring.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithCheckOrigin replaces the origin check. All origins are accepted by default.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Handler) { h.upgrader.CheckOrigin = fn }
}

// NewHandler creates a new WebSocket handler
func NewHandler(bus *events.Bus, opts ...Option) *Handler {
	h := &Handler{
		bus:    bus,
		logger: zap.NewNop(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleConnection upgrades the request and streams events until the client
// goes away. Clients may send {"type":"ping"} and get a pong back.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	sub := h.bus.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	replies := make(chan types.WSMessage, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		// Closing the connection unblocks the reader
		defer conn.Close()
		defer cancel()
		h.writeLoop(ctx, conn, sub, replies)
	}()

	h.readLoop(ctx, conn, replies)
	cancel()
	<-writerDone
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, replies chan<- types.WSMessage) {
	for {
		var msg types.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		var reply types.WSMessage
		switch msg.Type {
		case TypePing:
			reply = types.WSMessage{Type: TypePong}
		default:
			reply = types.WSMessage{Type: TypeError, Message: "unknown message type"}
		}

		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *events.Subscription, replies <-chan types.WSMessage) {
	if err := h.send(conn, types.WSMessage{Type: TypeSystem, Message: "connected"}); err != nil {
		return
	}

	for {
		var msg types.WSMessage
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			msg = types.WSMessage{Type: TypeEvent, Event: &ev}
		case msg = <-replies:
		}

		if err := h.send(conn, msg); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, msg types.WSMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		return err
	}
	h.metrics.RecordWSMessage("out", msg.Type)
	return nil
}
