package gateway

import (
	"net/http"
	"time"

	"github.com/bizmatters/mindease/console/internal/events"
	"github.com/bizmatters/mindease/console/internal/models"
	"github.com/bizmatters/mindease/console/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// EventStream pushes session events to websocket clients.
type EventStream struct {
	registry *Registry
	bus      *events.Bus
	tracer   trace.Tracer
	upgrader websocket.Upgrader
}

// NewEventStream creates an event stream over the handler's sessions.
// allowedOrigins empty means any origin is accepted.
func NewEventStream(h *Handler, allowedOrigins []string) *EventStream {
	return &EventStream{
		registry: h.registry,
		bus:      h.bus,
		tracer:   otel.Tracer("mindease-event-stream"),
		upgrader: websocket.Upgrader{
			CheckOrigin:      originChecker(allowedOrigins),
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// StreamSession godoc
// @Summary Stream session events
// @Description Pushes state_changed, message_appended, scroll_into_view and chat.cleared events for one session
// @Tags events
// @Param id path string true "Session ID"
// @Param token query string false "Console token"
// @Success 101 "Switching Protocols"
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws/sessions/{id} [get]
func (s *EventStream) StreamSession(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "event_stream.stream_session")
	defer span.End()

	sessionID := c.Param("id")
	span.SetAttributes(attribute.String("session.id", sessionID))

	if !s.registry.Exists(sessionID) {
		respondError(c, http.StatusNotFound, models.ErrCodeNotFound, "Session not found")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		logger.WithFields(logger.Fields{"session_id": sessionID, "error": err.Error()}).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	feed, cancel := s.bus.Subscribe(sessionID)
	defer cancel()

	log := logger.WithFields(logger.Fields{"session_id": sessionID})
	log.Debug("event stream opened")

	done := make(chan struct{})
	go s.readLoop(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			log.Debug("event stream closed by client")
			return
		case event, ok := <-feed:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				span.RecordError(err)
				log.WithField("error", err.Error()).Warn("failed to write session event")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames and closes done when the peer goes away.
func (s *EventStream) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("event stream read ended: %v", err)
			}
			return
		}
	}
}
