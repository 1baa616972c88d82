package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/firmaria/docsign/internal/events"
	"github.com/firmaria/docsign/internal/signing"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// EventsHandler streams envelope events to staff clients over WebSocket.
type EventsHandler struct {
	service  *signing.Service
	broker   *events.Broker
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates a new event stream handler.
func NewEventsHandler(service *signing.Service, broker *events.Broker, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		service: service,
		broker:  broker,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Staff tooling connects from arbitrary origins; the JWT on the
			// preceding middleware is the actual credential.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Stream handles GET /v1/signatures/{envelopeID}/events. The envelope lookup
// doubles as the tenant authorization check before the upgrade.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	envelopeID := chi.URLParam(r, "envelopeID")

	env, err := h.service.Get(r.Context(), actorFrom(r), envelopeID)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err, "envelope_id", envelopeID)
		return
	}
	defer conn.Close()

	sub := h.broker.Subscribe(env.ID, env.CompanyID)
	defer h.broker.Unsubscribe(sub)

	h.logger.Debug("event stream opened", "envelope_id", env.ID, "subscriber_id", sub.ID)

	// Reader goroutine: we never expect client frames, but reading is what
	// surfaces close and pong frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-sub.Ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("event stream write failed", "error", err, "envelope_id", env.ID)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}
