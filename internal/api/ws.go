package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starford/pocketnotes/internal/events"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsQueueSize    = 16
)

// EventSource is the part of events.Bus the WebSocket stream listens on.
type EventSource interface {
	Subscribe(topic string, h events.Handler) func()
}

// EventStream pushes bus events to WebSocket clients as JSON messages.
// Clients pick one topic with ?topic=, all topics by default. Messages
// sent by clients are ignored.
type EventStream struct {
	src      EventSource
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventStream creates the stream handler. With no origins only
// same-origin browsers may connect.
func NewEventStream(src EventSource, origins []string, logger *slog.Logger) *EventStream {
	if logger == nil {
		logger = slog.Default()
	}
	s := &EventStream{src: src, logger: logger}
	if len(origins) > 0 {
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(origins, "*") || slices.Contains(origins, origin)
		}
	}
	return s
}

// ServeHTTP handles GET /api/ws.
func (s *EventStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		s.logger.Debug("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = events.AllTopics
	}

	queue := make(chan events.Event, wsQueueSize)
	unsubscribe := s.src.Subscribe(topic, func(ev events.Event) {
		select {
		case queue <- ev:
		default:
			s.logger.Warn("ws: client too slow, dropping event", slog.String("topic", ev.Topic))
		}
	})
	defer unsubscribe()

	// Reading is only needed to notice the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case ev := <-queue:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
