// Package sse streams note change events to browsers as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/starford/pocketnotes/internal/events"
)

// Event is one message written to the stream.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// client is one connected stream. topics is nil when the client wants
// every event type.
type client struct {
	ch     chan []byte
	topics map[string]bool
}

func (c *client) wants(eventType string) bool {
	return c.topics == nil || c.topics[eventType]
}

// Broker manages SSE client connections and broadcasts events.
//
// A single loop goroutine owns the client set and the event id counter.
// Public methods talk to it over channels.
type Broker struct {
	heartbeat time.Duration

	subscribeCh   chan *client
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker. Connected streams receive a comment line
// every heartbeat so proxies keep them open; zero picks 15s.
func NewBroker(heartbeat time.Duration) *Broker {
	if heartbeat <= 0 {
		heartbeat = 15 * time.Second
	}
	b := &Broker{
		heartbeat:     heartbeat,
		subscribeCh:   make(chan *client),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]*client)
	var lastID uint64

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case c := <-b.subscribeCh:
			clients[c.ch] = c

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			payload, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			lastID++
			raw := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", lastID, event.Type, payload))
			for _, c := range clients {
				if !c.wants(event.Type) {
					continue
				}
				select {
				case c.ch <- raw:
				default:
					// Client buffer full; skip to avoid blocking the loop.
				}
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client interested in topics (all when empty) and
// returns its channel.
func (b *Broker) Subscribe(topics ...string) chan []byte {
	c := &client{ch: make(chan []byte, 64)}
	if len(topics) > 0 {
		c.topics = make(map[string]bool, len(topics))
		for _, t := range topics {
			c.topics[t] = true
		}
	}
	if b.closed.Load() {
		close(c.ch)
		return c.ch
	}

	select {
	case b.subscribeCh <- c:
	case <-b.stopped:
		close(c.ch)
	}
	return c.ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all interested clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// Subscriber is the part of events.Bus the broker listens on.
type Subscriber interface {
	Subscribe(topic string, h events.Handler) func()
}

// Bridge forwards every bus event to the stream and returns a function
// that stops forwarding.
func (b *Broker) Bridge(sub Subscriber) func() {
	return sub.Subscribe(events.AllTopics, func(ev events.Event) {
		b.Publish(Event{Type: ev.Topic, Data: ev})
	})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). The optional
// "topics" query parameter is a comma separated list of event types.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	var topics []string
	if raw := r.URL.Query().Get("topics"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics = append(topics, t)
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(topics...)
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(b.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
