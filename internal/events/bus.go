// Package events is an in-process publish/subscribe bus for note change
// notifications.
//
// A single loop goroutine owns the subscription table. Every subscription
// gets its own buffered queue and delivery goroutine, so a slow handler
// only delays its own events; when its queue is full further events for
// it are dropped.
package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/starford/pocketnotes/internal/models"
)

// Topics published by the application.
const (
	NoteAdded   = "note.added"
	NoteUpdated = "note.updated"
	NoteDeleted = "note.deleted"
	// NoteChanged reports a record changed in the store by another writer.
	NoteChanged = "note.changed"
)

// AllTopics subscribes to every topic.
const AllTopics = "*"

const queueSize = 64

// Event is one notification.
type Event struct {
	Topic string      `json:"topic"`
	Note  models.Note `json:"note"`
	// Key is the store key, set only for NoteChanged.
	Key string `json:"key,omitempty"`
	// Kind is "created", "updated" or "deleted", set only for NoteChanged.
	Kind string `json:"kind,omitempty"`
}

// Handler receives events on the subscription's own goroutine.
type Handler func(Event)

type subscription struct {
	id    uint64
	topic string
	ch    chan Event
}

// Bus fans events out to subscribers.
type Bus struct {
	logger *slog.Logger
	nextID atomic.Uint64

	subscribeCh   chan *subscription
	unsubscribeCh chan uint64
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
	wg      sync.WaitGroup
}

// NewBus starts the dispatch loop. Call Close to stop it.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bus{
		logger:        logger,
		subscribeCh:   make(chan *subscription),
		unsubscribeCh: make(chan uint64),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Bus) run() {
	defer close(b.stopped)

	subs := make(map[uint64]*subscription)

	for {
		select {
		case <-b.stopCh:
			for _, s := range subs {
				close(s.ch)
			}
			return

		case s := <-b.subscribeCh:
			subs[s.id] = s

		case id := <-b.unsubscribeCh:
			if s, ok := subs[id]; ok {
				delete(subs, id)
				close(s.ch)
			}

		case ev := <-b.publishCh:
			for _, s := range subs {
				if s.topic != AllTopics && s.topic != ev.Topic {
					continue
				}
				select {
				case s.ch <- ev:
				default:
					b.logger.Warn("events: subscriber queue full, dropping event",
						slog.String("topic", ev.Topic),
						slog.Uint64("subscription", s.id))
				}
			}

		case resp := <-b.countReqCh:
			resp <- len(subs)
		}
	}
}

// Publish queues ev for delivery. It is a no-op after Close.
func (b *Bus) Publish(ev Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- ev:
	case <-b.stopped:
	}
}

// Subscribe registers h for topic (or AllTopics) and returns a function
// that removes the subscription. The returned function is safe to call
// more than once.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	s := &subscription{
		id:    b.nextID.Add(1),
		topic: topic,
		ch:    make(chan Event, queueSize),
	}

	if b.closed.Load() {
		return func() {}
	}
	b.wg.Add(1)
	select {
	case b.subscribeCh <- s:
	case <-b.stopped:
		b.wg.Done()
		return func() {}
	}

	go func() {
		defer b.wg.Done()
		for ev := range s.ch {
			h(ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if b.closed.Load() {
				return
			}
			select {
			case b.unsubscribeCh <- s.id:
			case <-b.stopped:
			}
		})
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
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

// Close stops the dispatch loop and waits for in-flight handlers to return.
// Events still queued for a subscription are delivered first.
func (b *Bus) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
	b.wg.Wait()
}
