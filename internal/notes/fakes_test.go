package notes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/pocketnotes/internal/events"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/storage"
)

var errBoom = errors.New("connection refused")

// fakeStore wraps storage.Memory, counts calls and injects failures.
type fakeStore struct {
	*storage.Memory

	mu        sync.Mutex
	fetches   int
	puts      int
	deletes   int
	fetchErr  error
	putErr    error
	deleteErr error
}

var _ storage.Provider = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{Memory: storage.NewMemory()}
}

func (s *fakeStore) seed(keyed map[string]models.Note) {
	for k, n := range keyed {
		_ = s.Memory.Put(context.Background(), k, n)
	}
}

func (s *fakeStore) calls() (fetches, puts, deletes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches, s.puts, s.deletes
}

func (s *fakeStore) FetchAll(ctx context.Context) ([]models.Record, error) {
	s.mu.Lock()
	s.fetches++
	err := s.fetchErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.Memory.FetchAll(ctx)
}

func (s *fakeStore) Put(ctx context.Context, key string, n models.Note) error {
	s.mu.Lock()
	s.puts++
	err := s.putErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Memory.Put(ctx, key, n)
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	s.deletes++
	err := s.deleteErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.Memory.Delete(ctx, key)
}

type fakeUploader struct {
	url  string
	err  error
	keys []string
	data [][]byte
}

func (u *fakeUploader) Upload(_ context.Context, data []byte, key string) (string, error) {
	u.keys = append(u.keys, key)
	u.data = append(u.data, data)
	if u.err != nil {
		return "", u.err
	}
	return u.url, nil
}

type alert struct{ title, message string }

type fakePrompt struct {
	answer   bool
	err      error
	mu       sync.Mutex
	confirms []string
	alerts   []alert
}

func (p *fakePrompt) Confirm(_ context.Context, message string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, message)
	return p.answer, p.err
}

func (p *fakePrompt) Alert(_ context.Context, title, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alert{title, message})
}

func (p *fakePrompt) alertCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.alerts)
}

type navCall struct {
	route  string
	params map[string]string
}

type fakeNav struct {
	backs int
	gotos []navCall
}

func (n *fakeNav) GoBack(context.Context) error {
	n.backs++
	return nil
}

func (n *fakeNav) GoTo(_ context.Context, route string, params map[string]string) error {
	n.gotos = append(n.gotos, navCall{route, params})
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *fakePublisher) Publish(ev events.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *fakePublisher) published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC)
}

func ids(list []models.Note) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.ID)
	}
	return out
}
