package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/starford/pocketnotes/internal/models"
)

// Memory is an in-process Provider. Data is lost when the process exits.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]models.Note
}

var _ Provider = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]models.Note)}
}

func (m *Memory) FetchAll(ctx context.Context) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]models.Record, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.Record{Key: k, Note: m.docs[k]})
	}
	return out, nil
}

func (m *Memory) Put(ctx context.Context, key string, n models.Note) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return fmt.Errorf("storage: empty key")
	}
	m.mu.Lock()
	m.docs[key] = n
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.docs, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Push(ctx context.Context, n models.Note) (string, error) {
	key := NewKey()
	if err := m.Put(ctx, key, n); err != nil {
		return "", err
	}
	return key, nil
}
