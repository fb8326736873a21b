// Package storage defines the remote note store abstraction and its backends.
//
// Every backend files notes under opaque keys that have nothing to do
// with the note's own ID. Callers that want to mutate a note by ID or
// description fetch the whole collection, scan for the record, and then
// mutate by key.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/pocketnotes/internal/models"
)

// Provider is the interface for remote note storage.
type Provider interface {
	// FetchAll returns every record, ordered by key.
	FetchAll(ctx context.Context) ([]models.Record, error)
	// Put overwrites the whole record stored at key.
	Put(ctx context.Context, key string, n models.Note) error
	// Delete removes the record stored at key.
	Delete(ctx context.Context, key string) error
	// Push files n under a freshly generated key and returns that key.
	Push(ctx context.Context, n models.Note) (string, error)
}

// NewKey returns a time-ordered opaque key, so ordering by key follows
// insertion order.
func NewKey() string {
	return uuid.Must(uuid.NewV7()).String()
}

func encodeNote(n models.Note) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("storage: encode note: %w", err)
	}
	return data, nil
}

func decodeRecord(key string, data []byte) (models.Record, error) {
	var n models.Note
	if err := json.Unmarshal(data, &n); err != nil {
		return models.Record{}, fmt.Errorf("storage: decode %s: %w", key, err)
	}
	return models.Record{Key: key, Note: n}, nil
}
