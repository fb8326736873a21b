package storage

import (
	"context"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/starford/pocketnotes/internal/models"
)

// Redis implements Provider on a single Redis hash. Each field is a key
// and each value is the JSON document of a note.
type Redis struct {
	client *redis.Client
	hash   string
}

var _ Provider = (*Redis)(nil)

// NewRedis wraps an existing client. hash names the Redis hash holding
// the collection.
func NewRedis(client *redis.Client, hash string) *Redis {
	if hash == "" {
		hash = "pocketnotes:notes"
	}
	return &Redis{client: client, hash: hash}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("storage: redis ping: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) FetchAll(ctx context.Context) ([]models.Record, error) {
	fields, err := r.client.HGetAll(ctx, r.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("storage: hgetall %s: %w", r.hash, err)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]models.Record, 0, len(keys))
	for _, k := range keys {
		rec, err := decodeRecord(k, []byte(fields[k]))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Redis) Put(ctx context.Context, key string, n models.Note) error {
	if key == "" {
		return fmt.Errorf("storage: empty key")
	}
	doc, err := encodeNote(n)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.hash, key, doc).Err(); err != nil {
		return fmt.Errorf("storage: hset %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.HDel(ctx, r.hash, key).Err(); err != nil {
		return fmt.Errorf("storage: hdel %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Push(ctx context.Context, n models.Note) (string, error) {
	key := NewKey()
	if err := r.Put(ctx, key, n); err != nil {
		return "", err
	}
	return key, nil
}
