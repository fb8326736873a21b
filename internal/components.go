package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/starford/pocketnotes/internal/events"
	"github.com/starford/pocketnotes/internal/media"
	"github.com/starford/pocketnotes/internal/noteservice"
	"github.com/starford/pocketnotes/internal/storage"
)

// Components are the long-lived collaborators shared by the HTTP server,
// the MCP server and the CLI commands.
type Components struct {
	Config  *Config
	Logger  *slog.Logger
	Store   storage.Provider
	Media   *media.FS
	Bus     *events.Bus
	Service *noteservice.Service

	closers []io.Closer
}

// Open builds the configured store, the blob store, the event bus and the
// note service. Close releases them.
func Open(ctx context.Context, cfg *Config, logger *slog.Logger) (*Components, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Components{Config: cfg, Logger: logger}

	store, closer, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	c.Store = store
	if closer != nil {
		c.closers = append(c.closers, closer)
	}

	c.Media, err = media.NewFS(cfg.Media.Path, cfg.Media.PublicURL)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init media: %w", err)
	}

	c.Bus = events.NewBus(logger)
	c.Service = noteservice.New(c.Store, c.Media, c.Bus, logger)
	return c, nil
}

func openStore(ctx context.Context, cfg StoreConfig) (storage.Provider, io.Closer, error) {
	switch cfg.Backend {
	case BackendFS:
		if err := os.MkdirAll(cfg.FS.Path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create store dir: %w", err)
		}
		fs, err := storage.NewFS(cfg.FS.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init storage: %w", err)
		}
		return fs, nil, nil

	case BackendSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		db, err := storage.OpenSQLite(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("init storage: %w", err)
		}
		return db, db, nil

	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rs := storage.NewRedis(client, cfg.Redis.Key)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("init storage: %w", err)
		}
		return rs, rs, nil

	case BackendMemory:
		return storage.NewMemory(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// WatchStore publishes events.NoteChanged for record documents changed by
// other writers until ctx is cancelled. Only the fs backend can be
// watched; for the others it returns immediately.
func (c *Components) WatchStore(ctx context.Context) error {
	fs, ok := c.Store.(*storage.FS)
	if !ok {
		return nil
	}
	return storage.Watch(ctx, fs.Root(), c.Logger, func(kind, key string) {
		c.Bus.Publish(events.Event{
			Topic: events.NoteChanged,
			Key:   key,
			Kind:  kind,
		})
	})
}

// Close stops the bus and closes the store.
func (c *Components) Close() error {
	if c.Bus != nil {
		c.Bus.Close()
	}
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
