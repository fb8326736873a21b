// Package noteservice exposes note operations to the HTTP, MCP and CLI
// front ends. Each call drives a fresh notes controller, so the service
// itself keeps no per-user state.
package noteservice

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/events"
	"github.com/starford/pocketnotes/internal/media"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/notes"
	"github.com/starford/pocketnotes/internal/storage"
)

// Service coordinates the store, the blob uploader and change events.
type Service struct {
	store    storage.Provider
	uploader media.Uploader
	pub      notes.Publisher
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a note service. pub may be nil when nobody listens for
// change events.
func New(store storage.Provider, uploader media.Uploader, pub notes.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, uploader: uploader, pub: pub, logger: logger, now: time.Now}
}

func (s *Service) controllerOptions(prompt notes.Prompt) []notes.Option {
	opts := []notes.Option{
		notes.WithPrompt(prompt),
		notes.WithLogger(s.logger),
		notes.WithClock(s.now),
	}
	if s.pub != nil {
		opts = append(opts, notes.WithPublisher(s.pub))
	}
	return opts
}

func (s *Service) headless(answer bool) notes.Prompt {
	return notes.AutoPrompt{Answer: answer, Logger: s.logger}
}

// List returns all notes, newest first, or the notes whose description
// contains filter, oldest first.
func (s *Service) List(ctx context.Context, filter string) ([]models.Note, error) {
	c := notes.NewListController(s.store, s.controllerOptions(s.headless(true))...)
	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	c.SetFilter(filter)
	return c.Displayed(), nil
}

// Get returns the note whose description is exactly description.
func (s *Service) Get(ctx context.Context, description string) (models.Note, error) {
	c := notes.NewEditController(s.store, s.uploader, s.controllerOptions(s.headless(true))...)
	if err := c.LoadByDescription(ctx, description); err != nil {
		return models.Note{}, err
	}
	n, ok := c.Current()
	if !ok {
		return models.Note{}, fmt.Errorf("note %q: %w", description, apperr.ErrNotFound)
	}
	return n, nil
}

// Update overwrites the stored note whose description matches n's,
// ignoring case and surrounding spaces.
func (s *Service) Update(ctx context.Context, n models.Note) (models.Note, error) {
	if err := n.Validate(); err != nil {
		return models.Note{}, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	c := notes.NewEditController(s.store, s.uploader, s.controllerOptions(s.headless(true))...)
	c.SetCurrent(n)
	if err := c.Save(ctx); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

// Create files a new note. A missing id or date is filled in. A note
// whose description matches an existing one, ignoring case and
// surrounding spaces, is rejected so later saves stay unambiguous.
func (s *Service) Create(ctx context.Context, n models.Note) (models.Note, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Date.IsZero() {
		n.Date = s.now().UTC()
	}
	if err := n.Validate(); err != nil {
		return models.Note{}, fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}

	recs, err := s.store.FetchAll(ctx)
	if err != nil {
		return models.Note{}, fmt.Errorf("create note: %w: %w", apperr.ErrStore, err)
	}
	want := strings.ToLower(strings.TrimSpace(n.Description))
	if slices.ContainsFunc(recs, func(r models.Record) bool {
		return strings.ToLower(strings.TrimSpace(r.Note.Description)) == want
	}) {
		return models.Note{}, fmt.Errorf("note %q: %w", n.Description, apperr.ErrAlreadyExists)
	}

	key, err := s.store.Push(ctx, n)
	if err != nil {
		return models.Note{}, fmt.Errorf("create note: %w: %w", apperr.ErrStore, err)
	}
	s.logger.Info("note created", slog.String("id", n.ID), slog.String("key", key))
	if s.pub != nil {
		s.pub.Publish(events.Event{Topic: events.NoteAdded, Note: n})
	}
	return n, nil
}

// Delete removes the note with the given id. confirmed answers the
// confirmation question; an unconfirmed delete changes nothing and
// reports a validation error.
func (s *Service) Delete(ctx context.Context, id string, confirmed bool) error {
	c := notes.NewListController(s.store, s.controllerOptions(s.headless(confirmed))...)
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	if !slices.ContainsFunc(c.Master(), func(n models.Note) bool { return n.ID == id }) {
		return fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}
	if err := c.DeleteByID(ctx, id); err != nil {
		return err
	}
	if !confirmed {
		return fmt.Errorf("delete note %s: %w: not confirmed", id, apperr.ErrValidation)
	}
	return nil
}

// AttachPhoto uploads data as the photo of the note named description
// and saves the note.
func (s *Service) AttachPhoto(ctx context.Context, description string, data []byte, filename string) (models.Note, error) {
	return s.attach(ctx, description, func(c *notes.EditController) error {
		return c.AttachPhoto(ctx, data, filename)
	})
}

// AttachAudio uploads data as the audio of the note named description
// and saves the note.
func (s *Service) AttachAudio(ctx context.Context, description string, data []byte, filename string) (models.Note, error) {
	return s.attach(ctx, description, func(c *notes.EditController) error {
		return c.AttachAudio(ctx, data, filename)
	})
}

func (s *Service) attach(ctx context.Context, description string, fn func(*notes.EditController) error) (models.Note, error) {
	c := notes.NewEditController(s.store, s.uploader, s.controllerOptions(s.headless(true))...)
	if err := c.LoadByDescription(ctx, description); err != nil {
		return models.Note{}, err
	}
	if _, ok := c.Current(); !ok {
		return models.Note{}, fmt.Errorf("note %q: %w", description, apperr.ErrNotFound)
	}
	if err := fn(c); err != nil {
		return models.Note{}, err
	}
	if err := c.Save(ctx); err != nil {
		return models.Note{}, err
	}
	n, _ := c.Current()
	return n, nil
}
