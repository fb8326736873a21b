package notes

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/events"
	"github.com/starford/pocketnotes/internal/media"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/storage"
)

// uploadStamp is the timestamp prefix of upload keys: day, month,
// two-digit year, then 12-hour clock hours, minutes and seconds.
const uploadStamp = "020106030405"

// EditController holds the single note being edited.
type EditController struct {
	store    storage.Provider
	uploader media.Uploader
	opts     options

	mu        sync.Mutex
	current   *models.Note
	observers []func(models.Note)
}

// NewEditController creates a controller with no current note.
func NewEditController(store storage.Provider, uploader media.Uploader, opts ...Option) *EditController {
	return &EditController{store: store, uploader: uploader, opts: newOptions(opts)}
}

// OnChange registers fn to receive the current note after every change.
func (c *EditController) OnChange(fn func(models.Note)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Current returns the note being edited and whether one is set.
func (c *EditController) Current() (models.Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return models.Note{}, false
	}
	return *c.current, true
}

// SetCurrent replaces the note being edited, e.g. after the user changed
// its fields or when a freshly created note is handed over.
func (c *EditController) SetCurrent(n models.Note) {
	c.mu.Lock()
	c.current = &n
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
}

func (c *EditController) changedLocked() func() {
	if c.current == nil {
		return func() {}
	}
	observers := slices.Clone(c.observers)
	n := *c.current
	return func() {
		for _, fn := range observers {
			fn(n)
		}
	}
}

// LoadByDescription makes the first note whose description equals name
// exactly the current note. When nothing matches the current note is left
// as it was and no error is reported.
func (c *EditController) LoadByDescription(ctx context.Context, name string) error {
	recs, err := c.store.FetchAll(ctx)
	if err != nil {
		err = fmt.Errorf("load note %q: %w: %w", name, apperr.ErrStore, err)
		return c.opts.fail(ctx, "load", "An error occurred: "+err.Error(), err)
	}
	for _, r := range recs {
		if r.Note.Description == name {
			c.SetCurrent(r.Note)
			return nil
		}
	}
	c.opts.logger.Debug("notes: no note with description", slog.String("description", name))
	return nil
}

// Save overwrites the stored note whose description matches the current
// one, ignoring case and surrounding spaces. It never creates a record:
// without a match it fails with apperr.ErrNotFound.
func (c *EditController) Save(ctx context.Context) error {
	cur, ok := c.Current()
	if !ok {
		err := fmt.Errorf("save note: %w: no current note", apperr.ErrValidation)
		return c.opts.fail(ctx, "save", "The note is empty", err)
	}

	recs, err := c.store.FetchAll(ctx)
	if err != nil {
		err = fmt.Errorf("save note: %w: %w", apperr.ErrStore, err)
		return c.opts.fail(ctx, "save", "An error occurred: "+err.Error(), err)
	}

	want := normalize(cur.Description)
	idx := slices.IndexFunc(recs, func(r models.Record) bool {
		return normalize(r.Note.Description) == want
	})
	if idx < 0 {
		err := fmt.Errorf("save note %q: %w", cur.Description, apperr.ErrNotFound)
		return c.opts.fail(ctx, "save", "Note not found in the database", err)
	}

	key := recs[idx].Key
	if err := c.store.Put(ctx, key, cur); err != nil {
		err = fmt.Errorf("save note: %w: %w", apperr.ErrStore, err)
		return c.opts.fail(ctx, "save", "An error occurred: "+err.Error(), err)
	}
	c.opts.logger.Debug("notes: saved", slog.String("id", cur.ID), slog.String("key", key))

	c.opts.pub.Publish(events.Event{Topic: events.NoteUpdated, Note: cur})
	if err := c.opts.nav.GoBack(ctx); err != nil {
		return fmt.Errorf("navigate back: %w", err)
	}
	return nil
}

// Cancel leaves the edit screen without saving.
func (c *EditController) Cancel(ctx context.Context) error {
	return c.opts.nav.GoBack(ctx)
}

// AttachPhoto uploads data under Photos/ and points the current note's
// PhotoURL at it. The note is only changed once the upload succeeded.
func (c *EditController) AttachPhoto(ctx context.Context, data []byte, filename string) error {
	return c.attach(ctx, media.PhotosFolder, data, filename, func(n *models.Note, url string) {
		n.PhotoURL = url
	})
}

// AttachAudio uploads data under Audios/ and points the current note's
// AudioURL at it.
func (c *EditController) AttachAudio(ctx context.Context, data []byte, filename string) error {
	return c.attach(ctx, media.AudiosFolder, data, filename, func(n *models.Note, url string) {
		n.AudioURL = url
	})
}

func (c *EditController) attach(ctx context.Context, folder string, data []byte, filename string, set func(*models.Note, string)) error {
	if _, ok := c.Current(); !ok {
		err := fmt.Errorf("attach %s: %w: no current note", strings.ToLower(folder), apperr.ErrValidation)
		return c.opts.fail(ctx, "attach", "The note is empty", err)
	}

	key := folder + "/" + c.opts.now().Format(uploadStamp) + media.SanitizeFilename(filename)
	url, err := c.uploader.Upload(ctx, data, key)
	if err != nil {
		err = fmt.Errorf("attach %s: %w: %w", strings.ToLower(folder), apperr.ErrUpload, err)
		return c.opts.fail(ctx, "attach", "An error occurred while uploading the file: "+err.Error(), err)
	}

	c.mu.Lock()
	if c.current != nil {
		set(c.current, url)
	}
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	c.opts.logger.Debug("notes: attached", slog.String("key", key), slog.String("url", url))
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
