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
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/storage"
)

const confirmDeleteMessage = "Are you sure you want to delete this note?"

// ListController owns the in-memory view of every note.
//
// master holds all notes newest first. displayed is master with the
// active filter applied; a non-blank filter orders its matches oldest
// first.
type ListController struct {
	store storage.Provider
	opts  options

	mu        sync.Mutex
	master    []models.Note
	displayed []models.Note
	filter    string
	observers []func([]models.Note)
}

// NewListController creates an empty controller. Call Refresh to load it.
func NewListController(store storage.Provider, opts ...Option) *ListController {
	return &ListController{store: store, opts: newOptions(opts)}
}

// OnChange registers fn to receive a copy of the displayed list after
// every change.
func (c *ListController) OnChange(fn func([]models.Note)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Displayed returns a copy of the displayed list.
func (c *ListController) Displayed() []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.displayed)
}

// Master returns a copy of the unfiltered list.
func (c *ListController) Master() []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.master)
}

// Filter returns the active filter text.
func (c *ListController) Filter() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Refresh reloads every note from the store.
func (c *ListController) Refresh(ctx context.Context) error {
	recs, err := c.store.FetchAll(ctx)
	if err != nil {
		err = fmt.Errorf("refresh notes: %w: %w", apperr.ErrStore, err)
		return c.opts.fail(ctx, "refresh", "An error occurred: "+err.Error(), err)
	}

	master := make([]models.Note, 0, len(recs))
	for _, r := range recs {
		master = append(master, r.Note)
	}
	slices.SortStableFunc(master, func(a, b models.Note) int {
		return b.Date.Compare(a.Date)
	})

	c.mu.Lock()
	c.master = master
	c.applyFilterLocked()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	c.opts.logger.Debug("notes: refreshed", slog.Int("count", len(master)))
	return nil
}

// SetFilter stores text and rebuilds the displayed list from master.
func (c *ListController) SetFilter(text string) {
	c.mu.Lock()
	c.filter = text
	c.applyFilterLocked()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
}

func (c *ListController) applyFilterLocked() {
	if strings.TrimSpace(c.filter) == "" {
		c.displayed = slices.Clone(c.master)
		return
	}
	needle := strings.ToLower(c.filter)
	out := make([]models.Note, 0, len(c.master))
	for _, n := range c.master {
		if strings.Contains(strings.ToLower(n.Description), needle) {
			out = append(out, n)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Note) int {
		return a.Date.Compare(b.Date)
	})
	c.displayed = out
}

// changedLocked captures the observers and displayed list under the lock
// and returns a function that notifies them once the lock is released.
func (c *ListController) changedLocked() func() {
	observers := slices.Clone(c.observers)
	list := slices.Clone(c.displayed)
	return func() {
		for _, fn := range observers {
			fn(slices.Clone(list))
		}
	}
}

// DeleteByID asks for confirmation and removes the note with the given
// domain id from the store and from both lists. An id that is not in
// master, or whose record is no longer in the store, leaves everything
// unchanged.
func (c *ListController) DeleteByID(ctx context.Context, id string) error {
	ok, err := c.opts.prompt.Confirm(ctx, confirmDeleteMessage)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		return nil
	}

	c.mu.Lock()
	i := indexByID(c.master, id)
	c.mu.Unlock()
	if i < 0 {
		return nil
	}

	recs, err := c.store.FetchAll(ctx)
	if err != nil {
		err = fmt.Errorf("delete note %s: %w: %w", id, apperr.ErrStore, err)
		return c.opts.fail(ctx, "delete", "An error occurred: "+err.Error(), err)
	}
	key, found := keyByID(recs, id)
	if !found {
		c.opts.logger.Warn("notes: delete target missing from store", slog.String("id", id))
		return nil
	}
	if err := c.store.Delete(ctx, key); err != nil {
		err = fmt.Errorf("delete note %s: %w: %w", id, apperr.ErrStore, err)
		return c.opts.fail(ctx, "delete", "An error occurred: "+err.Error(), err)
	}

	c.mu.Lock()
	var removed models.Note
	if i := indexByID(c.master, id); i >= 0 {
		removed = c.master[i]
		c.master = slices.Delete(c.master, i, i+1)
	}
	if i := indexByID(c.displayed, id); i >= 0 {
		c.displayed = slices.Delete(c.displayed, i, i+1)
	}
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	c.opts.logger.Debug("notes: deleted", slog.String("id", id), slog.String("key", key))
	c.opts.pub.Publish(events.Event{Topic: events.NoteDeleted, Note: removed})
	return nil
}

// New navigates to the note creation screen.
func (c *ListController) New(ctx context.Context) error {
	return c.opts.nav.GoTo(ctx, RouteNew, nil)
}

// Edit navigates to the edit screen for n, identified by description.
func (c *ListController) Edit(ctx context.Context, n models.Note) error {
	return c.opts.nav.GoTo(ctx, RouteEdit, map[string]string{"name": n.Description})
}

// Follow refreshes the controller whenever a note is added, updated,
// deleted or changed by another writer. The returned function stops
// following.
func (c *ListController) Follow(ctx context.Context, sub Subscriber) func() {
	refresh := func(ev events.Event) {
		if ctx.Err() != nil {
			return
		}
		// Failures are already alerted and logged.
		_ = c.Refresh(ctx)
	}
	unsubs := []func(){
		sub.Subscribe(events.NoteAdded, refresh),
		sub.Subscribe(events.NoteUpdated, refresh),
		sub.Subscribe(events.NoteDeleted, refresh),
		sub.Subscribe(events.NoteChanged, refresh),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func indexByID(list []models.Note, id string) int {
	return slices.IndexFunc(list, func(n models.Note) bool { return n.ID == id })
}

func keyByID(recs []models.Record, id string) (string, bool) {
	for _, r := range recs {
		if r.Note.ID == id {
			return r.Key, true
		}
	}
	return "", false
}
