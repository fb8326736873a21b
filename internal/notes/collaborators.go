// Package notes holds the two stateful controllers behind every note
// screen: ListController keeps the full and filtered note lists and
// deletes by id, EditController loads, saves and attaches media to a
// single note.
//
// Controllers talk to the outside world only through the collaborators
// declared here and in the storage, media and events packages. Every
// failed operation is reported through Prompt.Alert and returned as an
// error wrapping one of the apperr sentinels; in-memory state is only
// touched after the remote call succeeded.
package notes

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/pocketnotes/internal/events"
)

// Prompt asks the user questions and shows them errors.
type Prompt interface {
	Confirm(ctx context.Context, message string) (bool, error)
	Alert(ctx context.Context, title, message string)
}

// Navigator moves between screens. Route names are RouteNew and RouteEdit.
type Navigator interface {
	GoBack(ctx context.Context) error
	GoTo(ctx context.Context, route string, params map[string]string) error
}

// Publisher emits change notifications.
type Publisher interface {
	Publish(ev events.Event)
}

// Subscriber registers for change notifications.
type Subscriber interface {
	Subscribe(topic string, h events.Handler) func()
}

// Routes understood by Navigator implementations.
const (
	RouteNew  = "new"
	RouteEdit = "edit"
)

// AutoPrompt answers every confirmation with Answer and logs alerts
// instead of showing them. It suits non-interactive callers.
type AutoPrompt struct {
	Answer bool
	Logger *slog.Logger
}

func (p AutoPrompt) Confirm(context.Context, string) (bool, error) {
	return p.Answer, nil
}

func (p AutoPrompt) Alert(_ context.Context, title, message string) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("notes: alert", slog.String("title", title), slog.String("message", message))
}

type nopNavigator struct{}

func (nopNavigator) GoBack(context.Context) error                         { return nil }
func (nopNavigator) GoTo(context.Context, string, map[string]string) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}

type options struct {
	prompt Prompt
	nav    Navigator
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a controller.
type Option func(*options)

// WithPrompt sets the confirmation and alert collaborator.
func WithPrompt(p Prompt) Option {
	return func(o *options) { o.prompt = p }
}

// WithNavigator sets the navigation collaborator.
func WithNavigator(n Navigator) Option {
	return func(o *options) { o.nav = n }
}

// WithPublisher sets where change notifications go.
func WithPublisher(p Publisher) Option {
	return func(o *options) { o.pub = p }
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock overrides the time source used to name uploads.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) options {
	o := options{
		nav:    nopNavigator{},
		pub:    nopPublisher{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.prompt == nil {
		o.prompt = AutoPrompt{Answer: true, Logger: o.logger}
	}
	return o
}

// fail logs err, shows it to the user and hands it back.
func (o options) fail(ctx context.Context, op, message string, err error) error {
	o.logger.Warn("notes: "+op+" failed", slog.String("error", err.Error()))
	o.prompt.Alert(ctx, "Error", message)
	return err
}
