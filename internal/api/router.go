package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pocketnotes/internal/noteservice"
)

// RouterOptions tunes the API router.
type RouterOptions struct {
	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string
	// RateLimitRPS enables request rate limiting when positive.
	RateLimitRPS   float64
	RateLimitBurst int
	// Events, if non-nil, is mounted at GET /events.
	Events http.Handler
	// Stream, if non-nil, is mounted at GET /ws.
	Stream http.Handler
}

// NewRouter creates a chi router with all API routes mounted. It is meant
// to be mounted under /api.
func NewRouter(svc *noteservice.Service, opts RouterOptions) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	if len(opts.CORSOrigins) > 0 {
		r.Use(CORS(opts.CORSOrigins))
	}
	if opts.RateLimitRPS > 0 {
		r.Use(RateLimit(opts.RateLimitRPS, opts.RateLimitBurst))
	}

	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Put("/notes", h.SaveNote)
	r.Get("/notes/lookup", h.LookupNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Media attachments.
	r.Post("/notes/photo", h.AttachPhoto)
	r.Post("/notes/audio", h.AttachAudio)

	if opts.Events != nil {
		r.Get("/events", opts.Events.ServeHTTP)
	}
	if opts.Stream != nil {
		r.Get("/ws", opts.Stream.ServeHTTP)
	}

	return r
}
