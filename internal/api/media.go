package api

import (
	"net/http"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pocketnotes/internal/media"
)

// MediaHandler serves uploaded blobs.
type MediaHandler struct {
	fs *media.FS
}

// NewMediaHandler creates a handler over the blob store.
func NewMediaHandler(fs *media.FS) *MediaHandler {
	return &MediaHandler{fs: fs}
}

// ServeFile handles GET /media/{folder}/{name}.
func (h *MediaHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	key, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, "invalid path", http.StatusBadRequest)
		return
	}
	abs, err := h.fs.Path(key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if info, statErr := os.Stat(abs); statErr != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
