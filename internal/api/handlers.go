package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pocketnotes/internal/apperr"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/noteservice"
)

const (
	maxBodyBytes   = 1 << 20  // 1 MB
	maxUploadBytes = 50 << 20 // 50 MB
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, optionally filtered by description
//	@Tags			notes
//	@Produce		json
//	@Param			q	query		string	false	"Case-insensitive description filter"
//	@Success		200	{object}	NoteListResponse
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	if list == nil {
		list = []models.Note{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: list, Total: len(list)})
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.svc.Create(r.Context(), req.note())
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// SaveNote handles PUT /api/notes.
//
//	@Summary		Overwrite the note with a matching description
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SaveNoteRequest	true	"Full note"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/notes [put]
func (h *Handler) SaveNote(w http.ResponseWriter, r *http.Request) {
	var req SaveNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	n, err := h.svc.Update(r.Context(), req)
	if err != nil {
		writeError(w, "save note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// LookupNote handles GET /api/notes/lookup?description=.
//
//	@Summary		Get the note whose description matches exactly
//	@Tags			notes
//	@Produce		json
//	@Param			description	query		string	true	"Exact description"
//	@Success		200			{object}	models.Note
//	@Failure		404			{object}	errResponse
//	@Router			/notes/lookup [get]
func (h *Handler) LookupNote(w http.ResponseWriter, r *http.Request) {
	desc := r.URL.Query().Get("description")
	if desc == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("description is required"))
		return
	}
	n, err := h.svc.Get(r.Context(), desc)
	if err != nil {
		writeError(w, "lookup note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /api/notes/{id}?confirm=true.
//
//	@Summary		Delete a note by id
//	@Tags			notes
//	@Param			id		path	string	true	"Note id"
//	@Param			confirm	query	bool	true	"Must be true"
//	@Success		204
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.svc.Delete(r.Context(), id, confirmed); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AttachPhoto handles POST /api/notes/photo?description= (multipart, field "file").
func (h *Handler) AttachPhoto(w http.ResponseWriter, r *http.Request) {
	h.attach(w, r, h.svc.AttachPhoto)
}

// AttachAudio handles POST /api/notes/audio?description= (multipart, field "file").
func (h *Handler) AttachAudio(w http.ResponseWriter, r *http.Request) {
	h.attach(w, r, h.svc.AttachAudio)
}

type attachFunc func(ctx context.Context, description string, data []byte, filename string) (models.Note, error)

func (h *Handler) attach(w http.ResponseWriter, r *http.Request, fn attachFunc) {
	desc := r.URL.Query().Get("description")
	if desc == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("description is required"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	n, err := fn(r.Context(), desc, data, header.Filename)
	if err != nil {
		writeError(w, "attach media", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "decode body", fmt.Errorf("%w: invalid JSON body: %w", apperr.ErrValidation, err))
		return false
	}
	return true
}
