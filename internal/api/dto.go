package api

import (
	"time"

	"github.com/starford/pocketnotes/internal/models"
)

// CreateNoteRequest is the request body for creating a note. Missing id
// and date are filled in by the server.
type CreateNoteRequest struct {
	ID          string     `json:"id,omitempty"`
	Description string     `json:"description" example:"Shopping" validate:"required"`
	Date        *time.Time `json:"date,omitempty"`
}

func (r CreateNoteRequest) note() models.Note {
	n := models.Note{ID: r.ID, Description: r.Description}
	if r.Date != nil {
		n.Date = *r.Date
	}
	return n
}

// SaveNoteRequest is the full note written by PUT /api/notes. It replaces
// the stored note whose description matches, ignoring case and
// surrounding spaces.
type SaveNoteRequest = models.Note

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}
