// Package models defines the domain types for pocketnotes.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxDescriptionLength bounds Note.Description.
const MaxDescriptionLength = 500

// Note is one user-authored note with optional media attachments.
type Note struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	AudioURL    string    `json:"audio_url,omitempty"`
}

// Validate checks the fields a note must carry before it is written.
func (n Note) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.ID, validation.Required),
		validation.Field(&n.Description, validation.Required, validation.Length(1, MaxDescriptionLength)),
		validation.Field(&n.Date, validation.Required),
		validation.Field(&n.PhotoURL, is.URL),
		validation.Field(&n.AudioURL, is.URL),
	)
}

// Record pairs a note with the opaque key the store filed it under.
// The key is unrelated to Note.ID.
type Record struct {
	Key  string `json:"key"`
	Note Note   `json:"note"`
}
