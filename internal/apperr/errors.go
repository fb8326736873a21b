// Package apperr holds the error categories shared by every layer.
// Boundary failures wrap both the category and the cause, so callers
// match with errors.Is and still see the underlying message.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrStore         = errors.New("store failure")
	ErrUpload        = errors.New("upload failure")
)
