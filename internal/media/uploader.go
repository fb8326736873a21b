// Package media stores uploaded photo and audio blobs and hands back the
// public URL each blob is served from.
package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Folders blobs may be filed under.
const (
	PhotosFolder = "Photos"
	AudiosFolder = "Audios"
)

// RoutePrefix is the URL path the HTTP API serves blobs from.
const RoutePrefix = "/media/"

// Uploader stores a blob under key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, key string) (string, error)
}

// FS is an Uploader writing blobs below a local directory.
type FS struct {
	root      string
	publicURL string
}

var _ Uploader = (*FS)(nil)

// NewFS creates the blob root if needed. publicURL is the externally
// visible base of the HTTP server, e.g. "http://localhost:8080".
func NewFS(root, publicURL string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("media: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("media: create root: %w", err)
	}
	return &FS{root: abs, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Path validates key ("<folder>/<name>") and returns the absolute blob path.
func (f *FS) Path(key string) (string, error) {
	folder, name, ok := strings.Cut(key, "/")
	if !ok || (folder != PhotosFolder && folder != AudiosFolder) {
		return "", fmt.Errorf("media: invalid key: %s", key)
	}
	cleaned := filepath.Clean(name)
	if name == "" || cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return "", fmt.Errorf("media: invalid file name: %s", name)
	}
	return filepath.Join(f.root, folder, cleaned), nil
}

// URL returns the public URL of key.
func (f *FS) URL(key string) string {
	folder, name, _ := strings.Cut(key, "/")
	return f.publicURL + RoutePrefix + url.PathEscape(folder) + "/" + url.PathEscape(name)
}

// Upload writes data under key, replacing any previous blob.
func (f *FS) Upload(ctx context.Context, data []byte, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := f.Path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("media: create folder: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("media: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("media: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("media: close: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("media: rename: %w", err)
	}
	return f.URL(key), nil
}
