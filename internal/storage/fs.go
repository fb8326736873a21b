package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/pocketnotes/internal/models"
)

const (
	docExt    = ".json"
	tmpPrefix = ".pocketnotes-tmp-"
)

// FS implements Provider with one JSON document per key in a directory.
type FS struct {
	root string // absolute path to the collection directory
}

var _ Provider = (*FS)(nil)

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute collection directory.
func (f *FS) Root() string {
	return f.root
}

// docPath maps a key to its document path, rejecting anything that is
// not a plain file name.
func (f *FS) docPath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage: empty key")
	}
	if key != filepath.Base(key) || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("storage: invalid key: %s", key)
	}
	return filepath.Join(f.root, key+docExt), nil
}

// keyFromName returns the key for a directory entry name, or "" when the
// entry is not a record document.
func keyFromName(name string) string {
	if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, docExt) {
		return ""
	}
	return strings.TrimSuffix(name, docExt)
}

// FetchAll reads every document in the collection directory.
func (f *FS) FetchAll(ctx context.Context) ([]models.Record, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	out := make([]models.Record, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		key := keyFromName(e.Name())
		if key == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("storage: read %s: %w", key, err)
		}
		rec, err := decodeRecord(key, data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Put atomically writes the document: tmp file → fsync → rename.
func (f *FS) Put(_ context.Context, key string, n models.Note) error {
	abs, err := f.docPath(key)
	if err != nil {
		return err
	}
	content, err := encodeNote(n)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Delete removes the document stored at key. Deleting a missing key is
// not an error.
func (f *FS) Delete(_ context.Context, key string) error {
	abs, err := f.docPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// Push writes n under a new key.
func (f *FS) Push(ctx context.Context, n models.Note) (string, error) {
	key := NewKey()
	if err := f.Put(ctx, key, n); err != nil {
		return "", err
	}
	return key, nil
}
