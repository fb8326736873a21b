package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/starford/pocketnotes/internal/models"
)

func newProviders(t *testing.T) map[string]Provider {
	t.Helper()

	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := NewRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { rdb.Close() })

	return map[string]Provider{
		"fs":     fs,
		"sqlite": db,
		"redis":  rdb,
		"memory": NewMemory(),
	}
}

func sampleNote(id, desc string) models.Note {
	return models.Note{
		ID:          id,
		Description: desc,
		Date:        time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestProviders_PushAndFetchAll(t *testing.T) {
	for name, p := range newProviders(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			k1, err := p.Push(ctx, sampleNote("1", "Milk"))
			if err != nil {
				t.Fatalf("Push: %v", err)
			}
			k2, err := p.Push(ctx, sampleNote("2", "Eggs"))
			if err != nil {
				t.Fatalf("Push: %v", err)
			}
			if k1 == k2 {
				t.Fatalf("keys must differ, both %q", k1)
			}

			recs, err := p.FetchAll(ctx)
			if err != nil {
				t.Fatalf("FetchAll: %v", err)
			}
			if len(recs) != 2 {
				t.Fatalf("got %d records, want 2", len(recs))
			}
			// Keys are time-ordered, so key order is push order.
			if recs[0].Key != k1 || recs[1].Key != k2 {
				t.Errorf("order = [%s %s], want [%s %s]", recs[0].Key, recs[1].Key, k1, k2)
			}
			if recs[0].Note.Description != "Milk" || !recs[0].Note.Date.Equal(sampleNote("", "").Date) {
				t.Errorf("record 0 = %+v", recs[0].Note)
			}
		})
	}
}

func TestProviders_PutReplacesWholeRecord(t *testing.T) {
	for name, p := range newProviders(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			n := sampleNote("1", "Milk")
			n.PhotoURL = "http://x/p.jpg"
			key, err := p.Push(ctx, n)
			if err != nil {
				t.Fatalf("Push: %v", err)
			}

			if err := p.Put(ctx, key, sampleNote("1", "Oat milk")); err != nil {
				t.Fatalf("Put: %v", err)
			}
			recs, err := p.FetchAll(ctx)
			if err != nil {
				t.Fatalf("FetchAll: %v", err)
			}
			if len(recs) != 1 {
				t.Fatalf("got %d records, want 1", len(recs))
			}
			got := recs[0].Note
			if got.Description != "Oat milk" {
				t.Errorf("description = %q", got.Description)
			}
			if got.PhotoURL != "" {
				t.Errorf("photo url should be cleared by full replace, got %q", got.PhotoURL)
			}
		})
	}
}

func TestProviders_Delete(t *testing.T) {
	for name, p := range newProviders(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key, err := p.Push(ctx, sampleNote("1", "Milk"))
			if err != nil {
				t.Fatalf("Push: %v", err)
			}
			if err := p.Delete(ctx, key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			recs, err := p.FetchAll(ctx)
			if err != nil {
				t.Fatalf("FetchAll: %v", err)
			}
			if len(recs) != 0 {
				t.Errorf("got %d records after delete", len(recs))
			}
			if err := p.Delete(ctx, key); err != nil {
				t.Errorf("deleting a missing key: %v", err)
			}
		})
	}
}

func TestFS_RejectsTraversalKeys(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		if err := fs.Put(context.Background(), key, sampleNote("1", "x")); err == nil {
			t.Errorf("Put(%q) should fail", key)
		}
	}
}

func TestFS_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fs.Push(context.Background(), sampleNote("1", "Milk")); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "README.txt"), "not a record")
	writeFile(t, filepath.Join(dir, tmpPrefix+"123"), "{}")

	recs, err := fs.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("got %d records, want 1", len(recs))
	}
}

func TestNewFS_RejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	writeFile(t, f, "x")
	if _, err := NewFS(f); err == nil {
		t.Error("expected error for non-directory root")
	}
}
