package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pocketnotes/internal/media"
	"github.com/starford/pocketnotes/internal/models"
	"github.com/starford/pocketnotes/internal/noteservice"
	"github.com/starford/pocketnotes/internal/storage"
)

// testEnv wires a temp FS store, a temp blob store, the service and a
// root router shaped like the one the server builds.
func testEnv(t *testing.T, opts RouterOptions) http.Handler {
	t.Helper()

	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	blobs, err := media.NewFS(t.TempDir(), "http://notes.test")
	if err != nil {
		t.Fatalf("media.NewFS: %v", err)
	}
	svc := noteservice.New(store, blobs, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Mount("/api", NewRouter(svc, opts))
	r.Get("/media/*", NewMediaHandler(blobs).ServeFile)
	return r
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func create(t *testing.T, h http.Handler, desc, date string) models.Note {
	t.Helper()
	body := map[string]string{"description": desc}
	if date != "" {
		body["date"] = date
	}
	w := do(t, h, http.MethodPost, "/api/notes", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[models.Note](t, w)
}

func TestCreateAndLookupNote(t *testing.T) {
	h := testEnv(t, RouterOptions{})

	n := create(t, h, "Shopping", "2024-03-02T10:00:00Z")
	if n.ID == "" {
		t.Error("expected generated id")
	}

	w := do(t, h, http.MethodGet, "/api/notes/lookup?description=Shopping", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup status = %d", w.Code)
	}
	got := decode[models.Note](t, w)
	if got.ID != n.ID || got.Description != "Shopping" {
		t.Errorf("lookup = %+v", got)
	}
}

func TestLookup_Errors(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	create(t, h, "Shopping", "")

	if w := do(t, h, http.MethodGet, "/api/notes/lookup", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing description status = %d", w.Code)
	}
	// Lookup is exact: case differences do not match.
	if w := do(t, h, http.MethodGet, "/api/notes/lookup?description=shopping", nil); w.Code != http.StatusNotFound {
		t.Errorf("case variant status = %d", w.Code)
	}
}

func TestCreateDuplicate(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	create(t, h, "Work plan", "")

	w := do(t, h, http.MethodPost, "/api/notes", map[string]string{"description": "WORK PLAN "})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", w.Code)
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	h := testEnv(t, RouterOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/notes", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d", w.Code)
	}

	if w := do(t, h, http.MethodPost, "/api/notes", map[string]string{"description": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("blank description status = %d", w.Code)
	}
}

func TestListNotes_OrderAndFilter(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	create(t, h, "Shopping", "2024-03-02T10:00:00Z")
	create(t, h, "Work plan", "2024-03-01T10:00:00Z")
	create(t, h, "Shop refund", "2024-03-05T10:00:00Z")

	w := do(t, h, http.MethodGet, "/api/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	all := decode[NoteListResponse](t, w)
	if all.Total != 3 {
		t.Fatalf("total = %d", all.Total)
	}
	if all.Notes[0].Description != "Shop refund" || all.Notes[2].Description != "Work plan" {
		t.Errorf("unfiltered order = %v", all.Notes)
	}

	w = do(t, h, http.MethodGet, "/api/notes?q=SHOP", nil)
	filtered := decode[NoteListResponse](t, w)
	if filtered.Total != 2 {
		t.Fatalf("filtered total = %d", filtered.Total)
	}
	// Filtered results are oldest first.
	if filtered.Notes[0].Description != "Shopping" || filtered.Notes[1].Description != "Shop refund" {
		t.Errorf("filtered order = %v", filtered.Notes)
	}
}

func TestListNotes_EmptyIsArray(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	w := do(t, h, http.MethodGet, "/api/notes", nil)
	if !strings.Contains(w.Body.String(), `"notes":[]`) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSaveNote(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	n := create(t, h, "Work plan", "2024-03-01T10:00:00Z")

	n.Description = " work PLAN"
	w := do(t, h, http.MethodPut, "/api/notes", n)
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d, body = %s", w.Code, w.Body.String())
	}

	all := decode[NoteListResponse](t, do(t, h, http.MethodGet, "/api/notes", nil))
	if all.Total != 1 || all.Notes[0].Description != " work PLAN" {
		t.Errorf("after save: %+v", all.Notes)
	}
}

func TestSaveNote_NoMatchDoesNotCreate(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	create(t, h, "Shopping", "")

	w := do(t, h, http.MethodPut, "/api/notes", models.Note{ID: "x", Description: "Other", Date: mustTime(t, "2024-01-01T00:00:00Z")})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	all := decode[NoteListResponse](t, do(t, h, http.MethodGet, "/api/notes", nil))
	if all.Total != 1 {
		t.Errorf("total = %d, want 1", all.Total)
	}
}

func TestDeleteNote(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	n := create(t, h, "Shopping", "")

	if w := do(t, h, http.MethodDelete, "/api/notes/"+n.ID, nil); w.Code != http.StatusBadRequest {
		t.Errorf("unconfirmed delete status = %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/api/notes/"+n.ID+"?confirm=true", nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/api/notes/"+n.ID+"?confirm=true", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func uploadFile(t *testing.T, h http.Handler, target, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestUploadPhotoAndServe(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	create(t, h, "Trip", "")

	w := uploadFile(t, h, "/api/notes/photo?description=Trip", "beach.jpg", []byte("jpegbytes"))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	n := decode[models.Note](t, w)
	prefix := "http://notes.test/media/Photos/"
	if !strings.HasPrefix(n.PhotoURL, prefix) || !strings.HasSuffix(n.PhotoURL, "beach.jpg") {
		t.Fatalf("photo url = %q", n.PhotoURL)
	}

	// The saved note carries the URL.
	got := decode[models.Note](t, do(t, h, http.MethodGet, "/api/notes/lookup?description=Trip", nil))
	if got.PhotoURL != n.PhotoURL {
		t.Errorf("stored photo url = %q", got.PhotoURL)
	}

	w = do(t, h, http.MethodGet, strings.TrimPrefix(n.PhotoURL, "http://notes.test"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("serve status = %d", w.Code)
	}
	if w.Body.String() != "jpegbytes" {
		t.Errorf("served body = %q", w.Body.String())
	}
}

func TestUploadAudio(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	create(t, h, "Trip", "")

	w := uploadFile(t, h, "/api/notes/audio?description=Trip", "memo.mp3", []byte("ID3"))
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body = %s", w.Code, w.Body.String())
	}
	n := decode[models.Note](t, w)
	if !strings.Contains(n.AudioURL, "/media/Audios/") {
		t.Errorf("audio url = %q", n.AudioURL)
	}
}

func TestUpload_Errors(t *testing.T) {
	h := testEnv(t, RouterOptions{})
	create(t, h, "Trip", "")

	if w := uploadFile(t, h, "/api/notes/photo", "a.jpg", []byte("x")); w.Code != http.StatusBadRequest {
		t.Errorf("missing description status = %d", w.Code)
	}
	if w := uploadFile(t, h, "/api/notes/photo?description=Nope", "a.jpg", []byte("x")); w.Code != http.StatusNotFound {
		t.Errorf("unknown note status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/notes/photo?description=Trip", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-multipart status = %d", w.Code)
	}
}

func TestServeMedia_NotFoundAndTraversal(t *testing.T) {
	h := testEnv(t, RouterOptions{})

	if w := do(t, h, http.MethodGet, "/media/Photos/missing.jpg", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing blob status = %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/media/Photos/..%2F..%2Fetc%2Fpasswd", nil); w.Code != http.StatusBadRequest {
		t.Errorf("traversal status = %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/media/Other/a.jpg", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown folder status = %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := testEnv(t, RouterOptions{RateLimitRPS: 0.001, RateLimitBurst: 1})

	if w := do(t, h, http.MethodGet, "/api/notes", nil); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/api/notes", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", w.Code)
	}
}

func TestCORS(t *testing.T) {
	h := testEnv(t, RouterOptions{CORSOrigins: []string{" http://app.test ", ""}})

	req := httptest.NewRequest(http.MethodOptions, "/api/notes", nil)
	req.Header.Set("Origin", "http://app.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://app.test" {
		t.Errorf("allowed origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func mustTime(t *testing.T, s string) (tm time.Time) {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	return tm
}
