package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"media-thumbnailer/internal/middleware"
	"media-thumbnailer/internal/thumbnail"
	"media-thumbnailer/internal/workers"

	"github.com/gorilla/mux"
)

type fakeService struct {
	result *thumbnail.Result
	err    error
	wait   bool
	got    thumbnail.Request
}

func (s *fakeService) Generate(ctx context.Context, req thumbnail.Request) (*thumbnail.Result, error) {
	s.got = req
	if s.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.result, s.err
}

// solidProvider returns a uniformly colored frame of the configured size.
type solidProvider struct {
	w, h int
}

func (p solidProvider) Fetch(_ context.Context, _ thumbnail.FrameRequest) (*thumbnail.DecodedFrame, error) {
	img := image.NewRGBA(image.Rect(0, 0, p.w, p.h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 200, A: 255}}, image.Point{}, draw.Src)
	return thumbnail.NewDecodedFrame(img, nil), nil
}

func testRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/thumbnails", h.GenerateThumbnail).Methods(http.MethodPost)
	r.HandleFunc("/thumbnails/{kind}/{name}", h.GetThumbnail).Methods(http.MethodGet, http.MethodHead)
	return r
}

func postThumbnail(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/thumbnails", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error
}

func TestGenerateThumbnailSuccess(t *testing.T) {
	t.Parallel()

	svc := &fakeService{result: &thumbnail.Result{Data: "/tmp/thumb.jpeg", Width: 100, Height: 50}}
	h := newTestHandlers(t, svc)

	w := postThumbnail(t, testRouter(h), `{"sourceRef":"/media/a.jpg","width":100,"height":50,"mediaKind":"photo"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %q)", w.Code, w.Body.String())
	}
	var res thumbnail.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if res != *svc.result {
		t.Errorf("result = %+v, want %+v", res, *svc.result)
	}
	if svc.got.SourceRef != "/media/a.jpg" || svc.got.MediaKind != thumbnail.MediaPhoto {
		t.Errorf("service received %+v", svc.got)
	}
}

func TestGenerateThumbnailErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"invalid", thumbnail.NewError(thumbnail.InvalidParameters, "bad", nil), http.StatusBadRequest, "InvalidParameters"},
		{"unsupported", thumbnail.NewError(thumbnail.UnsupportedSource, "Cannot support remote photos", nil), http.StatusUnprocessableEntity, "UnsupportedSource"},
		{"missing", thumbnail.NewError(thumbnail.SourceUnavailable, "File doesn't exist", nil), http.StatusNotFound, "SourceUnavailable"},
		{"decode", thumbnail.NewError(thumbnail.DecodeFailed, "corrupt", nil), http.StatusUnprocessableEntity, "DecodeFailed"},
		{"persist", thumbnail.NewError(thumbnail.PersistFailed, "disk full", nil), http.StatusInternalServerError, "PersistFailed"},
		{"untagged", errors.New("boom"), http.StatusUnprocessableEntity, "DecodeFailed"},
		{"pool closed", workers.ErrPoolClosed, http.StatusServiceUnavailable, "Unavailable"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newTestHandlers(t, &fakeService{err: tt.err})

			w := postThumbnail(t, testRouter(h), `{"sourceRef":"/a.jpg","width":10,"height":10,"mediaKind":"photo"}`)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			body := decodeError(t, w)
			if body.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", body.Kind, tt.wantKind)
			}
			if body.Code == "" || body.Message == "" {
				t.Errorf("incomplete error body %+v", body)
			}
		})
	}
}

func TestGenerateThumbnailLogsErrorKind(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	h := newTestHandlers(t, &fakeService{err: thumbnail.NewError(thumbnail.SourceUnavailable, "File doesn't exist", nil)})
	handler := middleware.Logger(middleware.DefaultLoggingConfig())(testRouter(h))

	w := postThumbnail(t, handler, `{"sourceRef":"/gone.jpg","width":10,"height":10,"mediaKind":"photo"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(buf.String(), " 404 ") || !strings.Contains(buf.String(), " SourceUnavailable ") {
		t.Errorf("access log lacks the error kind: %q", buf.String())
	}
}

func TestGenerateThumbnailBadBody(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	h := newTestHandlers(t, svc)

	tests := []string{
		`not json`,
		`{"sourceRef":"/a.jpg","width":10,"height":10,"mediaKind":"audio"}`,
		`{"sourceRef":"/a.jpg","width":10,"height":10,"mediaKind":"photo","format":"gif"}`,
	}
	for _, body := range tests {
		w := postThumbnail(t, testRouter(h), body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
		if got := decodeError(t, w); got.Kind != "InvalidParameters" {
			t.Errorf("body %q: kind = %q", body, got.Kind)
		}
	}
	if svc.got.SourceRef != "" {
		t.Error("service should not be called for invalid bodies")
	}
}

func TestGenerateThumbnailTimeout(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, &fakeService{wait: true})
	h.requestTimeout = 20 * time.Millisecond

	w := postThumbnail(t, testRouter(h), `{"sourceRef":"/a.jpg","width":10,"height":10,"mediaKind":"photo"}`)

	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", w.Code)
	}
	if got := decodeError(t, w); got.Kind != "Timeout" {
		t.Errorf("kind = %q, want Timeout", got.Kind)
	}
}

func TestGenerateThenServeThumbnail(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, nil)
	h.thumbs = thumbnail.NewGenerator(solidProvider{w: 400, h: 200}, thumbnail.Options{
		ThumbnailDir: h.thumbnailDir,
		MaxDimension: 1024,
	})
	router := testRouter(h)

	w := postThumbnail(t, router, `{"sourceRef":"/media/wide.png","width":100,"height":100,"mediaKind":"photo","format":"png"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
	}
	var res thumbnail.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Width != 100 || res.Height != 100 {
		t.Errorf("dimensions = %dx%d, want 100x100", res.Width, res.Height)
	}
	if filepath.Dir(res.Data) != filepath.Join(h.thumbnailDir, "photos") {
		t.Fatalf("thumbnail written to unexpected path %q", res.Data)
	}

	onDisk, err := os.ReadFile(res.Data)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/thumbnails/photos/"+filepath.Base(res.Data), http.NoBody)
	get := httptest.NewRecorder()
	router.ServeHTTP(get, req)

	if get.Code != http.StatusOK {
		t.Fatalf("GET status = %d", get.Code)
	}
	if ct := get.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !bytes.Equal(get.Body.Bytes(), onDisk) {
		t.Error("served bytes differ from the file on disk")
	}
}

func TestGenerateInlineThumbnail(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, nil)
	h.thumbs = thumbnail.NewGenerator(solidProvider{w: 50, h: 80}, thumbnail.Options{ThumbnailDir: h.thumbnailDir})

	w := postThumbnail(t, testRouter(h), `{"sourceRef":"/media/tall.jpg","width":25,"height":40,"mediaKind":"photo","outputMode":"inlineEncoded"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
	}
	var res thumbnail.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Data, "data:image/jpeg;base64,") {
		t.Errorf("Data = %.40q, want a JPEG data URI", res.Data)
	}
	if res.Width != 25 || res.Height != 40 {
		t.Errorf("dimensions = %dx%d, want 25x40", res.Width, res.Height)
	}
}

func TestGetThumbnailRejects(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, nil)
	photos := filepath.Join(h.thumbnailDir, "photos")
	if err := os.MkdirAll(photos, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(photos, ".nomedia"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(photos, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	router := testRouter(h)

	tests := []struct {
		path string
		want int
	}{
		{"/thumbnails/audio/thumb-1.jpeg", http.StatusNotFound},
		{"/thumbnails/photos/.nomedia", http.StatusBadRequest},
		{"/thumbnails/photos/notes.txt", http.StatusBadRequest},
		{"/thumbnails/photos/missing.jpeg", http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
		if w.Code != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestGetThumbnailTraversal(t *testing.T) {
	t.Parallel()

	h := newTestHandlers(t, nil)
	for _, name := range []string{"../secret.jpeg", "../../etc/passwd.png", "a/b.jpeg"} {
		req := httptest.NewRequest(http.MethodGet, "/thumbnails/photos/x", http.NoBody)
		req = mux.SetURLVars(req, map[string]string{"kind": "photos", "name": name})
		w := httptest.NewRecorder()
		h.GetThumbnail(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("name %q: status = %d, want 400", name, w.Code)
		}
	}
}

func TestStatusForKind(t *testing.T) {
	t.Parallel()

	tests := map[thumbnail.ErrorKind]int{
		thumbnail.InvalidParameters: http.StatusBadRequest,
		thumbnail.UnsupportedSource: http.StatusUnprocessableEntity,
		thumbnail.SourceUnavailable: http.StatusNotFound,
		thumbnail.DecodeFailed:      http.StatusUnprocessableEntity,
		thumbnail.PersistFailed:     http.StatusInternalServerError,
	}
	for kind, want := range tests {
		if got := statusForKind(kind); got != want {
			t.Errorf("statusForKind(%s) = %d, want %d", kind, got, want)
		}
	}
}
