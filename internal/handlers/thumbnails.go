package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"media-thumbnailer/internal/filesystem"
	"media-thumbnailer/internal/mediatypes"
	"media-thumbnailer/internal/memory"
	"media-thumbnailer/internal/middleware"
	"media-thumbnailer/internal/thumbnail"
	"media-thumbnailer/internal/workers"

	"github.com/gorilla/mux"
)

// maxRequestBody caps the JSON request body. Requests carry a reference,
// never the media itself.
const maxRequestBody = 64 << 10

// ErrorBody is the payload of a failed thumbnail request.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// GenerateThumbnail handles POST /api/thumbnails.
func (h *Handlers) GenerateThumbnail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	req, err := thumbnail.DecodeRequest(r.Body)
	if err != nil {
		h.writeThumbnailError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	res, err := h.thumbs.Generate(ctx, req)
	if err != nil {
		h.log.Debug("thumbnail for %q failed: %v", req.SourceRef, err)
		h.writeThumbnailError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, res)
}

// writeThumbnailError maps a pipeline error onto an HTTP status and notes
// the kind in the access log.
func (h *Handlers) writeThumbnailError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		h.log.Error("thumbnail persist failed: %v", err)
	}
	middleware.SetErrorKind(r.Context(), body.Kind)
	writeJSONResponse(w, status, ErrorResponse{Error: body})
}

func errorResponse(err error) (int, ErrorBody) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorBody{
			Kind:    "Timeout",
			Code:    thumbnail.DecodeFailed.Code(),
			Message: "thumbnail generation timed out",
		}
	case errors.Is(err, context.Canceled),
		errors.Is(err, workers.ErrPoolClosed),
		errors.Is(err, memory.ErrStopped):
		return http.StatusServiceUnavailable, ErrorBody{
			Kind:    "Unavailable",
			Code:    thumbnail.DecodeFailed.Code(),
			Message: "service is shutting down",
		}
	}

	kind := thumbnail.KindOf(err)
	message := err.Error()
	var te *thumbnail.Error
	if errors.As(err, &te) {
		message = te.Message
	}
	return statusForKind(kind), ErrorBody{Kind: string(kind), Code: kind.Code(), Message: message}
}

func statusForKind(kind thumbnail.ErrorKind) int {
	switch kind {
	case thumbnail.InvalidParameters:
		return http.StatusBadRequest
	case thumbnail.UnsupportedSource, thumbnail.DecodeFailed:
		return http.StatusUnprocessableEntity
	case thumbnail.SourceUnavailable:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// GetThumbnail serves a previously generated file from
// /thumbnails/{kind}/{name}, where kind is "photos" or "videos".
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind, name := vars["kind"], vars["name"]

	if kind != thumbnail.MediaPhoto.Dir() && kind != thumbnail.MediaVideo.Dir() {
		http.Error(w, "Unknown thumbnail kind", http.StatusNotFound)
		return
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		h.log.Warn("rejected thumbnail name %q", name)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	ext := strings.ToLower(filepath.Ext(name))
	if mediatypes.GetFileType(ext) != mediatypes.FileTypeImage {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	root := filepath.Join(h.thumbnailDir, kind)
	fullPath := filepath.Join(root, name)
	if rel, err := filepath.Rel(root, fullPath); err != nil || strings.HasPrefix(rel, "..") {
		h.log.Warn("thumbnail path outside thumbnail dir: %s", name)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	f, err := filesystem.Open(r.Context(), fullPath, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "Thumbnail not found", http.StatusNotFound)
		} else {
			h.log.Error("failed to open thumbnail %s: %v", fullPath, err)
			http.Error(w, "Failed to access thumbnail", http.StatusInternalServerError)
		}
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "Thumbnail not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mediatypes.GetMimeType(ext))
	// Names are random UUIDs, a given URL never changes content.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, name, info.ModTime(), f)
}
