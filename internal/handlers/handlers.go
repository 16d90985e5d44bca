package handlers

import (
	"context"
	"sync/atomic"
	"time"

	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/startup"
	"media-thumbnailer/internal/thumbnail"
)

// ThumbnailService runs one thumbnail request. The worker pool satisfies it.
type ThumbnailService interface {
	Generate(ctx context.Context, req thumbnail.Request) (*thumbnail.Result, error)
}

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	thumbs         ThumbnailService
	thumbnailDir   string
	requestTimeout time.Duration
	fileOutput     bool
	videoSupport   bool
	startTime      time.Time
	ready          atomic.Bool
	log            *logging.Logger
}

// New creates the handlers. The service starts out not ready; call SetReady
// once the worker pool is accepting requests.
func New(thumbs ThumbnailService, config *startup.Config) *Handlers {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = startup.DefaultRequestTimeout
	}
	return &Handlers{
		thumbs:         thumbs,
		thumbnailDir:   config.ThumbnailDir,
		requestTimeout: timeout,
		fileOutput:     config.ThumbnailDirWritable,
		videoSupport:   config.FFmpegAvailable,
		startTime:      time.Now(),
		log:            logging.For("http"),
	}
}

// SetReady flips the readiness probe. It is cleared again during shutdown.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness state.
func (h *Handlers) IsReady() bool {
	return h.ready.Load()
}
