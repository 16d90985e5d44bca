package thumbnail

import (
	"bytes"
	"context"
	"strings"
	"time"

	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/metrics"
)

// FrameRequest identifies the frame to decode. Width and Height are the
// requested box; a provider may decode at a reduced size as long as the
// frame still covers it.
type FrameRequest struct {
	SourceRef   string
	MediaKind   MediaKind
	TimestampMs int64
	Width       int
	Height      int
}

// FrameProvider decodes a source into a raster. Implementations return a
// frame owned solely by the caller, who must Release it.
type FrameProvider interface {
	Fetch(ctx context.Context, fr FrameRequest) (*DecodedFrame, error)
}

// networkSchemes are rejected before the provider is consulted.
var networkSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"ftp":   true,
	"ftps":  true,
	"rtsp":  true,
	"rtmp":  true,
	"ws":    true,
	"wss":   true,
}

// IsNetworkRef reports whether ref points at a remote resource.
func IsNetworkRef(ref string) bool {
	i := strings.Index(ref, "://")
	if i <= 0 {
		return false
	}
	return networkSchemes[strings.ToLower(strings.TrimSpace(ref[:i]))]
}

// Options configures a Generator.
type Options struct {
	// ThumbnailDir roots the default FileSink. Ignored when FileSink is set.
	ThumbnailDir string
	// MaxDimension caps requested width and height. Zero disables the cap.
	MaxDimension int
	// FileSink and InlineSink override the default sinks.
	FileSink   Sink
	InlineSink Sink
}

// Generator runs requests through the pipeline:
// validate, fetch, resolve geometry, resample, encode, deliver.
//
// A Generator holds no per-request state and is safe for concurrent use.
type Generator struct {
	provider     FrameProvider
	maxDimension int
	fileSink     Sink
	inlineSink   Sink
	log          *logging.Logger
}

// NewGenerator creates a generator backed by provider.
func NewGenerator(provider FrameProvider, opts Options) *Generator {
	g := &Generator{
		provider:     provider,
		maxDimension: opts.MaxDimension,
		fileSink:     opts.FileSink,
		inlineSink:   opts.InlineSink,
		log:          logging.For("generator"),
	}
	if g.fileSink == nil {
		g.fileSink = NewFileSink(opts.ThumbnailDir)
	}
	if g.inlineSink == nil {
		g.inlineSink = InlineSink{}
	}
	return g
}

// Generate produces one thumbnail. On failure it returns a *Error and no
// result; nothing is retried.
func (g *Generator) Generate(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	req = req.WithDefaults()
	kind := kindLabel(req.MediaKind)

	defer func() {
		status := "success"
		if err != nil {
			status = string(KindOf(err))
			g.log.Debug("%s %q failed: %v", kind, req.SourceRef, err)
		}
		metrics.ThumbnailRequestsTotal.WithLabelValues(kind, status).Inc()
		metrics.ThumbnailRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	if err := req.Validate(g.maxDimension); err != nil {
		return nil, err
	}
	if IsNetworkRef(req.SourceRef) {
		return nil, NewError(UnsupportedSource, "Cannot support remote "+req.MediaKind.Dir(), nil)
	}

	stageStart := time.Now()
	frame, err := g.provider.Fetch(ctx, FrameRequest{
		SourceRef:   req.SourceRef,
		MediaKind:   req.MediaKind,
		TimestampMs: req.TimestampMs,
		Width:       req.Width,
		Height:      req.Height,
	})
	defer frame.Release()
	observeStage(kind, "fetch", stageStart)
	if err != nil {
		return nil, asError(err, DecodeFailed, "unable to decode source")
	}
	if frame == nil || frame.Image == nil {
		return nil, NewError(DecodeFailed, "source produced no frame", nil)
	}
	metrics.ThumbnailSourcePixels.WithLabelValues(kind).Observe(float64(frame.SourceWidth * frame.SourceHeight))

	geom, err := ResolveGeometry(frame.SourceWidth, frame.SourceHeight, req.Width, req.Height)
	if err != nil {
		return nil, err
	}

	stageStart = time.Now()
	out := Resample(frame.Image, geom)
	frame.Release()
	observeStage(kind, "resample", stageStart)

	stageStart = time.Now()
	var buf bytes.Buffer
	if err := Encode(&buf, out, req.Format); err != nil {
		return nil, NewError(PersistFailed, "unable to encode thumbnail", err)
	}
	observeStage(kind, "encode", stageStart)
	metrics.ThumbnailOutputBytes.WithLabelValues(string(req.Format)).Observe(float64(buf.Len()))

	sink := g.fileSink
	if req.OutputMode == OutputInline {
		sink = g.inlineSink
	}

	stageStart = time.Now()
	data, err := sink.Deliver(buf.Bytes(), req.Format, req.MediaKind)
	observeStage(kind, "sink", stageStart)
	if err != nil {
		return nil, asError(err, PersistFailed, "there was an issue in saving the file")
	}

	g.log.Debug("%s %q -> %dx%d %s in %v", kind, req.SourceRef, geom.OutputWidth, geom.OutputHeight,
		req.Format, time.Since(start))

	return &Result{Data: data, Width: geom.OutputWidth, Height: geom.OutputHeight}, nil
}

func observeStage(kind, stage string, start time.Time) {
	metrics.ThumbnailStageDuration.WithLabelValues(kind, stage).Observe(time.Since(start).Seconds())
}

func kindLabel(k MediaKind) string {
	if k.Valid() {
		return string(k)
	}
	return "unknown"
}
