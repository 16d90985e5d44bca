package frames

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/mediatypes"
	"media-thumbnailer/internal/metrics"
	"media-thumbnailer/internal/thumbnail"

	"github.com/gabriel-vasile/mimetype"
)

// VideoProvider extracts single frames from videos with ffmpeg.
type VideoProvider struct {
	resolver *Resolver
	ffmpeg   string
	log      *logging.Logger
}

// NewVideoProvider creates a video provider backed by resolver. ffmpeg is
// looked up on PATH for every request so installing it doesn't need a
// restart.
func NewVideoProvider(resolver *Resolver) *VideoProvider {
	return &VideoProvider{resolver: resolver, ffmpeg: "ffmpeg", log: logging.For("frames.video")}
}

// Fetch returns the frame at fr.TimestampMs, or the first frame when the
// timestamp lies past the end of the video.
func (p *VideoProvider) Fetch(ctx context.Context, fr thumbnail.FrameRequest) (*thumbnail.DecodedFrame, error) {
	path, err := p.resolver.Resolve(ctx, fr.SourceRef)
	if err != nil {
		return nil, err
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, thumbnail.NewError(thumbnail.SourceUnavailable, "unable to read source", err)
	}
	if mediatypes.GetFileTypeForMIME(mime.String()) == mediatypes.FileTypeOther &&
		mediatypes.GetFileType(strings.ToLower(filepath.Ext(path))) != mediatypes.FileTypeVideo {
		return nil, thumbnail.NewError(thumbnail.UnsupportedSource,
			fmt.Sprintf("unsupported video content %s", mime.String()), nil)
	}

	ffmpegPath, err := exec.LookPath(p.ffmpeg)
	if err != nil {
		return nil, thumbnail.NewError(thumbnail.UnsupportedSource, "video thumbnails require ffmpeg", err)
	}

	start := time.Now()
	data, err := p.extract(ctx, ffmpegPath, path, fr.TimestampMs)
	if (err != nil || len(data) == 0) && fr.TimestampMs > 0 && ctx.Err() == nil {
		p.log.Debug("no frame at %dms in %s (%v), using first frame", fr.TimestampMs, path, err)
		data, err = p.extract(ctx, ffmpegPath, path, 0)
	}
	metrics.FFmpegDuration.Observe(time.Since(start).Seconds())

	if err == nil && len(data) == 0 {
		err = fmt.Errorf("ffmpeg produced no output for %s", path)
	}
	if err != nil {
		metrics.FrameDecodeTotal.WithLabelValues("ffmpeg", "error").Inc()
		return nil, thumbnail.NewError(thumbnail.DecodeFailed, "File doesn't exist or not supported", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		metrics.FrameDecodeTotal.WithLabelValues("ffmpeg", "error").Inc()
		return nil, thumbnail.NewError(thumbnail.DecodeFailed, "failed to decode ffmpeg output", err)
	}
	metrics.FrameDecodeTotal.WithLabelValues("ffmpeg", "success").Inc()

	p.log.Debug("extracted %dx%d frame at %dms from %s in %v",
		img.Bounds().Dx(), img.Bounds().Dy(), fr.TimestampMs, path, time.Since(start))
	return thumbnail.NewDecodedFrame(img, nil), nil
}

// extract pipes one PNG frame to stdout. Seeking before -i is fast and
// lands on the frame nearest the timestamp.
func (p *VideoProvider) extract(ctx context.Context, ffmpegPath, path string, timestampMs int64) ([]byte, error) {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if timestampMs > 0 {
		args = append(args, "-ss", seekPosition(timestampMs))
	}
	args = append(args,
		"-i", path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// seekPosition formats milliseconds as seconds for -ss, e.g. 1500 -> "1.500".
func seekPosition(ms int64) string {
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}
