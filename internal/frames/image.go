package frames

import (
	"context"
	"fmt"
	"image"

	// Source decoders beyond the jpeg/png/gif set imaging registers.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"media-thumbnailer/internal/filesystem"
	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/mediatypes"
	"media-thumbnailer/internal/metrics"
	"media-thumbnailer/internal/thumbnail"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

// ImageProvider decodes still photos.
type ImageProvider struct {
	resolver *Resolver
	log      *logging.Logger
}

// NewImageProvider creates a photo provider backed by resolver.
func NewImageProvider(resolver *Resolver) *ImageProvider {
	return &ImageProvider{resolver: resolver, log: logging.For("frames.image")}
}

// Fetch decodes the photo at fr.SourceRef, subsampled by the largest power
// of two that still covers fr.Width x fr.Height.
func (p *ImageProvider) Fetch(ctx context.Context, fr thumbnail.FrameRequest) (*thumbnail.DecodedFrame, error) {
	path, err := p.resolver.Resolve(ctx, fr.SourceRef)
	if err != nil {
		return nil, err
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, thumbnail.NewError(thumbnail.SourceUnavailable, "unable to read source", err)
	}
	if mediatypes.GetFileTypeForMIME(mime.String()) != mediatypes.FileTypeImage {
		return nil, thumbnail.NewError(thumbnail.UnsupportedSource,
			fmt.Sprintf("unsupported photo content %s", mime.String()), nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, thumbnail.NewError(thumbnail.DecodeFailed, "request cancelled", err)
	}

	// Formats without a Go decoder (e.g. HEIC) have no config; libvips may
	// still read them at full size.
	srcW, srcH, cfgErr := decodeConfig(ctx, path)
	sample := 1
	if cfgErr == nil {
		sample = orientedSampleSize(srcW, srcH, fr.Width, fr.Height)
	} else {
		p.log.Debug("no Go decoder config for %s (%s): %v", path, mime.String(), cfgErr)
	}
	metrics.FrameSampleSize.Observe(float64(sample))

	if IsVipsAvailable() {
		side := 0
		if cfgErr == nil && sample > 1 {
			side = max(srcW, srcH) / sample
		}
		img, err := loadWithVips(path, side)
		if err == nil {
			metrics.FrameDecodeTotal.WithLabelValues("vips", "success").Inc()
			return thumbnail.NewDecodedFrame(img, nil), nil
		}
		metrics.FrameDecodeTotal.WithLabelValues("vips", "error").Inc()
		p.log.Debug("vips decode failed for %s, falling back to imaging: %v", path, err)
	}

	if cfgErr != nil {
		return nil, thumbnail.NewError(thumbnail.DecodeFailed, "unable to decode photo", cfgErr)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		metrics.FrameDecodeTotal.WithLabelValues("imaging", "error").Inc()
		return nil, thumbnail.NewError(thumbnail.DecodeFailed, "unable to decode photo", err)
	}
	metrics.FrameDecodeTotal.WithLabelValues("imaging", "success").Inc()

	if sample > 1 {
		b := img.Bounds()
		img = imaging.Resize(img, max(1, b.Dx()/sample), max(1, b.Dy()/sample), imaging.Box)
	}

	p.log.Debug("decoded %s at 1/%d: %dx%d", path, sample, img.Bounds().Dx(), img.Bounds().Dy())
	return thumbnail.NewDecodedFrame(img, nil), nil
}

func decodeConfig(ctx context.Context, path string) (int, int, error) {
	f, err := filesystem.Open(ctx, path, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
