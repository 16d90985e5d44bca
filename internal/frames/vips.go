package frames

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/metrics"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
	vipsLog         = logging.For("vips")
)

// vipsLogSettings maps the application log level onto a handler and the
// libvips verbosity whose messages it forwards.
func vipsLogSettings(level logging.LogLevel) (vips.LoggingHandlerFunction, vips.LogLevel) {
	switch level {
	case logging.LevelDebug:
		return func(domain string, l vips.LogLevel, msg string) {
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				vipsLog.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				vipsLog.Warn("[%s] %s", domain, msg)
			default:
				vipsLog.Debug("[%s] %s", domain, msg)
			}
		}, vips.LogLevelInfo
	case logging.LevelInfo:
		return func(domain string, l vips.LogLevel, msg string) {
			switch l {
			case vips.LogLevelError, vips.LogLevelCritical:
				vipsLog.Error("[%s] %s", domain, msg)
			case vips.LogLevelWarning:
				vipsLog.Warn("[%s] %s", domain, msg)
			}
		}, vips.LogLevelWarning
	case logging.LevelWarn:
		return func(domain string, l vips.LogLevel, msg string) {
			if l == vips.LogLevelError || l == vips.LogLevelCritical {
				vipsLog.Error("[%s] %s", domain, msg)
			}
		}, vips.LogLevelError
	default:
		return func(domain string, l vips.LogLevel, msg string) {
			if l == vips.LogLevelCritical {
				vipsLog.Error("[%s] %s", domain, msg)
			}
		}, vips.LogLevelCritical
	}
}

// InitVips initializes the libvips library.
// This should be called once at startup. Without it ImageProvider decodes
// with imaging only.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	// Logging must be configured before Startup to respect LOG_LEVEL.
	vips.LoggingSettings(vipsLogSettings(logging.GetLevel()))

	// Each pool worker decodes one source at a time, so libvips' own
	// threading is kept low and its operation cache small.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
		ReportLeaks:      false,
		CacheTrace:       false,
		CollectStats:     false,
	})

	vipsInitialized = true
	vipsAvailable = true
	metrics.VipsAvailable.Set(1)
	vipsLog.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips cleans up libvips resources.
// libvips cannot be restarted in the same process after this.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		metrics.VipsAvailable.Set(0)
		vipsLog.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized and available
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// loadWithVips decodes path with libvips. When side > 0 the image is shrunk
// during decode to fit a side x side box, which keeps its aspect ratio
// whatever its EXIF orientation. Orientation is always applied.
func loadWithVips(path string, side int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	var (
		ref *vips.ImageRef
		err error
	)
	if side > 0 {
		ref, err = vips.NewThumbnailFromFile(path, side, side, vips.InterestingNone)
	} else {
		ref, err = vips.LoadImageFromFile(path, vips.NewImportParams())
		if err == nil {
			err = ref.AutoRotate()
		}
	}
	if err != nil {
		if ref != nil {
			ref.Close()
		}
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	vipsLog.Debug("loaded %s: %dx%d (box %d)", filepath.Base(path), ref.Width(), ref.Height(), side)

	// PNG keeps the round trip into Go lossless; compression is kept low
	// since the bytes never leave the process.
	params := vips.NewPngExportParams()
	params.Compression = 1
	params.StripMetadata = true
	buf, _, err := ref.ExportPng(params)
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
