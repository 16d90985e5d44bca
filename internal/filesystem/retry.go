package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/metrics"
)

// VolumeResolver maps paths to volume labels for metrics, by longest
// matching prefix.
type VolumeResolver struct {
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute, with trailing separator
	name string
}

// NewVolumeResolver creates a resolver from volume name to directory.
//
//	NewVolumeResolver(map[string]string{
//	    "library":    "/media",
//	    "thumbnails": "/cache/thumbnails",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		if path == "" {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if !strings.HasSuffix(path, string(filepath.Separator)) {
			path += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{path: path, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		if len(mounts[i].path) != len(mounts[j].path) {
			return len(mounts[i].path) > len(mounts[j].path)
		}
		return mounts[i].name < mounts[j].name
	})
	return &VolumeResolver{mounts: mounts}
}

// Resolve returns the volume label for path, or "unknown".
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "unknown"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "unknown"
	}
	abs += string(filepath.Separator)
	for _, m := range vr.mounts {
		if strings.HasPrefix(abs, m.path) {
			return m.name
		}
	}
	return "unknown"
}

var (
	defaultMu       sync.RWMutex
	defaultResolver *VolumeResolver
)

// SetDefaultVolumeResolver sets the resolver used when a RetryConfig has
// none. Call it once at startup.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultMu.Lock()
	defaultResolver = vr
	defaultMu.Unlock()
}

func defaultVolumeResolver() *VolumeResolver {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultResolver
}

// RetryConfig configures retries of stale file handle errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver labels metrics. Nil falls back to the package default.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig returns the defaults: 3 retries, 50ms doubling to 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c RetryConfig) volume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultVolumeResolver().Resolve(path)
}

// IsStale reports whether err is ESTALE, which NFS returns when a file
// handle outlives the server's view of the file.
func IsStale(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// retry runs fn until it succeeds, fails with a non-stale error, runs out
// of attempts, or ctx ends.
func retry(ctx context.Context, op, path string, config RetryConfig, fn func() error) error {
	var volume string
	backoff := config.InitialBackoff

	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", op, attempt, path)
				metrics.FilesystemRetryResults.WithLabelValues(op, volume, "success").Inc()
			}
			return nil
		}
		if !IsStale(err) {
			return err
		}

		if volume == "" {
			volume = config.volume(path)
		}
		metrics.FilesystemStaleErrors.WithLabelValues(op, volume).Inc()

		if attempt >= config.MaxRetries {
			logging.Warn("%s failed after %d retries for %s: %v", op, config.MaxRetries, path, err)
			metrics.FilesystemRetryResults.WithLabelValues(op, volume, "failure").Inc()
			return err
		}

		metrics.FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
		logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
			op, path, backoff, attempt+1, config.MaxRetries)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}
}

// Stat is os.Stat with retries on stale file handles.
func Stat(ctx context.Context, path string, config RetryConfig) (os.FileInfo, error) {
	var info os.FileInfo
	err := retry(ctx, "stat", path, config, func() error {
		var err error
		info, err = statFn(path)
		return err
	})
	return info, err
}

// Open is os.Open with retries on stale file handles.
func Open(ctx context.Context, path string, config RetryConfig) (*os.File, error) {
	var f *os.File
	err := retry(ctx, "open", path, config, func() error {
		var err error
		f, err = openFn(path)
		return err
	})
	return f, err
}

// Test hooks.
var (
	statFn = os.Stat
	openFn = os.Open
)
