package thumbnail

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"media-thumbnailer/internal/logging"
)

// noMediaMarker keeps gallery apps from indexing generated thumbnails.
const noMediaMarker = ".nomedia"

// Sink delivers encoded thumbnail bytes and returns the Result's Data field.
type Sink interface {
	Deliver(encoded []byte, format Format, kind MediaKind) (string, error)
}

// FileSink writes thumbnails to <dir>/<photos|videos>/thumb-<uuid>.<ext>.
type FileSink struct {
	dir string
	log *logging.Logger
}

// NewFileSink creates a sink rooted at dir. The directory itself is created
// lazily on the first write.
func NewFileSink(dir string) *FileSink {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &FileSink{dir: dir, log: logging.For("sink")}
}

// Dir returns the absolute thumbnail directory.
func (s *FileSink) Dir() string {
	return s.dir
}

// Deliver writes encoded to a new file and returns its absolute path. The
// bytes are written to a temporary file first so a failed write never
// leaves a truncated thumbnail behind.
func (s *FileSink) Deliver(encoded []byte, format Format, kind MediaKind) (string, error) {
	dir := filepath.Join(s.dir, kind.Dir())
	if err := s.ensureDir(dir); err != nil {
		return "", NewError(PersistFailed, "unable to create thumbnail directory", err)
	}

	name, err := NewFilename(format)
	if err != nil {
		return "", NewError(PersistFailed, "unable to name thumbnail", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-thumb-*")
	if err != nil {
		return "", NewError(PersistFailed, "there was an issue in saving the file", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			s.log.Warn("failed to remove temp file %s: %v", tmpPath, rmErr)
		}
	}

	if _, err := tmp.Write(encoded); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", NewError(PersistFailed, "there was an issue in saving the file", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", NewError(PersistFailed, "there was an issue in saving the file", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		s.log.Debug("chmod %s: %v", tmpPath, err)
	}

	finalPath := filepath.Join(dir, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		cleanup()
		return "", NewError(PersistFailed, "there was an issue in saving the file", err)
	}

	s.log.Debug("wrote %d bytes to %s", len(encoded), finalPath)
	return finalPath, nil
}

func (s *FileSink) ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists but is not a directory", dir)
		}
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	marker := filepath.Join(dir, noMediaMarker)
	f, err := os.OpenFile(marker, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.log.Warn("failed to create %s: %v", marker, err)
		return nil
	}
	if err := f.Close(); err != nil {
		s.log.Warn("failed to close %s: %v", marker, err)
	}
	s.log.Debug("created thumbnail directory %s", dir)
	return nil
}

// Usage counts the thumbnails under the sink directory and their total size.
// Hidden files such as .nomedia and in-flight temp files are skipped. A
// missing directory reports zero.
func (s *FileSink) Usage() (files int, size int64, err error) {
	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == s.dir && errors.Is(walkErr, fs.ErrNotExist) {
				return fs.SkipDir
			}
			return walkErr
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		files++
		size += info.Size()
		return nil
	})
	return files, size, err
}

// InlineSink returns thumbnails as base64 data URIs.
type InlineSink struct{}

// Deliver returns "data:<mime>;base64,<payload>".
func (InlineSink) Deliver(encoded []byte, format Format, _ MediaKind) (string, error) {
	return DataURI(format, encoded), nil
}
