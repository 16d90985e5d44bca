package frames

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"media-thumbnailer/internal/filesystem"
	"media-thumbnailer/internal/thumbnail"
)

// Resolver maps source references to files on local disk.
type Resolver struct {
	libraryDir string
}

// NewResolver creates a resolver. libraryDir roots content:// and asset://
// references; an empty libraryDir disables them.
func NewResolver(libraryDir string) *Resolver {
	if libraryDir != "" {
		if abs, err := filepath.Abs(libraryDir); err == nil {
			libraryDir = abs
		}
	}
	return &Resolver{libraryDir: libraryDir}
}

// LibraryDir returns the absolute library root, or "" if none is configured.
func (r *Resolver) LibraryDir() string {
	return r.libraryDir
}

// Resolve returns the absolute path of an existing regular file.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", thumbnail.NewError(thumbnail.InvalidParameters, "source reference is required", nil)
	}

	path, err := r.localPath(ref)
	if err != nil {
		return "", err
	}

	info, err := filesystem.Stat(ctx, path, filesystem.DefaultRetryConfig())
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", thumbnail.NewError(thumbnail.SourceUnavailable, "File doesn't exist", err)
	case err != nil:
		return "", thumbnail.NewError(thumbnail.SourceUnavailable, "unable to access source", err)
	case info.IsDir():
		return "", thumbnail.NewError(thumbnail.UnsupportedSource, "source is a directory", nil)
	}
	return path, nil
}

func (r *Resolver) localPath(ref string) (string, error) {
	scheme, rest := splitScheme(ref)

	switch scheme {
	case "":
		abs, err := filepath.Abs(ref)
		if err != nil {
			return "", thumbnail.NewError(thumbnail.InvalidParameters, "invalid source path", err)
		}
		return abs, nil

	case "file":
		u, err := url.Parse(ref)
		if err != nil {
			return "", thumbnail.NewError(thumbnail.InvalidParameters, "malformed file URI", err)
		}
		if u.Host != "" && !strings.EqualFold(u.Host, "localhost") {
			return "", thumbnail.NewError(thumbnail.UnsupportedSource, "file URIs on other hosts are not supported", nil)
		}
		if u.Path == "" {
			return "", thumbnail.NewError(thumbnail.InvalidParameters, "file URI has no path", nil)
		}
		return filepath.Clean(filepath.FromSlash(u.Path)), nil

	case "content", "asset":
		decoded, err := url.PathUnescape(rest)
		if err != nil {
			return "", thumbnail.NewError(thumbnail.InvalidParameters, "malformed "+scheme+" reference", err)
		}
		return r.withinLibrary(decoded)

	default:
		return "", thumbnail.NewError(thumbnail.UnsupportedSource, fmt.Sprintf("unsupported source scheme %q", scheme), nil)
	}
}

func (r *Resolver) withinLibrary(rel string) (string, error) {
	if r.libraryDir == "" {
		return "", thumbnail.NewError(thumbnail.UnsupportedSource, "no media library is configured", nil)
	}
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return "", thumbnail.NewError(thumbnail.InvalidParameters, "library reference has no path", nil)
	}

	joined := filepath.Join(r.libraryDir, filepath.FromSlash(rel))
	check, err := filepath.Rel(r.libraryDir, joined)
	if err != nil || check == ".." || strings.HasPrefix(check, ".."+string(filepath.Separator)) {
		return "", thumbnail.NewError(thumbnail.UnsupportedSource, "source reference escapes the media library", err)
	}
	return joined, nil
}

// splitScheme returns the lower-cased scheme and the remainder after "://".
// "file:/x" is accepted as a file URI without an authority.
func splitScheme(ref string) (string, string) {
	if i := strings.Index(ref, "://"); i > 0 {
		scheme := strings.ToLower(ref[:i])
		if isSchemeName(scheme) {
			return scheme, ref[i+3:]
		}
	}
	if len(ref) > 5 && strings.EqualFold(ref[:5], "file:") {
		return "file", ref[5:]
	}
	return "", ref
}

func isSchemeName(s string) bool {
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return s != ""
}
