package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"media-thumbnailer/internal/logging"
)

// accessFields is the W3C #Fields directive for the access log.
const accessFields = "date time c-ip cs-method cs-uri-stem sc-status sc-bytes time-taken sc(Content-Type) x-error-kind cs(User-Agent)"

const thumbnailFilesPrefix = "/thumbnails/"

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
}

// responseWriter records the status and body size of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
	wroteHeader  bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	SkipPaths []string
	// LogThumbnailFiles logs GET requests for generated thumbnail files.
	// Clients fetch these in bursts, so they are off by default.
	LogThumbnailFiles bool
	LogHealthChecks   bool
}

// DefaultLoggingConfig logs everything except thumbnail file fetches.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{LogHealthChecks: true}
}

type entryKey struct{}

// accessEntry carries handler annotations back to the access log.
type accessEntry struct {
	errorKind string
}

// SetErrorKind records the error kind of a failed request in its access log
// line. It is a no-op outside the Logger middleware.
func SetErrorKind(ctx context.Context, kind string) {
	if e, ok := ctx.Value(entryKey{}).(*accessEntry); ok {
		e.errorKind = kind
	}
}

// Logger returns HTTP logging middleware using W3C Extended Log Format
func Logger(config LoggingConfig) func(http.Handler) http.Handler {
	log := logging.For("access")
	log.Info("#Fields: %s", accessFields)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			entry := &accessEntry{}
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), entryKey{}, entry)))

			log.Info("%s", formatAccessLine(start.UTC(), r, wrapped, entry, time.Since(start)))
		})
	}
}

func formatAccessLine(at time.Time, r *http.Request, rw *responseWriter, entry *accessEntry, took time.Duration) string {
	return fmt.Sprintf("%s %s %s %s %s %d %d %d %s %s %s",
		at.Format("2006-01-02"),
		at.Format("15:04:05"),
		field(getClientIP(r)),
		field(r.Method),
		field(r.URL.Path),
		rw.statusCode,
		rw.bytesWritten,
		took.Milliseconds(),
		field(rw.Header().Get("Content-Type")),
		field(entry.errorKind),
		field(r.Header.Get("User-Agent")),
	)
}

// field sanitizes and escapes one log value; empty values become "-".
func field(s string) string {
	s = sanitizeLogField(s)
	if s == "" {
		return "-"
	}
	return escapeW3CField(s)
}

// sanitizeLogField drops control characters so a client cannot forge log
// lines or inject terminal escapes. Newlines become spaces; tabs are kept.
func sanitizeLogField(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r':
			return ' '
		case r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

// escapeW3CField quotes values containing whitespace or quotes, doubling
// embedded quotes.
func escapeW3CField(s string) string {
	if !strings.ContainsAny(s, " \t\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skipPath := range config.SkipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	if !config.LogHealthChecks && healthCheckPaths[path] {
		return true
	}
	return !config.LogThumbnailFiles && strings.HasPrefix(path, thumbnailFilesPrefix)
}

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
