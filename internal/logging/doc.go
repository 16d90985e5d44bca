// Package logging provides the leveled logger used across the thumbnailer.
//
// It supports the following log levels:
//   - DEBUG: per-stage pipeline detail (decode sizes, geometry, encode sizes)
//   - INFO: startup and configuration
//   - WARN: recoverable problems (vips unavailable, marker file not written)
//   - ERROR: failed requests and server errors
//   - FATAL: startup errors that terminate the process
//
// The level comes from LOG_LEVEL, or DEBUG=true for debug output. Components
// obtain a prefixed logger with For("generator").
package logging
