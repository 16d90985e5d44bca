// Package main provides the entry point for the thumbnail server.
//
// The server turns a reference to a local photo or video into a small,
// aspect-preserving thumbnail of an exact requested size, either written to
// the thumbnail directory or returned inline as a data URI.
//
// # Application Lifecycle
//
//  1. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT and MEMORY_RATIO
//  2. Configuration Loading: Reads ENV_FILE and environment variables, checks directories
//  3. Component Initialization:
//     - Memory Monitor: Holds back new work while the heap is near its limit
//     - libvips: Shrink-on-load decoding when the library is present
//     - Frame Providers: Photo decoding and ffmpeg frame extraction
//     - Worker Pool: Bounded concurrent generation
//     - Metrics Collector: Pool and thumbnail directory gauges
//  4. HTTP Server Setup: Routes, W3C access logging and request metrics
//  5. Graceful Shutdown: Handles SIGINT/SIGTERM and drains in-flight requests
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - POST /api/thumbnails
//     - GET /thumbnails/{photos|videos}/{name}
//     - /health, /healthz, /livez, /readyz, /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// # Graceful Shutdown
//
//  1. Mark the service not ready
//  2. Stop accepting new HTTP requests and wait for open ones (30s timeout)
//  3. Drain the worker pool
//  4. Stop the metrics collector and memory monitor
//  5. Shutdown metrics server (if running)
//  6. Shut down libvips
//
// # Related Packages
//
//   - [media-thumbnailer/internal/thumbnail]: Geometry, resampling, encoding and delivery
//   - [media-thumbnailer/internal/frames]: Source resolution and frame decoding
//   - [media-thumbnailer/internal/workers]: Worker pool
//   - [media-thumbnailer/internal/handlers]: HTTP request handlers
//   - [media-thumbnailer/internal/startup]: Configuration and initialization
//
// The cmd/thumbnail command runs a single request from the command line.
package main
