// Package handlers provides the HTTP surface of the thumbnail service.
//
// It includes handlers for:
//   - Thumbnail generation (POST /api/thumbnails)
//   - Serving generated thumbnail files
//   - Health, liveness, readiness and version endpoints
package handlers
