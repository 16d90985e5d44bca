// Package metrics provides Prometheus instrumentation for the thumbnailer.
//
// All metrics are prefixed with "media_thumbnailer_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: requests by method, path and status
//   - HTTPRequestDuration: request duration by method and path
//   - HTTPRequestsInFlight: requests currently being served
//
// ## Thumbnail Metrics
//
//   - ThumbnailRequestsTotal: requests by media kind and outcome, where the
//     outcome is "success" or the error kind (e.g. "UnsupportedSource")
//   - ThumbnailRequestDuration: end-to-end generation time by kind
//   - ThumbnailStageDuration: per-stage time (fetch, resample, encode, sink)
//   - ThumbnailOutputBytes: encoded size by format
//   - ThumbnailSourcePixels: decoded frame size by kind
//   - ThumbnailDirFiles / ThumbnailDirBytes: contents of the thumbnail directory
//
// ## Frame Provider Metrics
//
//   - FrameDecodeTotal: decodes by decoder (vips, imaging, ffmpeg) and status
//   - FrameSampleSize: power-of-two sample size used for photo decodes
//   - FFmpegDuration: video frame extraction time
//   - VipsAvailable: whether libvips initialized
//
// ## Filesystem Metrics
//
//   - FilesystemStaleErrors: ESTALE errors by operation (stat, open) and volume
//   - FilesystemRetryAttempts: retries after a stale handle
//   - FilesystemRetryResults: retried operations by final result
//
// ## Worker Pool and Memory Metrics
//
//   - WorkerPoolSize, WorkerPoolQueueLength, WorkerPoolBusy, WorkerPanicsTotal
//   - MemoryUsageRatio, MemoryPaused, MemoryGCPauses
//
// # Usage
//
// Metrics are registered with the default registry through promauto and
// served by promhttp on the metrics port:
//
//	metrics.InitializeMetrics()
//	metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())
//	http.Handle("/metrics", promhttp.Handler())
//
// The Collector refreshes gauges that are sampled rather than updated inline
// (pool size, queue length, thumbnail directory size).
package metrics
