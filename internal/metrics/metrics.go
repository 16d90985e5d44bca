package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_thumbnailer_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_thumbnailer_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_thumbnailer_requests_total",
			Help: "Total number of thumbnail requests by media kind and outcome",
		},
		[]string{"kind", "status"}, // status: "success" or an error kind
	)

	ThumbnailRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_thumbnailer_request_duration_seconds",
			Help:    "End-to-end thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	ThumbnailStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_thumbnailer_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind", "stage"}, // stage: "fetch", "resample", "encode", "sink"
	)

	ThumbnailOutputBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_thumbnailer_output_bytes",
			Help:    "Size of encoded thumbnails in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12),
		},
		[]string{"format"},
	)

	ThumbnailSourcePixels = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_thumbnailer_source_pixels",
			Help:    "Pixel count of decoded source frames",
			Buckets: []float64{1e4, 1e5, 1e6, 4e6, 12e6, 24e6, 50e6},
		},
		[]string{"kind"},
	)

	ThumbnailDirFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_thumbnail_dir_files",
			Help: "Number of thumbnail files in the thumbnail directory",
		},
	)

	ThumbnailDirBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_thumbnail_dir_bytes",
			Help: "Total size of the thumbnail directory in bytes",
		},
	)
)

// Frame provider metrics
var (
	FrameDecodeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_thumbnailer_frame_decodes_total",
			Help: "Total number of source decodes by decoder",
		},
		[]string{"decoder", "status"}, // decoder: "vips", "imaging", "ffmpeg"
	)

	FrameSampleSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_thumbnailer_frame_sample_size",
			Help:    "Power-of-two sample size applied when decoding photos",
			Buckets: []float64{1, 2, 4, 8, 16, 32},
		},
	)

	FFmpegDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_thumbnailer_ffmpeg_duration_seconds",
			Help:    "Duration of FFmpeg frame extraction in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	VipsAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_vips_available",
			Help: "Whether libvips is initialized (1) or not (0)",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_thumbnailer_filesystem_stale_errors_total",
			Help: "Total number of stale file handle errors by operation and volume",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_thumbnailer_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retries by operation and volume",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_thumbnailer_filesystem_retry_results_total",
			Help: "Outcome of filesystem operations that needed at least one retry",
		},
		[]string{"operation", "volume", "result"}, // result: "success", "failure"
	)
)

// Worker pool metrics
var (
	WorkerPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_worker_pool_size",
			Help: "Number of workers in the thumbnail pool",
		},
	)

	WorkerPoolQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_worker_pool_queue_length",
			Help: "Number of requests waiting for a worker",
		},
	)

	WorkerPoolBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_worker_pool_busy",
			Help: "Number of workers currently processing a request",
		},
	)

	WorkerPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_thumbnailer_worker_panics_total",
			Help: "Total number of panics recovered in pool workers",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_memory_paused",
			Help: "Whether request processing is paused for memory pressure (1) or not (0)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_thumbnailer_memory_gc_pauses_total",
			Help: "Number of times processing paused and forced a GC",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_thumbnailer_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
