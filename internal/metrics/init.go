package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	kinds := []string{"photo", "video"}
	statuses := []string{"success", "InvalidParameters", "UnsupportedSource",
		"SourceUnavailable", "DecodeFailed", "PersistFailed"}
	stages := []string{"fetch", "resample", "encode", "sink"}

	for _, k := range kinds {
		for _, s := range statuses {
			ThumbnailRequestsTotal.WithLabelValues(k, s)
		}
		for _, st := range stages {
			ThumbnailStageDuration.WithLabelValues(k, st)
		}
		ThumbnailRequestDuration.WithLabelValues(k)
		ThumbnailSourcePixels.WithLabelValues(k)
	}

	for _, f := range []string{"jpeg", "png"} {
		ThumbnailOutputBytes.WithLabelValues(f)
	}

	for _, d := range []string{"vips", "imaging", "ffmpeg"} {
		FrameDecodeTotal.WithLabelValues(d, "success")
		FrameDecodeTotal.WithLabelValues(d, "error")
	}

	for _, op := range []string{"stat", "open"} {
		for _, v := range []string{"library", "thumbnails"} {
			FilesystemStaleErrors.WithLabelValues(op, v)
			FilesystemRetryAttempts.WithLabelValues(op, v)
		}
	}
}
