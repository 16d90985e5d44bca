// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is read from environment variables via [LoadConfig], after
// optionally preloading a dotenv file with [LoadEnvFile]:
//
//   - ENV_FILE: dotenv file to preload (default: .env, missing file ignored)
//   - CACHE_DIR: Cache root (default: /cache)
//   - THUMBNAIL_DIR: Output directory for filePath thumbnails (default: $CACHE_DIR/thumbnails)
//   - LIBRARY_DIR: Root for content:// and asset:// references (default: /media)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - THUMBNAIL_WORKERS: Worker pool size (default: derived from GOMAXPROCS)
//   - REQUEST_TIMEOUT: Per-request wait limit as Go duration (default: 30s)
//   - MAX_THUMBNAIL_DIMENSION: Largest accepted width or height (default: 4096)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Memory limits (MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT) are handled by the
// memory package; [LogMemoryConfig] reports the outcome.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
//
// # Example Usage
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.LogServerStarted(startup.ServerConfig{
//	    Port:            config.Port,
//	    MetricsPort:     config.MetricsPort,
//	    MetricsEnabled:  config.MetricsEnabled,
//	    StartupDuration: time.Since(startTime),
//	})
package startup
