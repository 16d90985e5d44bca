package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"media-thumbnailer/internal/logging"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultPort                  = "8080"
	DefaultMetricsPort           = "9090"
	DefaultRequestTimeout        = 30 * time.Second
	DefaultMaxThumbnailDimension = 4096
)

// Config holds all application configuration
type Config struct {
	CacheDir     string
	ThumbnailDir string
	LibraryDir   string

	Port           string
	MetricsPort    string
	MetricsEnabled bool

	// Workers is the pool size. Zero means size from GOMAXPROCS.
	Workers               int
	RequestTimeout        time.Duration
	MaxThumbnailDimension int
	LogHealthChecks       bool

	// ThumbnailDirWritable is false when file output cannot be persisted.
	// Inline output keeps working either way.
	ThumbnailDirWritable bool
	FFmpegAvailable      bool
}

// LoadEnvFile preloads variables from ENV_FILE (default .env). Variables
// already present in the environment win. A missing file is not an error.
func LoadEnvFile() (string, error) {
	path := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return path, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return path, nil
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	envFile, envErr := LoadEnvFile()
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, ok := logging.ParseLevel(raw); ok {
			logging.SetLevel(level)
		}
	}

	printBanner()
	logSystemInfo()

	logSection("CONFIGURATION")

	if envErr != nil {
		logging.Warn("  %v", envErr)
	} else if envFile != "" {
		logging.Info("  Loaded environment from %s", envFile)
	}

	cacheDir := getEnv("CACHE_DIR", "/cache")
	thumbnailDir := getEnv("THUMBNAIL_DIR", filepath.Join(cacheDir, "thumbnails"))
	libraryDir := getEnv("LIBRARY_DIR", "/media")
	port := getEnv("PORT", DefaultPort)
	metricsPort := getEnv("METRICS_PORT", DefaultMetricsPort)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	workers := getEnvInt("THUMBNAIL_WORKERS", 0)
	requestTimeout := getEnvDuration("REQUEST_TIMEOUT", DefaultRequestTimeout)
	maxDimension := getEnvInt("MAX_THUMBNAIL_DIMENSION", DefaultMaxThumbnailDimension)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)

	logging.Info("  CACHE_DIR:                %s", cacheDir)
	logging.Info("  THUMBNAIL_DIR:            %s", thumbnailDir)
	logging.Info("  LIBRARY_DIR:              %s", libraryDir)
	logging.Info("  PORT:                     %s", port)
	logging.Info("  METRICS_PORT:             %s", metricsPort)
	logging.Info("  METRICS_ENABLED:          %v", metricsEnabled)
	if workers > 0 {
		logging.Info("  THUMBNAIL_WORKERS:        %d", workers)
	} else {
		logging.Info("  THUMBNAIL_WORKERS:        auto")
	}
	logging.Info("  REQUEST_TIMEOUT:          %v", requestTimeout)
	logging.Info("  MAX_THUMBNAIL_DIMENSION:  %d", maxDimension)
	logging.Info("  LOG_HEALTH_CHECKS:        %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:                %s", logging.GetLevel())

	if workers < 0 {
		logging.Warn("  Invalid THUMBNAIL_WORKERS %d, using auto", workers)
		workers = 0
	}
	if maxDimension <= 0 {
		logging.Warn("  Invalid MAX_THUMBNAIL_DIMENSION %d, using default: %d", maxDimension, DefaultMaxThumbnailDimension)
		maxDimension = DefaultMaxThumbnailDimension
	}
	if requestTimeout <= 0 {
		logging.Warn("  Invalid REQUEST_TIMEOUT %v, using default: %v", requestTimeout, DefaultRequestTimeout)
		requestTimeout = DefaultRequestTimeout
	}

	logSection("DIRECTORY SETUP")

	var err error
	if cacheDir, err = filepath.Abs(cacheDir); err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	if thumbnailDir, err = filepath.Abs(thumbnailDir); err != nil {
		return nil, fmt.Errorf("failed to resolve thumbnail directory path: %w", err)
	}
	if libraryDir, err = filepath.Abs(libraryDir); err != nil {
		return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
	}
	logging.Info("  Thumbnail directory (absolute): %s", thumbnailDir)
	logging.Info("  Library directory (absolute):   %s", libraryDir)

	// The library is mounted read-only in most deployments.
	if err := checkDirectory(libraryDir, "library"); err != nil {
		logging.Warn("  Library directory issue: %v", err)
		logging.Warn("  content:// and asset:// references will fail")
	}

	config := &Config{
		CacheDir:              cacheDir,
		ThumbnailDir:          thumbnailDir,
		LibraryDir:            libraryDir,
		Port:                  port,
		MetricsPort:           metricsPort,
		MetricsEnabled:        metricsEnabled,
		Workers:               workers,
		RequestTimeout:        requestTimeout,
		MaxThumbnailDimension: maxDimension,
		LogHealthChecks:       logHealthChecks,
	}

	config.ThumbnailDirWritable = setupThumbnailDir(thumbnailDir)

	if err := checkFFmpeg(); err != nil {
		logging.Warn("  %v", err)
	} else {
		config.FFmpegAvailable = true
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    File output:       %s", enabledString(config.ThumbnailDirWritable))
	logging.Info("    Inline output:     ENABLED")
	logging.Info("    Video thumbnails:  %s", enabledString(config.FFmpegAvailable))
	logging.Info("    Metrics:           %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupThumbnailDir(path string) bool {
	logging.Debug("  Setting up thumbnail directory: %s", path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create thumbnail directory: %v", err)
		logging.Warn("    filePath output will fail with PersistFailed")
		return false
	}
	if err := testWriteAccess(path); err != nil {
		logging.Warn("    Thumbnail directory is not writable: %v", err)
		logging.Warn("    filePath output will fail with PersistFailed")
		return false
	}

	logging.Info("  [OK] Thumbnail directory is writable")
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
