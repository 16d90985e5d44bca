package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/memory"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GeneratorInfo describes the thumbnail pipeline for the startup log.
type GeneratorInfo struct {
	Workers       int
	VipsAvailable bool
	MaxDimension  int
	MemoryLimit   int64
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

const rule = "------------------------------------------------------------"

// logSection starts a titled block of the startup log.
func logSection(format string, args ...interface{}) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(format, args...)
	logging.Info(rule)
}

// LogMemoryConfig logs how GOMEMLIMIT was derived.
func LogMemoryConfig(result memory.ConfigResult) {
	logSection("MEMORY CONFIGURATION")
	switch {
	case !result.Configured:
		logging.Info("  GOMEMLIMIT not configured (set MEMORY_LIMIT to enable)")
	case result.Source == "MEMORY_LIMIT":
		logging.Info("  GOMEMLIMIT:      %s (%.0f%% of %s container limit)",
			formatBytes(result.GoMemLimit), result.Ratio*100, formatBytes(result.ContainerLimit))
	default:
		logging.Info("  GOMEMLIMIT:      %s (from %s)", formatBytes(result.GoMemLimit), result.Source)
	}
}

// LogGeneratorInit logs thumbnail pipeline initialization
func LogGeneratorInit(info GeneratorInfo) {
	logSection("THUMBNAIL GENERATOR")
	logging.Info("  Workers:         %d", info.Workers)
	logging.Info("  Max dimension:   %d", info.MaxDimension)
	decoder := "imaging (libvips unavailable)"
	if info.VipsAvailable {
		decoder = "libvips"
	}
	logging.Info("  Photo decoder:   %s", decoder)
	if info.MemoryLimit > 0 {
		logging.Info("  Backpressure at: %s", formatBytes(info.MemoryLimit))
	}
}

// GetRoutes lists the routes of router, one entry per method, sorted by
// path then method. Routes without a method restriction report "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})

	sort.SliceStable(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})
	return routes, err
}

// routeTable folds sorted routes into one "METHODS path" line per path.
func routeTable(routes []RouteInfo) []string {
	var lines []string
	for i := 0; i < len(routes); {
		j := i
		var methods []string
		for ; j < len(routes) && routes[j].Path == routes[i].Path; j++ {
			methods = append(methods, routes[j].Method)
		}
		lines = append(lines, fmt.Sprintf("%-9s %s", strings.Join(methods, ","), routes[i].Path))
		i = j
	}
	return lines
}

// LogHTTPRoutes logs the access log settings and, at debug level, the
// route table.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logSection("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}
		for _, line := range routeTable(routes) {
			logging.Debug("    %s", line)
		}
	}

	logging.Info("  Health check logging: %s", enabledString(logHealthChecks))
}

// LogServerStarted logs the listening endpoints.
func LogServerStarted(config ServerConfig) {
	logSection("SERVER STARTED in %v", config.StartupDuration.Round(time.Millisecond))
	logging.Info("  Thumbnails: http://0.0.0.0:%s/api/thumbnails", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:    http://0.0.0.0:%s/metrics", config.MetricsPort)
	}
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logSection("SHUTDOWN INITIATED (received %s)", signal)
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	fmt.Println(rule + `
  _____ _                     _                 _ _
 |_   _| |__  _   _ _ __ ___ | |__  _ __   __ _(_) | ___ _ __
   | | | '_ \| | | | '_ ' _ \| '_ \| '_ \ / _' | | |/ _ \ '__|
   | | | | | | |_| | | | | | | |_) | | | | (_| | | |  __/ |
   |_| |_| |_|\__,_|_| |_| |_|_.__/|_| |_|\__,_|_|_|\___|_|
` + rule)
	logging.Info("  %s (%s, built %s)", Version, Commit, BuildTime)
}

// logSystemInfo logs the runtime and CPU budget the worker pool is sized
// from.
func logSystemInfo() {
	logSection("SYSTEM INFORMATION")
	logging.Info("  %s %s/%s, %d CPUs, GOMAXPROCS %d",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.GOMAXPROCS(0))
	if host, err := os.Hostname(); err == nil {
		logging.Debug("  Hostname: %s", host)
	}
}

// checkDirectory verifies path is an existing directory without creating it.
func checkDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH, video thumbnails will fail")
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if line, _, _ := strings.Cut(string(output), "\n"); line != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(line))
	}
	return nil
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
