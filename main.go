package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-thumbnailer/internal/filesystem"
	"media-thumbnailer/internal/frames"
	"media-thumbnailer/internal/handlers"
	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/memory"
	"media-thumbnailer/internal/metrics"
	"media-thumbnailer/internal/middleware"
	"media-thumbnailer/internal/startup"
	"media-thumbnailer/internal/thumbnail"
	"media-thumbnailer/internal/workers"

	"github.com/gorilla/mux"
)

// poolStatsAdapter feeds pool and thumbnail directory figures to the
// metrics collector.
type poolStatsAdapter struct {
	pool *workers.Pool
	sink *thumbnail.FileSink
}

// GetStats implements metrics.StatsProvider
func (a *poolStatsAdapter) GetStats() metrics.Stats {
	stats := metrics.Stats{
		PoolSize:    a.pool.Size(),
		QueueLength: a.pool.QueueLength(),
	}
	files, size, err := a.sink.Usage()
	if err != nil {
		logging.Debug("failed to measure thumbnail directory: %v", err)
	}
	stats.ThumbnailFiles = files
	stats.ThumbnailBytes = size
	return stats
}

func main() {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	if err := frames.InitVips(); err != nil {
		logging.Warn("libvips unavailable, falling back to pure Go decoders: %v", err)
	}

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"library":    config.LibraryDir,
		"thumbnails": config.ThumbnailDir,
	}))

	fileSink := thumbnail.NewFileSink(config.ThumbnailDir)
	generator := thumbnail.NewGenerator(frames.New(frames.NewResolver(config.LibraryDir)), thumbnail.Options{
		ThumbnailDir: config.ThumbnailDir,
		MaxDimension: config.MaxThumbnailDimension,
		FileSink:     fileSink,
	})

	size := config.Workers
	if size == 0 {
		size = workers.ForMixed(0)
	}
	pool := workers.NewPool(size, generator, monitor)

	startup.LogGeneratorInit(startup.GeneratorInfo{
		Workers:       pool.Size(),
		VipsAvailable: frames.IsVipsAvailable(),
		MaxDimension:  config.MaxThumbnailDimension,
		MemoryLimit:   monitor.Limit(),
	})

	collector := metrics.NewCollector(&poolStatsAdapter{pool: pool, sink: fileSink}, time.Minute)
	collector.Start()

	h := handlers.New(pool, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      config.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle("/metrics", h.MetricsHandler()).Methods("GET")
		metricsRouter.HandleFunc("/health", h.LivenessCheck).Methods("GET", "HEAD")
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsRouter,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(shutdownDeps{
		srv:        srv,
		metricsSrv: metricsSrv,
		handlers:   h,
		pool:       pool,
		collector:  collector,
		monitor:    monitor,
	})

	h.SetReady(true)
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for the
	// shutdown sequence to finish before exiting.
	<-shutdownDone
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.HealthCheck).Methods("GET", "HEAD")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET", "HEAD")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/thumbnails", h.GenerateThumbnail).Methods("POST")

	r.HandleFunc("/thumbnails/{kind}/{name}", h.GetThumbnail).Methods("GET", "HEAD")

	return r
}

type shutdownDeps struct {
	srv        *http.Server
	metricsSrv *http.Server
	handlers   *handlers.Handlers
	pool       *workers.Pool
	collector  *metrics.Collector
	monitor    *memory.Monitor
}

var shutdownDone = make(chan struct{})

func handleShutdown(deps shutdownDeps) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	defer close(shutdownDone)
	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps.handlers.SetReady(false)

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := deps.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Draining thumbnail workers")
	deps.pool.Close()
	startup.LogShutdownStepComplete("Thumbnail workers stopped")

	deps.collector.Stop()
	deps.monitor.Stop()

	if deps.metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := deps.metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	frames.ShutdownVips()
	startup.LogShutdownComplete()
}
