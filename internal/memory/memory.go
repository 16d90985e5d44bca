package memory

import (
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"media-thumbnailer/internal/logging"
	"media-thumbnailer/internal/metrics"
)

// ErrStopped is returned by Wait when the monitor stops while paused.
var ErrStopped = errors.New("memory monitor stopped")

// Config holds memory management configuration
type Config struct {
	// MemoryLimitBytes is the budget usage is measured against
	// (0 = use GOMEMLIMIT, or no backpressure if that is unset too)
	MemoryLimitBytes int64

	// ResumeRatio is the usage below which paused work resumes (0.0-1.0)
	ResumeRatio float64

	// PauseRatio is the usage at which new work waits (0.0-1.0)
	PauseRatio float64

	// CheckInterval is how often heap usage is sampled
	CheckInterval time.Duration
}

// DefaultConfig returns the defaults used by the server.
func DefaultConfig() Config {
	return Config{
		ResumeRatio:   0.7,
		PauseRatio:    0.85,
		CheckInterval: 2 * time.Second,
	}
}

// Monitor samples heap usage and holds back new work while it is critical.
// A nil *Monitor never pauses.
type Monitor struct {
	config    Config
	limit     int64
	readAlloc func() uint64
	log       *logging.Logger

	mu     sync.RWMutex
	alloc  uint64
	paused bool
	resume chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a new memory monitor
func NewMonitor(config Config) *Monitor {
	log := logging.For("memory")

	limit := config.MemoryLimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
			log.Info("monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		log.Warn("no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		readAlloc: heapAlloc,
		log:       log,
		resume:    make(chan struct{}),
		stop:      make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Limit returns the budget in bytes, 0 when backpressure is disabled.
func (m *Monitor) Limit() int64 {
	return m.limit
}

// Start begins sampling. It does nothing when no limit is configured.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	interval := m.config.CheckInterval
	if interval <= 0 {
		interval = DefaultConfig().CheckInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Record(m.readAlloc())
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases any waiters with ErrStopped.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// Record takes one heap reading and flips the paused state across the
// watermarks.
func (m *Monitor) Record(alloc uint64) {
	if m.limit == 0 {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.alloc = alloc

	switch {
	case !m.paused && usage >= m.config.PauseRatio:
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		m.log.Warn("memory critical (%.1f%% of limit), pausing new thumbnails", usage*100)
		go runtime.GC()
	case m.paused && usage < m.config.ResumeRatio:
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
		m.log.Info("memory recovered (%.1f%% of limit), resuming", usage*100)
	}
}

// Wait returns immediately unless processing is paused, in which case it
// blocks until usage recovers, ctx ends, or the monitor stops.
func (m *Monitor) Wait(ctx context.Context) error {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	paused, resume := m.paused, m.resume
	m.mu.RUnlock()
	if !paused {
		return nil
	}

	select {
	case <-resume:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stop:
		return ErrStopped
	}
}

// Paused reports whether new work is currently held back.
func (m *Monitor) Paused() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled heap usage as a fraction of the limit, or
// 0 when no limit is configured.
func (m *Monitor) Usage() float64 {
	if m == nil || m.limit == 0 {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.alloc) / float64(m.limit)
}
