package metrics

import (
	"time"

	"media-thumbnailer/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current statistics
type Stats struct {
	PoolSize       int
	QueueLength    int64
	ThumbnailFiles int
	ThumbnailBytes int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	WorkerPoolSize.Set(float64(stats.PoolSize))
	WorkerPoolQueueLength.Set(float64(stats.QueueLength))
	ThumbnailDirFiles.Set(float64(stats.ThumbnailFiles))
	ThumbnailDirBytes.Set(float64(stats.ThumbnailBytes))

	logging.Debug("Metrics collected: workers=%d, queued=%d, thumbnails=%d (%d bytes)",
		stats.PoolSize, stats.QueueLength, stats.ThumbnailFiles, stats.ThumbnailBytes)
}
