package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jsonhammer/jsonhammer/pkg/observability"
)

const DefaultInterval = 500 * time.Millisecond

// SystemMonitor samples host resources while a batch runs.
type SystemMonitor struct {
	// ctx is the context for the system monitor
	ctx    context.Context
	cancel context.CancelFunc

	interval time.Duration
	metrics  []Metric
	logger   *observability.HammerLogger
	wg       sync.WaitGroup
}

// NewSystemMonitor creates a monitor over metrics, or over memory and CPU
// usage when none are given.
func NewSystemMonitor(ctx context.Context, interval time.Duration, logger *observability.HammerLogger, metrics ...Metric) *SystemMonitor {
	ctx, cancel := context.WithCancel(ctx)
	if interval <= 0 {
		interval = DefaultInterval
	}
	if len(metrics) == 0 {
		metrics = []Metric{&MemoryPercent{}, &CPUPercent{}}
	}
	return &SystemMonitor{
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
	}
}

// Do starts sampling in the background until Close.
func (sm *SystemMonitor) Do() {
	sm.logger.Debug("starting system monitor", "interval", sm.interval.String())

	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()

		ticker := time.NewTicker(sm.interval)
		defer ticker.Stop()

		sm.sample()
		for {
			select {
			case <-sm.ctx.Done():
				return
			case <-ticker.C:
				sm.sample()
			}
		}
	}()
}

func (sm *SystemMonitor) sample() {
	for _, metric := range sm.metrics {
		metric.Sample()
	}
}

// Close stops sampling and returns the average of every metric.
func (sm *SystemMonitor) Close() map[string]float64 {
	sm.cancel()
	sm.wg.Wait()

	aggregates := make(map[string]float64, len(sm.metrics))
	for _, metric := range sm.metrics {
		aggregates[metric.Name()] = metric.Aggregate()
		metric.Clear()
	}
	sm.logger.Debug("system monitor stopped", "aggregates", aggregates)
	return aggregates
}
