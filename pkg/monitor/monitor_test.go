package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jsonhammer/jsonhammer/pkg/observability"
)

type fakeMetric struct {
	samples
	calls atomic.Int32
}

func (f *fakeMetric) Name() string { return "fake" }

func (f *fakeMetric) Sample() {
	n := f.calls.Add(1)
	f.add(float64(n))
}

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 2.0, Average([]float64{1, 2, 3}))
}

func TestSystemMonitorSamplesUntilClosed(t *testing.T) {
	metric := &fakeMetric{}
	sm := NewSystemMonitor(context.Background(), time.Millisecond, observability.NoOpLogger, metric)

	sm.Do()
	assert.Eventually(t, func() bool { return metric.calls.Load() >= 3 }, time.Second, time.Millisecond)
	aggregates := sm.Close()

	calls := metric.calls.Load()
	assert.Greater(t, aggregates["fake"], 1.0)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, calls, metric.calls.Load(), "no samples after Close")
	assert.Equal(t, 0.0, metric.Aggregate())
}

func TestDefaultMetrics(t *testing.T) {
	sm := NewSystemMonitor(context.Background(), 0, observability.NoOpLogger)

	assert.Equal(t, DefaultInterval, sm.interval)
	var names []string
	for _, metric := range sm.metrics {
		names = append(names, metric.Name())
	}
	assert.Equal(t, []string{"memory_percent", "cpu_percent"}, names)
}
