package monitor

import (
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type Metric interface {
	Name() string
	Sample()
	Aggregate() float64
	Clear()
}

func Average(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	total := 0.0
	for _, sample := range samples {
		total += sample
	}
	return total / float64(len(samples))
}

// samples is the guarded sample buffer shared by the gopsutil metrics.
type samples struct {
	values []float64
	mutex  sync.RWMutex
}

func (s *samples) add(v float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.values = append(s.values, v)
}

func (s *samples) Aggregate() float64 {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return Average(s.values)
}

func (s *samples) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.values = nil
}

// MemoryPercent samples system wide memory usage in percent.
type MemoryPercent struct {
	samples
}

func (mp *MemoryPercent) Name() string { return "memory_percent" }

func (mp *MemoryPercent) Sample() {
	virtualMem, err := mem.VirtualMemory()
	if err != nil {
		return
	}
	mp.add(virtualMem.UsedPercent)
}

// CPUPercent samples system wide CPU usage in percent since the previous
// sample.
type CPUPercent struct {
	samples
}

func (cp *CPUPercent) Name() string { return "cpu_percent" }

func (cp *CPUPercent) Sample() {
	percent, err := cpu.Percent(0, false)
	if err != nil || len(percent) == 0 {
		return
	}
	cp.add(percent[0])
}

// Probe describes the host once, for the start of a run.
func Probe() map[string]interface{} {
	info := make(map[string]interface{})
	if virtualMem, err := mem.VirtualMemory(); err == nil {
		info["memory_total_gb"] = virtualMem.Total / 1024 / 1024 / 1024
	}
	if count, err := cpu.Counts(true); err == nil {
		info["cpu_count_logical"] = count
	}
	return info
}
