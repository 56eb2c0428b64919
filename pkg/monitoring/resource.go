/*
File: resource.go
Description: Process resource monitor for the Riven Fuzzer. Samples Go runtime
memory and goroutine statistics whenever campaign statistics are reported, and
warns when heap usage keeps growing across consecutive reports. In-process
fuzzing shares the heap with the target, so a leaking target starves the
fuzzer itself.
*/

package monitoring

import (
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/rivenfuzz/riven-fuzzer/pkg/interfaces"
)

// growthAlertStreak is how many consecutive growing samples trigger a warning.
const growthAlertStreak = 5

// ResourceMonitor reports process resource usage alongside campaign stats.
type ResourceMonitor struct {
	logger    *logrus.Logger
	lastHeap  uint64
	growth    int
	peakHeap  uint64
	lastNumGC uint32
}

// NewResourceMonitor creates a resource monitor.
func NewResourceMonitor(logger *logrus.Logger) *ResourceMonitor {
	return &ResourceMonitor{logger: logger}
}

// Report samples the runtime and logs resource usage.
func (m *ResourceMonitor) Report(stats interfaces.CampaignStats) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	if ms.HeapAlloc > m.peakHeap {
		m.peakHeap = ms.HeapAlloc
	}
	if ms.HeapAlloc > m.lastHeap {
		m.growth++
	} else {
		m.growth = 0
	}
	m.lastHeap = ms.HeapAlloc

	m.logger.WithFields(logrus.Fields{
		"heap_alloc_mb": ms.HeapAlloc / (1 << 20),
		"heap_peak_mb":  m.peakHeap / (1 << 20),
		"goroutines":    runtime.NumGoroutine(),
		"gc_runs":       ms.NumGC - m.lastNumGC,
		"executions":    stats.Executions,
	}).Debug("Resource usage")
	m.lastNumGC = ms.NumGC

	if m.growth >= growthAlertStreak {
		m.logger.WithFields(logrus.Fields{
			"heap_alloc_mb": ms.HeapAlloc / (1 << 20),
			"samples":       m.growth,
		}).Warn("Heap usage growing across consecutive samples, target may be leaking")
	}
}
