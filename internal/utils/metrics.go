// internal/utils/metrics.go
package utils

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector holds in-process counters, gauges and latency histograms.
type MetricsCollector struct {
	counters   map[string]*int64
	gauges     map[string]*int64
	histograms map[string]*Histogram

	mu sync.RWMutex
}

// Histogram tracks count, sum, min and max of recorded values.
type Histogram struct {
	count int64
	sum   int64
	min   int64
	max   int64
	mu    sync.Mutex
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]*int64),
		gauges:     make(map[string]*int64),
		histograms: make(map[string]*Histogram),
	}
}

// slot returns the cell for name in m, creating it under the write lock.
func (m *MetricsCollector) slot(cells map[string]*int64, name string) *int64 {
	m.mu.RLock()
	cell, ok := cells[name]
	m.mu.RUnlock()
	if ok {
		return cell
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cell, ok = cells[name]; !ok {
		cell = new(int64)
		cells[name] = cell
	}
	return cell
}

func (m *MetricsCollector) IncrementCounter(name string) {
	atomic.AddInt64(m.slot(m.counters, name), 1)
}

func (m *MetricsCollector) AddCounter(name string, value int64) {
	atomic.AddInt64(m.slot(m.counters, name), value)
}

func (m *MetricsCollector) GetCounterValue(name string) int64 {
	return atomic.LoadInt64(m.slot(m.counters, name))
}

func (m *MetricsCollector) IncGauge(name string) {
	atomic.AddInt64(m.slot(m.gauges, name), 1)
}

func (m *MetricsCollector) DecGauge(name string) {
	atomic.AddInt64(m.slot(m.gauges, name), -1)
}

func (m *MetricsCollector) GetGauge(name string) int64 {
	return atomic.LoadInt64(m.slot(m.gauges, name))
}

func (m *MetricsCollector) RecordHistogram(name string, value int64) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()

	if !ok {
		m.mu.Lock()
		if h, ok = m.histograms[name]; !ok {
			h = &Histogram{min: value, max: value}
			m.histograms[name] = h
		}
		m.mu.Unlock()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	if value < h.min {
		h.min = value
	}
	if value > h.max {
		h.max = value
	}
}

// Snapshot returns a JSON-friendly copy of every metric.
func (m *MetricsCollector) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for name, c := range m.counters {
		counters[name] = atomic.LoadInt64(c)
	}
	gauges := make(map[string]int64, len(m.gauges))
	for name, g := range m.gauges {
		gauges[name] = atomic.LoadInt64(g)
	}
	histograms := make(map[string]map[string]int64, len(m.histograms))
	for name, h := range m.histograms {
		h.mu.Lock()
		histograms[name] = map[string]int64{
			"count": h.count,
			"sum":   h.sum,
			"min":   h.min,
			"max":   h.max,
		}
		h.mu.Unlock()
	}

	return map[string]interface{}{
		"counters":   counters,
		"gauges":     gauges,
		"histograms": histograms,
	}
}

// PipelineMetrics names the metrics recorded by the generation, export and
// HTTP layers.
type PipelineMetrics struct {
	metrics *MetricsCollector
	logger  *Logger
}

func NewPipelineMetrics(metrics *MetricsCollector, logger *Logger) *PipelineMetrics {
	return &PipelineMetrics{metrics: metrics, logger: logger}
}

func (pm *PipelineMetrics) Collector() *MetricsCollector {
	return pm.metrics
}

// RecordGeneration records one upstream call for a wizard step.
func (pm *PipelineMetrics) RecordGeneration(step string, duration time.Duration, err error) {
	pm.metrics.IncrementCounter("generation_requests_total")
	pm.metrics.IncrementCounter("generation_requests_" + step)
	pm.metrics.RecordHistogram("generation_latency_ms", duration.Milliseconds())
	if err != nil {
		pm.metrics.IncrementCounter("generation_failures_total")
		pm.logger.Warn("generation failed", "step", step, "duration_ms", duration.Milliseconds(), "error", err)
		return
	}
	pm.logger.Debug("generation completed", "step", step, "duration_ms", duration.Milliseconds())
}

// RecordExport records one export artifact build.
func (pm *PipelineMetrics) RecordExport(format string, files int, duration time.Duration, err error) {
	pm.metrics.IncrementCounter("exports_total")
	pm.metrics.IncrementCounter("exports_" + format)
	pm.metrics.RecordHistogram("export_latency_ms", duration.Milliseconds())
	if err != nil {
		pm.metrics.IncrementCounter("export_failures_total")
		pm.logger.Error("export failed", "format", format, "files", files, "error", err)
		return
	}
	pm.logger.Info("export built", "format", format, "files", files, "duration_ms", duration.Milliseconds())
}

// RecordRequest records one HTTP request.
func (pm *PipelineMetrics) RecordRequest(route, method string, status int, duration time.Duration) {
	pm.metrics.IncrementCounter("api_requests_total")
	pm.metrics.IncrementCounter(fmt.Sprintf("api_responses_%dxx", status/100))
	pm.metrics.RecordHistogram("api_response_time_ms", duration.Milliseconds())
}
