package scraper

import (
	"sync"
	"time"

	"job-pipeline-go/internal/models"
)

// PipelineMetrics accumulates results across runs
type PipelineMetrics struct {
	TotalRuns           int64
	TotalFailedRuns     int64
	TotalJobsScraped    int64
	TotalJobsSaved      int64
	TotalDuplicates     int64
	TotalDiscarded      int64
	LastRunDuration     time.Duration
	StrategyPerformance map[models.StrategyName]StrategyMetrics
}

// StrategyMetrics tracks performance per strategy
type StrategyMetrics struct {
	Attempts     int64
	Successes    int64
	Failures     int64
	Records      int64
	ResponseTime time.Duration
	LastKind     string
	LastUsed     time.Time
}

// Metrics is a concurrency-safe PipelineMetrics recorder.
type Metrics struct {
	mu      sync.RWMutex
	current PipelineMetrics
}

func NewMetrics() *Metrics {
	return &Metrics{
		current: PipelineMetrics{StrategyPerformance: make(map[models.StrategyName]StrategyMetrics)},
	}
}

// RecordRun folds one pipeline result into the totals.
func (m *Metrics) RecordRun(result *Result) {
	if result == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current.TotalRuns++
	if result.Failure != nil {
		m.current.TotalFailedRuns++
	}
	m.current.TotalJobsScraped += int64(len(result.Records))
	m.current.TotalDuplicates += int64(result.Diagnostic.Duplicates)
	m.current.TotalDiscarded += int64(result.Diagnostic.DiscardedCount)
	m.current.LastRunDuration = time.Duration(result.Diagnostic.ElapsedMs) * time.Millisecond

	now := time.Now()
	for _, a := range result.Diagnostic.Attempts {
		perf := m.current.StrategyPerformance[a.Strategy]
		perf.Attempts++
		if a.succeeded() {
			perf.Successes++
		} else {
			perf.Failures++
		}
		perf.Records += int64(a.Records)
		perf.ResponseTime = a.Elapsed
		perf.LastKind = string(a.Kind)
		perf.LastUsed = now
		m.current.StrategyPerformance[a.Strategy] = perf
	}
}

// RecordStored counts what the sink did with a run's records.
func (m *Metrics) RecordStored(inserted, duplicates int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current.TotalJobsSaved += int64(inserted)
	m.current.TotalDuplicates += int64(duplicates)
}

// Snapshot returns a copy of the current totals.
func (m *Metrics) Snapshot() PipelineMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.current
	snap.StrategyPerformance = make(map[models.StrategyName]StrategyMetrics, len(m.current.StrategyPerformance))
	for k, v := range m.current.StrategyPerformance {
		snap.StrategyPerformance[k] = v
	}
	return snap
}
