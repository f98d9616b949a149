package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsSnapshot aggregates solver counters for API consumption.
type MetricsSnapshot struct {
	RunsTotal                uint64    `json:"runs_total"`
	RunsFailed               uint64    `json:"runs_failed"`
	ActiveRuns               int64     `json:"active_runs"`
	QueueDepth               int64     `json:"queue_depth"`
	BestScoreSeen            float64   `json:"best_score_seen"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StoreHitRatio            float64   `json:"store_hit_ratio"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation for the solver and
// the HTTP surface, plus lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	runScore        prometheus.Histogram
	runsTotal       *prometheus.CounterVec
	runIterations   *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	activeRuns      prometheus.Gauge
	storeHits       prometheus.Counter
	storeMisses     prometheus.Counter

	runCount             uint64
	runFailedCount       uint64
	activeRunCount       int64
	queueDepthCount      int64
	storeHitCount        uint64
	storeMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64

	bestMu       sync.Mutex
	bestScore    float64
	bestScoreSet bool
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_run_duration_seconds",
		Help:    "Wall-clock duration of solver runs",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"strategy"})

	runScore := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_best_score",
		Help:    "Best score reached by finished solver runs",
		Buckets: []float64{0, 1000, 2000, 3000, 4000, 5000, 6000, 8000, 10000},
	})

	runsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_runs_total",
		Help: "Solver runs by strategy and outcome",
	}, []string{"strategy", "outcome"})

	runIterations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_iterations_total",
		Help: "Search iterations spent, by strategy",
	}, []string{"strategy"})

	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_queue_depth",
		Help: "Solve jobs waiting for a worker",
	})

	activeRuns := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "solver_active_runs",
		Help: "Solver runs currently executing",
	})

	storeHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "run_store_hits_total",
		Help: "Run store lookups that found a document",
	})

	storeMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "run_store_misses_total",
		Help: "Run store lookups that found nothing",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, runDuration, runScore, runsTotal, runIterations, queueDepth, activeRuns, storeHits, storeMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		runDuration:     runDuration,
		runScore:        runScore,
		runsTotal:       runsTotal,
		runIterations:   runIterations,
		queueDepth:      queueDepth,
		activeRuns:      activeRuns,
		storeHits:       storeHits,
		storeMisses:     storeMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RunStarted marks one run as executing.
func (m *MetricsService) RunStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
	atomic.AddInt64(&m.activeRunCount, 1)
}

// RunFinished records one finished run with its outcome and score.
func (m *MetricsService) RunFinished(strategy, outcome string, score float64, iterations uint64, duration time.Duration) {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
	atomic.AddInt64(&m.activeRunCount, -1)
	m.runDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	m.runsTotal.WithLabelValues(strategy, outcome).Inc()
	m.runIterations.WithLabelValues(strategy).Add(float64(iterations))
	atomic.AddUint64(&m.runCount, 1)
	if outcome == "failed" {
		atomic.AddUint64(&m.runFailedCount, 1)
		return
	}
	m.runScore.Observe(score)
	m.bestMu.Lock()
	if !m.bestScoreSet || score > m.bestScore {
		m.bestScore = score
		m.bestScoreSet = true
	}
	m.bestMu.Unlock()
}

// QueueDepthChanged moves the queue-depth gauge by delta.
func (m *MetricsService) QueueDepthChanged(delta int) {
	if m == nil {
		return
	}
	m.queueDepth.Add(float64(delta))
	atomic.AddInt64(&m.queueDepthCount, int64(delta))
}

// RecordStoreLookup records a run store hit or miss.
func (m *MetricsService) RecordStoreLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.storeHits.Inc()
		atomic.AddUint64(&m.storeHitCount, 1)
		return
	}
	m.storeMisses.Inc()
	atomic.AddUint64(&m.storeMissCount, 1)
}

// Snapshot returns aggregated solver metrics.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.storeHitCount)
	misses := atomic.LoadUint64(&m.storeMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var hitRatio float64
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	m.bestMu.Lock()
	best := m.bestScore
	m.bestMu.Unlock()

	return MetricsSnapshot{
		RunsTotal:                atomic.LoadUint64(&m.runCount),
		RunsFailed:               atomic.LoadUint64(&m.runFailedCount),
		ActiveRuns:               atomic.LoadInt64(&m.activeRunCount),
		QueueDepth:               atomic.LoadInt64(&m.queueDepthCount),
		BestScoreSeen:            best,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		StoreHitRatio:            hitRatio,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
