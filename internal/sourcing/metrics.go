package sourcing

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	candidatePoolSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sourcing_candidate_pool_size",
		Help: "Number of sellers in each pool classification",
	}, []string{"class"})

	optimizationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sourcing_optimization_duration_seconds",
		Help:    "Time taken by the optimizer by backend",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	}, []string{"backend"})

	optimizationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcing_optimization_errors_total",
		Help: "Total optimization errors by backend and kind",
	}, []string{"backend", "kind"})

	masksEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sourcing_builtin_masks_evaluated",
		Help:    "Number of bitmasks evaluated by the built-in optimizer per run",
		Buckets: []float64{10, 100, 1000, 10000, 100000, 1e6, 1e7},
	})

	solverOutcome = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcing_lp_solver_outcomes_total",
		Help: "LP solver invocation outcomes",
	}, []string{"outcome"}) // outcome: cache_hit, solved, failed, parse_failed

	lpCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sourcing_lp_cache_hits_total",
		Help: "LP artifact cache hits vs misses",
	}, []string{"result"})
)

// Metrics records prometheus metrics for the sourcing package.
type Metrics struct{}

// NewMetrics creates a new Metrics recorder.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCandidatePool records the size of each pool classification.
func (m *Metrics) RecordCandidatePool(critical, supplemental, unselected int) {
	candidatePoolSize.WithLabelValues(string(ClassCritical)).Set(float64(critical))
	candidatePoolSize.WithLabelValues(string(ClassSupplemental)).Set(float64(supplemental))
	candidatePoolSize.WithLabelValues(string(ClassUnselected)).Set(float64(unselected))
}

// RecordOptimization records a completed optimizer run.
func (m *Metrics) RecordOptimization(backend string, duration time.Duration, err error) {
	optimizationDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		optimizationErrors.WithLabelValues(backend, errorKind(err)).Inc()
	}
}

// RecordMasksEvaluated records how many bitmasks the built-in optimizer
// actually evaluated in one run (after covering/popcount pruning).
func (m *Metrics) RecordMasksEvaluated(count int64) {
	masksEvaluated.Observe(float64(count))
}

// RecordSolverOutcome records the outcome of one LP solver invocation.
func (m *Metrics) RecordSolverOutcome(outcome string) {
	solverOutcome.WithLabelValues(outcome).Inc()
}

// RecordLPCache records an LP artifact cache hit or miss.
func (m *Metrics) RecordLPCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	lpCacheHits.WithLabelValues(result).Inc()
}

func errorKind(err error) string {
	switch err.(type) {
	case ErrPoolTooSmall:
		return "pool_too_small"
	case ErrInvalidConfig:
		return "invalid_config"
	default:
		return "other"
	}
}
