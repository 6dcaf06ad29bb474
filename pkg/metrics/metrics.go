package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry metrics
	EntitiesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aegis_entities_total",
			Help: "Total number of registered entities",
		},
	)

	// Resolver metrics
	ResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aegis_resolve_duration_seconds",
			Help:    "Time taken to compute an effective capability mask",
			Buckets: prometheus.DefBuckets,
		},
	)

	ResolveInheritanceDepth = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aegis_resolve_inheritance_depth",
			Help:    "Number of inheritance hops walked to compute an effective mask",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	// Gate metrics
	GateDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_gate_decisions_total",
			Help: "Total number of gate decisions by outcome",
		},
		[]string{"outcome"}, // "allow" or "deny"
	)

	// Planner metrics
	PlannerBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aegis_planner_batch_size",
			Help:    "Number of operations flushed per planner batch",
			Buckets: []float64{1, 10, 50, 100, 200, 500, 1000, 2000, 5000},
		},
	)

	PlannerFlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aegis_planner_flush_duration_seconds",
			Help:    "Time taken to commit a planner batch",
			Buckets: prometheus.DefBuckets,
		},
	)

	PlannerCapacity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aegis_planner_capacity",
			Help: "Current adaptive batch capacity",
		},
	)

	PlannerFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_planner_flushes_total",
			Help: "Total number of planner flushes by trigger",
		},
		[]string{"trigger"}, // "capacity" or "timeout"
	)

	PlannerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aegis_planner_queue_depth",
			Help: "Number of operations currently buffered in the active batch",
		},
	)

	PlannerFlushErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "aegis_planner_flush_errors_total",
			Help: "Total number of planner batches that failed to commit and were dropped",
		},
	)

	// Session metrics
	SessionValidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aegis_session_validations_total",
			Help: "Total number of session validation attempts by outcome",
		},
		[]string{"outcome"}, // "valid", "invalid", "expired"
	)

	SessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "aegis_sessions_active",
			Help: "Number of session records currently stored, expired ones included",
		},
	)

	// Storage metrics
	StorageTxDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aegis_storage_tx_duration_seconds",
			Help:    "Transaction duration in seconds by kind",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"}, // "view" or "update"
	)
)

func init() {
	prometheus.MustRegister(EntitiesTotal)
	prometheus.MustRegister(ResolveDuration)
	prometheus.MustRegister(ResolveInheritanceDepth)
	prometheus.MustRegister(GateDecisionsTotal)
	prometheus.MustRegister(PlannerBatchSize)
	prometheus.MustRegister(PlannerFlushDuration)
	prometheus.MustRegister(PlannerCapacity)
	prometheus.MustRegister(PlannerFlushesTotal)
	prometheus.MustRegister(PlannerQueueDepth)
	prometheus.MustRegister(PlannerFlushErrors)
	prometheus.MustRegister(SessionValidationsTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(StorageTxDuration)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
