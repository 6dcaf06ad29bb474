/*
Package metrics defines and registers aegis's Prometheus metrics and exposes
the liveness/readiness/health HTTP handlers used to probe the process.

Metrics are grouped by the subsystem that emits them:

  - aegis_entities_total, aegis_sessions_active: point-in-time gauges kept
    current by Collector's periodic sweep over the storage buckets.
  - aegis_resolve_duration_seconds, aegis_resolve_inheritance_depth: recorded
    by pkg/resolver around every GetMask call.
  - aegis_gate_decisions_total{outcome}: incremented by pkg/aegis around
    each gate.Require call.
  - aegis_planner_batch_size, aegis_planner_flush_duration_seconds,
    aegis_planner_capacity, aegis_planner_flushes_total{trigger},
    aegis_planner_queue_depth: the adaptive batching writer's own picture of
    its write pressure, updated from its writer loop.
  - aegis_session_validations_total{outcome}: incremented by pkg/session.
  - aegis_storage_tx_duration_seconds{kind}: registered for callers that time
    their own bbolt View/Update calls; no aegis package observes it.

# Usage

	timer := metrics.NewTimer()
	mask := resolver.GetMask(tx, subject, object)
	timer.ObserveDuration(metrics.ResolveDuration)

	http.Handle("/metrics", metrics.Handler())
	http.HandleFunc("/healthz", metrics.HealthHandler())
	http.HandleFunc("/readyz", metrics.ReadyHandler())
*/
package metrics
