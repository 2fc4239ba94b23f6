// Package prometheus exposes goGate engine metrics to Prometheus.
//
// [Collector] implements the client_golang Collector interface and turns each
// [goGate.Engine.MetricsSnapshot] into const counters (gogate_*_total) and
// const histograms (gogate_authenticate_latency_seconds,
// gogate_reissue_latency_seconds). [Handler] serves a private registry holding
// one collector.
//
// # What this package must NOT do
//
//   - Register in the global Prometheus registry. Callers register the
//     Collector or mount the Handler.
//   - Mutate engine state.
package prometheus
