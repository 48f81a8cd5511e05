// Package prometheus provides Prometheus collectors for somaguard metrics.
//
// [NewPrometheusExporter] accepts a [somaguard.Engine] and exposes an [http.Handler]
// that renders all somaguard counters and histograms in Prometheus text exposition
// format. Counter names are prefixed somaguard_*_total; the single histogram is
// somaguard_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
