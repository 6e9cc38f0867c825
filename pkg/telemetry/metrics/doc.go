// Package metrics exposes Prometheus metrics for the investigation store:
// append outcomes, evictions by reason, rotations, and gauges mirroring the
// store's entry count and active segment size. Metrics are registered on a
// dedicated registry so tests can assert against isolated collectors.
package metrics
