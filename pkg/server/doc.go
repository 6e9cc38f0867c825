// Package server exposes the investigation store over HTTP: record ingest,
// cursor-paginated query, streaming export, doc-issue drafting, health
// probes and Prometheus metrics. Handlers translate the error taxonomy to
// status codes; all storage semantics live below this layer.
package server
