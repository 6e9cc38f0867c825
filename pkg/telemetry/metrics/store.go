package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Append status label values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Eviction reason label values.
const (
	ReasonCapacity  = "capacity"
	ReasonRetention = "retention"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled controls whether metrics are recorded.
	Enabled bool

	// Namespace is the Prometheus namespace. Default: "ganymede".
	Namespace string

	// Subsystem is the Prometheus subsystem. Default: "store".
	Subsystem string
}

// StoreMetrics records Prometheus metrics for the investigation store.
// A nil *StoreMetrics is valid and records nothing, so the store can run
// without telemetry wired.
type StoreMetrics struct {
	enabled  bool
	registry *prometheus.Registry

	appendsTotal    *prometheus.CounterVec
	appendDuration  prometheus.Histogram
	evictionsTotal  *prometheus.CounterVec
	rotationsTotal  prometheus.Counter
	entryCount      prometheus.Gauge
	byteSize        prometheus.Gauge
	exportsTotal    *prometheus.CounterVec
}

// NewStoreMetrics creates the store metric set on the given registry.
// If registry is nil a fresh one is created.
func NewStoreMetrics(cfg *Config, registry *prometheus.Registry) *StoreMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "ganymede"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "store"
	}

	m := &StoreMetrics{
		enabled:  cfg.Enabled,
		registry: registry,
	}

	m.appendsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "appends_total",
		Help:      "Total append attempts by outcome.",
	}, []string{"status"})

	m.appendDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "append_duration_seconds",
		Help:      "Append latency including validation and file write.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	m.evictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "evictions_total",
		Help:      "Records removed from the live index, by reason.",
	}, []string{"reason"})

	m.rotationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "rotations_total",
		Help:      "Active segment rotations.",
	})

	m.entryCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "entry_count",
		Help:      "Live records in the store index.",
	})

	m.byteSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "active_segment_bytes",
		Help:      "Size of the active log segment in bytes.",
	})

	m.exportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "exports_total",
		Help:      "Export requests by format and outcome.",
	}, []string{"format", "status"})

	registry.MustRegister(
		m.appendsTotal,
		m.appendDuration,
		m.evictionsTotal,
		m.rotationsTotal,
		m.entryCount,
		m.byteSize,
		m.exportsTotal,
	)

	return m
}

// Registry returns the Prometheus registry backing this metric set.
func (m *StoreMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordAppend records one append attempt.
func (m *StoreMetrics) RecordAppend(ok bool, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}
	status := StatusOK
	if !ok {
		status = StatusError
	}
	m.appendsTotal.WithLabelValues(status).Inc()
	m.appendDuration.Observe(duration.Seconds())
}

// RecordEvictions records n records removed for the given reason.
func (m *StoreMetrics) RecordEvictions(reason string, n int) {
	if m == nil || !m.enabled || n <= 0 {
		return
	}
	m.evictionsTotal.WithLabelValues(reason).Add(float64(n))
}

// RecordRotation records one segment rotation.
func (m *StoreMetrics) RecordRotation() {
	if m == nil || !m.enabled {
		return
	}
	m.rotationsTotal.Inc()
}

// RecordExport records one export request.
func (m *StoreMetrics) RecordExport(format string, ok bool) {
	if m == nil || !m.enabled {
		return
	}
	status := StatusOK
	if !ok {
		status = StatusError
	}
	m.exportsTotal.WithLabelValues(format, status).Inc()
}

// SetEntryCount updates the live record gauge.
func (m *StoreMetrics) SetEntryCount(n int) {
	if m == nil || !m.enabled {
		return
	}
	m.entryCount.Set(float64(n))
}

// SetByteSize updates the active segment size gauge.
func (m *StoreMetrics) SetByteSize(b int64) {
	if m == nil || !m.enabled {
		return
	}
	m.byteSize.Set(float64(b))
}
