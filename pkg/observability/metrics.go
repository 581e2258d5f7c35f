package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/alignenv/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alignenv"

// Metrics collects counters and histograms fed by lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	Accesses    *prometheus.CounterVec
	IdleCycles  *prometheus.HistogramVec
	Records     *prometheus.CounterVec
	RecordBytes *prometheus.HistogramVec
	Splits      *prometheus.CounterVec
	BytesNeeded *prometheus.HistogramVec
	Scenarios   *prometheus.CounterVec
	LastCycle   prometheus.Gauge
}

// NewMetrics creates and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Accesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accesses_total",
			Help:      "Completed control-plane accesses.",
		}, []string{"sequence", "direction", "status"}),
		IdleCycles: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "idle_cycles",
			Help:      "Idle gaps inserted between stimulus items.",
			Buckets:   prometheus.LinearBuckets(0, 5, 5),
		}, []string{"sequence"}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Records published by the bridges.",
		}, []string{"stream", "boundary", "status"}),
		RecordBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "record_payload_bytes",
			Help:      "Payload size of published records.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"stream"}),
		Splits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "splits_total",
			Help:      "Predicted split descriptors.",
		}, []string{"stream", "emittable"}),
		BytesNeeded: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "split_bytes_needed",
			Help:      "Bytes still missing from the in-flight fragment after a split.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}, []string{"stream"}),
		Scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scenarios_total",
			Help:      "Finished scenarios by result.",
		}, []string{"scenario", "result"}),
		LastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_event_cycle",
			Help:      "Clock cycle of the most recent event.",
		}),
	}
	m.registry.MustRegister(
		m.Accesses, m.IdleCycles, m.Records, m.RecordBytes,
		m.Splits, m.BytesNeeded, m.Scenarios, m.LastCycle,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that update the metrics.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAccess: func(_ context.Context, e *domain.AccessEvent) {
			m.Accesses.WithLabelValues(e.Sequence, direction(e.Request.Write), e.Response.Status.String()).Inc()
			m.LastCycle.Set(float64(e.Cycle))
		},
		OnIdle: func(_ context.Context, e *domain.IdleEvent) {
			m.IdleCycles.WithLabelValues(e.Sequence).Observe(float64(e.Cycles))
		},
		OnRecord: func(_ context.Context, e *domain.RecordEvent) {
			m.Records.WithLabelValues(e.Stream, e.Record.Boundary.String(), e.Record.Status.String()).Inc()
			if e.Record.Boundary == domain.BoundaryEnd {
				m.RecordBytes.WithLabelValues(e.Stream).Observe(float64(len(e.Record.Payload)))
			}
			m.LastCycle.Set(float64(e.Cycle))
		},
		OnSplit: func(_ context.Context, e *domain.SplitEvent) {
			m.Splits.WithLabelValues(e.Stream, strconv.FormatBool(e.Descriptor.Emittable())).Inc()
			m.BytesNeeded.WithLabelValues(e.Stream).Observe(float64(e.Descriptor.BytesNeeded))
		},
		OnScenarioEnd: func(_ context.Context, e *domain.ScenarioEvent) {
			result := "passed"
			if e.Err != nil {
				result = "failed"
			}
			m.Scenarios.WithLabelValues(e.Scenario, result).Inc()
			m.LastCycle.Set(float64(e.Cycle))
		},
	}
}

func direction(write bool) string {
	if write {
		return "write"
	}
	return "read"
}
