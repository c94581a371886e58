package metrics

import (
	"bytes"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Failure classes recorded by the fault barrier.
const (
	ClassContract = "contract"
	ClassDomain   = "domain"
	ClassFault    = "fault"
)

// Metrics holds the collectors for one FrameBridge instance. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	LiveHandles     *prometheus.GaugeVec
	BarrierFailures *prometheus.CounterVec
	UDFInvocations  *prometheus.CounterVec
	UDFCleanups     prometheus.Counter
	CollectDuration prometheus.Histogram
}

// New creates collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		LiveHandles: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "framebridge",
			Name:      "live_handles",
			Help:      "Handles issued to the host and not yet freed or consumed.",
		}, []string{"kind"}),
		BarrierFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framebridge",
			Name:      "barrier_failures_total",
			Help:      "Entry points that returned a failure sentinel.",
		}, []string{"class"}),
		UDFInvocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framebridge",
			Name:      "udf_invocations_total",
			Help:      "Host callback invocations by outcome.",
		}, []string{"status"}),
		UDFCleanups: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "framebridge",
			Name:      "udf_cleanups_total",
			Help:      "Host cleanup routines run.",
		}),
		CollectDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "framebridge",
			Name:      "collect_duration_seconds",
			Help:      "Plan execution time.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
	}
}

func (m *Metrics) HandleOpened(kind string) {
	if m == nil {
		return
	}
	m.LiveHandles.WithLabelValues(kind).Inc()
}

func (m *Metrics) HandleClosed(kind string) {
	if m == nil {
		return
	}
	m.LiveHandles.WithLabelValues(kind).Dec()
}

func (m *Metrics) Failure(class string) {
	if m == nil {
		return
	}
	m.BarrierFailures.WithLabelValues(class).Inc()
}

func (m *Metrics) UDFCall(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.UDFInvocations.WithLabelValues(status).Inc()
}

func (m *Metrics) UDFCleanup() {
	if m == nil {
		return
	}
	m.UDFCleanups.Inc()
}

func (m *Metrics) ObserveCollect(seconds float64) {
	if m == nil {
		return
	}
	m.CollectDuration.Observe(seconds)
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Text renders all collectors in the Prometheus text exposition format.
func (m *Metrics) Text() (string, error) {
	if m == nil {
		return "", nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return "", fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return buf.String(), nil
}
