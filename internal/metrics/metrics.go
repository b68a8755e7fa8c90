// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics - 예외 알림 파이프라인 메트릭
type Metrics struct {
	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	errorsSeen         prometheus.Counter
	operationsNotified prometheus.Counter
	operationsSkipped  prometheus.Counter
	deliveriesTotal    *prometheus.CounterVec
	forwardsTotal      *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics - 전용 registry에 메트릭 등록
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "exception_notifier",
				Name:      "runs_total",
				Help:      "Scheduled runs by result (notified, empty, failed).",
			},
			[]string{"result"},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "exception_notifier",
				Name:      "run_duration_seconds",
				Help:      "Duration of one query-dedupe-notify run.",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		errorsSeen: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "exception_notifier",
				Name:      "errors_seen_total",
				Help:      "Error rows returned by the telemetry query.",
			},
		),
		operationsNotified: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "exception_notifier",
				Name:      "operations_notified_total",
				Help:      "Distinct operations included in sent notifications.",
			},
		),
		operationsSkipped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "exception_notifier",
				Name:      "operations_suppressed_total",
				Help:      "Operations left out of a notification because they were notified recently.",
			},
		),
		deliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "exception_notifier",
				Name:      "webhook_deliveries_total",
				Help:      "Chat webhook deliveries by source and HTTP status code.",
			},
			[]string{"source", "code"},
		),
		forwardsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "exception_notifier",
				Name:      "forward_requests_total",
				Help:      "Inbound /exceptions requests by outcome.",
			},
			[]string{"outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.errorsSeen,
		m.operationsNotified,
		m.operationsSkipped,
		m.deliveriesTotal,
		m.forwardsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRun(result string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(seconds)
}

func (m *Metrics) AddErrorsSeen(n int) {
	if m == nil {
		return
	}
	m.errorsSeen.Add(float64(n))
}

func (m *Metrics) AddOperationsNotified(n int) {
	if m == nil {
		return
	}
	m.operationsNotified.Add(float64(n))
}

func (m *Metrics) AddSuppressed(n int) {
	if m == nil {
		return
	}
	m.operationsSkipped.Add(float64(n))
}

// code가 0이면 전송 자체가 실패한 경우
func (m *Metrics) ObserveDelivery(source string, code int) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.deliveriesTotal.WithLabelValues(source, label).Inc()
}

func (m *Metrics) ObserveForward(outcome string) {
	if m == nil {
		return
	}
	m.forwardsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler - /metrics 핸들러
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
