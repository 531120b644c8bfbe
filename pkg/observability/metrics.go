package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector emitted by quill.
type Metrics struct {
	registry *prometheus.Registry

	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	BatchItems      *prometheus.CounterVec
	Substitutions   *prometheus.CounterVec
	PendingRequests prometheus.Gauge
	DroppedProgress *prometheus.CounterVec
	RelayClients    prometheus.Gauge
}

// NewMetrics builds and registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_commands_total",
				Help: "Commands executed, by command and outcome",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quill_command_duration_seconds",
				Help:    "Duration of command executions",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 15, 60},
			},
			[]string{"command"},
		),
		BatchItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_batch_items_total",
				Help: "Items processed by chunked batches, by outcome",
			},
			[]string{"command", "outcome"},
		),
		Substitutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_font_substitutions_total",
				Help: "Fonts replaced by the fallback face",
			},
			[]string{"strategy"},
		),
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quill_pending_requests",
			Help: "Requests awaiting a response in the correlator",
		}),
		DroppedProgress: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quill_progress_dropped_total",
				Help: "Progress events dropped, by reason",
			},
			[]string{"reason"},
		),
		RelayClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quill_relay_clients",
			Help: "Websocket peers connected to the relay",
		}),
	}

	m.registry.MustRegister(
		m.Commands,
		m.CommandDuration,
		m.BatchItems,
		m.Substitutions,
		m.PendingRequests,
		m.DroppedProgress,
		m.RelayClients,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveCommand records one finished command.
func (m *Metrics) ObserveCommand(command string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Commands.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
