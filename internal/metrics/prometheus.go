package metrics

import (
	"github.com/infodancer/osmtpd-filter/filter"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements filter.Collector using Prometheus metrics.
type PrometheusCollector struct {
	sessionsTotal  prometheus.Counter
	sessionsActive prometheus.Gauge
	eventsTotal    *prometheus.CounterVec
	verdictsTotal  *prometheus.CounterVec
	fatalExits     prometheus.Counter
}

// NewPrometheusCollector creates a new PrometheusCollector with all metrics
// registered against reg.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	c := &PrometheusCollector{
		sessionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "osmtpd_filter_sessions_total",
			Help: "Total number of sessions opened.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "osmtpd_filter_sessions_active",
			Help: "Number of currently open sessions.",
		}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmtpd_filter_events_total",
			Help: "Total number of events dispatched, by phase.",
		}, []string{"phase"}),
		verdictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "osmtpd_filter_verdicts_total",
			Help: "Total number of verdicts emitted, by kind.",
		}, []string{"kind"}),
		fatalExits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "osmtpd_filter_fatal_exits_total",
			Help: "Total number of fatal protocol or usage errors.",
		}),
	}

	reg.MustRegister(
		c.sessionsTotal,
		c.sessionsActive,
		c.eventsTotal,
		c.verdictsTotal,
		c.fatalExits,
	)

	return c
}

// SessionOpened increments the session counter and active gauge.
func (c *PrometheusCollector) SessionOpened() {
	c.sessionsTotal.Inc()
	c.sessionsActive.Inc()
}

// SessionClosed decrements the active sessions gauge.
func (c *PrometheusCollector) SessionClosed() {
	c.sessionsActive.Dec()
}

// EventDispatched increments the per-phase event counter.
func (c *PrometheusCollector) EventDispatched(phase filter.Phase) {
	c.eventsTotal.WithLabelValues(phase.String()).Inc()
}

// VerdictEmitted increments the per-kind verdict counter.
func (c *PrometheusCollector) VerdictEmitted(kind string) {
	c.verdictsTotal.WithLabelValues(kind).Inc()
}

// FatalExit increments the fatal-exit counter.
func (c *PrometheusCollector) FatalExit() {
	c.fatalExits.Inc()
}
