package forward

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trickstertwo/xforward"
)

// MetricsCollector observes forwarding outcomes. Implementations must be
// concurrency-safe; they are called from the forwarder loop and from Log.
type MetricsCollector interface {
	Forwarded(adapter string, level xforward.Level)
	Dropped(adapter string, reason DropReason)
	Flushed(adapter string)
}

type NoopMetricsCollector struct{}

func (*NoopMetricsCollector) Forwarded(string, xforward.Level) {}
func (*NoopMetricsCollector) Dropped(string, DropReason)       {}
func (*NoopMetricsCollector) Flushed(string)                   {}

// PrometheusCollector exports forwarding counters labelled by adapter name.
type PrometheusCollector struct {
	forwarded *prometheus.CounterVec
	dropped   *prometheus.CounterVec
	flushed   *prometheus.CounterVec
}

// NewPrometheusCollector registers the xforward counters on reg
// (prometheus.DefaultRegisterer when nil). It panics if they are already
// registered there, like promauto.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &PrometheusCollector{
		forwarded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xforward_events_forwarded_total",
			Help: "Events delivered to a destination, by adapter and level",
		}, []string{"adapter", "level"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xforward_events_dropped_total",
			Help: "Events not forwarded, by adapter and reason",
		}, []string{"adapter", "reason"}),
		flushed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "xforward_flushes_total",
			Help: "Flush markers delivered to a destination",
		}, []string{"adapter"}),
	}
}

func (p *PrometheusCollector) Forwarded(adapter string, level xforward.Level) {
	p.forwarded.WithLabelValues(adapter, level.String()).Inc()
}

func (p *PrometheusCollector) Dropped(adapter string, reason DropReason) {
	p.dropped.WithLabelValues(adapter, reason.String()).Inc()
}

func (p *PrometheusCollector) Flushed(adapter string) {
	p.flushed.WithLabelValues(adapter).Inc()
}
