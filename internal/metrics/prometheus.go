// Package metrics records board and source activity as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	errs "github.com/matzehuels/boardviz/pkg/errors"
	"github.com/matzehuels/boardviz/pkg/observability"
)

// Prometheus implements the observability hooks with Prometheus collectors.
type Prometheus struct {
	connectionsTotal *prometheus.CounterVec
	edges            prometheus.Gauge
	renderDuration   *prometheus.HistogramVec
	renderBytes      prometheus.Gauge
	eventsTotal      *prometheus.CounterVec
	droppedTotal     *prometheus.CounterVec
	sourceStops      *prometheus.CounterVec
}

var (
	_ observability.BoardHooks  = (*Prometheus)(nil)
	_ observability.SourceHooks = (*Prometheus)(nil)
)

// NewPrometheus creates the collectors and registers them with reg. A nil
// reg uses the default registerer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Prometheus{
		connectionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardviz_connections_total",
				Help: "Connection reports handled by the board, by outcome and error code",
			},
			[]string{"status", "code"},
		),
		edges: f.NewGauge(prometheus.GaugeOpts{
			Name: "boardviz_edges",
			Help: "Connections currently drawn on the board",
		}),
		renderDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "boardviz_render_duration_seconds",
				Help:    "Duration of Graphviz renders in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		renderBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "boardviz_render_bytes",
			Help: "Size of the most recent successful render",
		}),
		eventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardviz_source_events_total",
				Help: "Events emitted by connection sources",
			},
			[]string{"source"},
		),
		droppedTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardviz_source_events_dropped_total",
				Help: "Events that never reached the presentation loop, by reason",
			},
			[]string{"source", "reason"},
		),
		sourceStops: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "boardviz_source_stops_total",
				Help: "Source workers that ended, by outcome",
			},
			[]string{"source", "status"},
		),
	}
}

// Install registers p as both the board and the source hooks.
func (p *Prometheus) Install() {
	observability.SetBoardHooks(p)
	observability.SetSourceHooks(p)
}

func (p *Prometheus) OnConnectionAdded(_ context.Context, _, _ string, edgeCount int) {
	p.connectionsTotal.WithLabelValues("accepted", "").Inc()
	p.edges.Set(float64(edgeCount))
}

func (p *Prometheus) OnConnectionRejected(_ context.Context, _, _ string, err error) {
	p.connectionsTotal.WithLabelValues("rejected", string(errs.GetCode(err))).Inc()
}

func (p *Prometheus) OnRender(_ context.Context, _, _, size int, duration time.Duration, err error) {
	p.renderDuration.WithLabelValues(status(err)).Observe(duration.Seconds())
	if err == nil {
		p.renderBytes.Set(float64(size))
	}
}

func (p *Prometheus) OnEventEmitted(_ context.Context, source string) {
	p.eventsTotal.WithLabelValues(source).Inc()
}

func (p *Prometheus) OnEventDropped(_ context.Context, source, reason string) {
	p.droppedTotal.WithLabelValues(source, reason).Inc()
}

func (p *Prometheus) OnSourceStopped(_ context.Context, source string, err error) {
	p.sourceStops.WithLabelValues(source, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
