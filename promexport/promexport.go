// Package promexport exposes the most recent scalar values logged by a metricslog.Logger
// as Prometheus gauges, so that a running experiment can be scraped while it progresses.
package promexport

import (
	"net/http"

	"github.com/PenroseTiles/amplification/eventfile"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter is a metricslog.Sink that keeps one gauge per scalar tag.
type Exporter struct {
	reg     *prometheus.Registry
	scalars *prometheus.GaugeVec
	step    prometheus.Gauge
	events  prometheus.Counter
}

// New returns an Exporter with its own registry. Metric names are prefixed with namespace.
func New(namespace string) *Exporter {
	e := &Exporter{
		reg: prometheus.NewRegistry(),
		scalars: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scalar",
			Help:      "Last logged value of each scalar",
		}, []string{"tag"}),
		step: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "step",
			Help:      "Step of the last logged record",
		}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total records logged",
		}),
	}
	e.reg.MustRegister(e.scalars, e.step, e.events)
	return e
}

// Write updates the gauges from the event.
func (e *Exporter) Write(ev *eventfile.Event) error {
	for _, s := range ev.Scalars {
		e.scalars.WithLabelValues(s.Tag).Set(float64(s.Value))
	}
	e.step.Set(float64(ev.Step))
	e.events.Inc()
	return nil
}

// Close does nothing; the gauges keep their last values.
func (e *Exporter) Close() error { return nil }

// Registry returns the registry holding the exporter's metrics.
func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

// Handler returns an HTTP handler serving the metrics.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}
