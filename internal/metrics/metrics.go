// Package metrics exposes Prometheus counters for the tooltip lifecycle.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tokentip"

// Outcomes of a show request.
const (
	OutcomeShown   = "shown"
	OutcomeRefused = "refused"
	OutcomeFailed  = "failed"
	OutcomeStale   = "stale"
)

// Metrics holds the tooltip collectors. A nil *Metrics records nothing.
type Metrics struct {
	shows          *prometheus.CounterVec
	refusals       *prometheus.CounterVec
	hides          prometheus.Counter
	codeErrors     prometheus.Counter
	renderDuration prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		shows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shows_total",
			Help:      "Tooltip show requests by outcome",
		}, []string{"outcome"}),
		refusals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refusals_total",
			Help:      "Refused tooltip show requests by reason",
		}, []string{"reason"}),
		hides: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hides_total",
			Help:      "Tooltip hide calls",
		}),
		codeErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_row_errors_total",
			Help:      "Code rows that failed to compile or evaluate",
		}),
		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Time spent generating rows and rendering the tooltip",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
	}
}

// Show records the outcome of a show request.
func (m *Metrics) Show(outcome string) {
	if m == nil {
		return
	}
	m.shows.WithLabelValues(outcome).Inc()
}

// Refused records a refused show and its reason.
func (m *Metrics) Refused(reason string) {
	if m == nil {
		return
	}
	m.shows.WithLabelValues(OutcomeRefused).Inc()
	m.refusals.WithLabelValues(reason).Inc()
}

// Hide records a hide.
func (m *Metrics) Hide() {
	if m == nil {
		return
	}
	m.hides.Inc()
}

// CodeError records a failed code row.
func (m *Metrics) CodeError() {
	if m == nil {
		return
	}
	m.codeErrors.Inc()
}

// ObserveRender records how long a render pass took.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
}
