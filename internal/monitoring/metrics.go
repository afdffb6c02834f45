package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the panel host.
type Metrics struct {
	// Message bus metrics
	EnvelopesRouted  prometheus.Counter
	EnvelopesDropped *prometheus.CounterVec
	MessagesSent     *prometheus.CounterVec

	// Focus metrics
	FocusAttempts prometheus.Counter
	FocusAborts   *prometheus.CounterVec

	// Panel lifecycle metrics
	PanelsActive  prometheus.Gauge
	PanelsCreated prometheus.Counter
}

// New creates metrics registered on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates metrics registered on the provided registerer.
// Tests pass a fresh registry to avoid duplicate registration.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EnvelopesRouted: factory.NewCounter(prometheus.CounterOpts{
			Name: "panelhost_envelopes_routed_total",
			Help: "Inbound envelopes delivered to a subscriber",
		}),
		EnvelopesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panelhost_envelopes_dropped_total",
			Help: "Inbound envelopes dropped before delivery",
		}, []string{"reason"}),
		MessagesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panelhost_messages_sent_total",
			Help: "Outbound messages posted to panel surfaces",
		}, []string{"channel"}),
		FocusAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "panelhost_focus_attempts_total",
			Help: "Deferred focus handoff attempts executed",
		}),
		FocusAborts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "panelhost_focus_aborts_total",
			Help: "Deferred focus handoff attempts aborted by a guard",
		}, []string{"reason"}),
		PanelsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "panelhost_panels_active",
			Help: "Panels currently live",
		}),
		PanelsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "panelhost_panels_created_total",
			Help: "Panels created since start",
		}),
	}
}

// EnvelopeRouted satisfies bus.Stats.
func (m *Metrics) EnvelopeRouted() {
	m.EnvelopesRouted.Inc()
}

// EnvelopeDropped satisfies bus.Stats.
func (m *Metrics) EnvelopeDropped(reason string) {
	m.EnvelopesDropped.WithLabelValues(reason).Inc()
}

// MessageSent satisfies bus.Stats.
func (m *Metrics) MessageSent(channel string) {
	m.MessagesSent.WithLabelValues(channel).Inc()
}

// FocusAttempt satisfies focus.Stats.
func (m *Metrics) FocusAttempt() {
	m.FocusAttempts.Inc()
}

// FocusAborted satisfies focus.Stats.
func (m *Metrics) FocusAborted(reason string) {
	m.FocusAborts.WithLabelValues(reason).Inc()
}

// PanelCreated records a panel construction.
func (m *Metrics) PanelCreated() {
	m.PanelsCreated.Inc()
	m.PanelsActive.Inc()
}

// PanelDisposed records a panel teardown.
func (m *Metrics) PanelDisposed() {
	m.PanelsActive.Dec()
}
