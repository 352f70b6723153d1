package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the application.
// Authentication outcomes never tell duress logins apart from real ones.
type Metrics struct {
	registry *prometheus.Registry

	AuthAttempts      *prometheus.CounterVec
	PanicDeletes      *prometheus.CounterVec
	JourneysSwept     prometheus.Counter
	RecordsExpired    prometheus.Counter
	SOSActivations    prometheus.Counter
	MatchDuration     prometheus.Histogram
	ResourcesImported prometheus.Gauge
}

// New creates a new Metrics instance registered on its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		AuthAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safehaven_auth_attempts_total",
			Help: "Total number of authentication attempts by result",
		}, []string{"result"}), // result: "success", "failure"

		PanicDeletes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "safehaven_panic_deletes_total",
			Help: "Total number of panic deletes by result",
		}, []string{"result"}), // result: "complete", "partial"

		JourneysSwept: factory.NewCounter(prometheus.CounterOpts{
			Name: "safehaven_journeys_swept_total",
			Help: "Total number of journeys removed by the auto-delete sweep",
		}),

		RecordsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "safehaven_records_expired_total",
			Help: "Total number of records removed by the retention window",
		}),

		SOSActivations: factory.NewCounter(prometheus.CounterOpts{
			Name: "safehaven_sos_activations_total",
			Help: "Total number of SOS activations",
		}),

		MatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "safehaven_match_duration_seconds",
			Help:    "Duration of a full resource matching",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		ResourcesImported: factory.NewGauge(prometheus.GaugeOpts{
			Name: "safehaven_resources",
			Help: "Number of resources in the catalog after the last import",
		}),
	}
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// IncrementAuthAttempt records an authentication attempt.
func (m *Metrics) IncrementAuthAttempt(success bool) {
	if m == nil {
		return
	}

	result := "failure"
	if success {
		result = "success"
	}
	m.AuthAttempts.WithLabelValues(result).Inc()
}

// IncrementPanicDelete records a panic delete.
func (m *Metrics) IncrementPanicDelete(complete bool) {
	if m == nil {
		return
	}

	result := "partial"
	if complete {
		result = "complete"
	}
	m.PanicDeletes.WithLabelValues(result).Inc()
}

// AddJourneysSwept records swept journeys.
func (m *Metrics) AddJourneysSwept(n int) {
	if m != nil {
		m.JourneysSwept.Add(float64(n))
	}
}

// AddRecordsExpired records expired records.
func (m *Metrics) AddRecordsExpired(n int) {
	if m != nil {
		m.RecordsExpired.Add(float64(n))
	}
}

// IncrementSOSActivation records an SOS activation.
func (m *Metrics) IncrementSOSActivation() {
	if m != nil {
		m.SOSActivations.Inc()
	}
}

// ObserveMatchDuration records the duration of a resource matching.
func (m *Metrics) ObserveMatchDuration(d time.Duration) {
	if m != nil {
		m.MatchDuration.Observe(d.Seconds())
	}
}

// SetResources records the catalog size.
func (m *Metrics) SetResources(n int) {
	if m != nil {
		m.ResourcesImported.Set(float64(n))
	}
}
