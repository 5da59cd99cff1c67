package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chatgeopt"

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Assistant requests.
	Requests        *prometheus.CounterVec   // labels: mode={claim,road}, outcome={ok,malformed,upstream,error}
	RequestDuration *prometheus.HistogramVec // labels: mode

	// Chat model calls.
	LLMDuration *prometheus.HistogramVec // labels: task={claim,location}

	// Geocoding.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={found,miss,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram

	// Map-data queries.
	MapDataRequests *prometheus.CounterVec // labels: outcome={success,error}
	WaysFetched     prometheus.Histogram

	// Risk bucketing.
	RiskCells *prometheus.CounterVec // labels: tier

	// Reference data and claim publishing.
	ReferenceDataLoaded prometheus.Gauge
	ClaimsPublished     *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_requests_total",
			Help:      "Assistant requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assistant_request_duration_seconds",
			Help:      "End-to-end duration of one assistant request.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"mode"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_call_duration_seconds",
			Help:      "Chat model call duration by extraction task.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"task"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Forward geocoding requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Geocoding API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		MapDataRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "map_data_requests_total",
			Help:      "Map-data (Overpass) queries by outcome.",
		}, []string{"outcome"}),
		WaysFetched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "map_data_ways_fetched",
			Help:      "Number of highway ways returned per map-data query.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
		RiskCells: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_cells_classified_total",
			Help:      "Cells classified for risk maps, by tier.",
		}, []string{"tier"}),
		ReferenceDataLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_data_loaded",
			Help:      "1 once event and road reference data are loaded, 0 otherwise.",
		}),
		ClaimsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_published_total",
			Help:      "Labelled claims written to the claims topic, by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.RequestDuration,
		m.LLMDuration,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.MapDataRequests,
		m.WaysFetched,
		m.RiskCells,
		m.ReferenceDataLoaded,
		m.ClaimsPublished,
	}
}
