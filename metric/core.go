package metric

import "github.com/prometheus/client_golang/prometheus"

// CoreMetrics holds the platform-wide ingestion metrics every deployment
// gets regardless of component wiring.
type CoreMetrics struct {
	// IngestionsTotal counts finished ingestions by outcome ("ok" or the
	// failed stage name).
	IngestionsTotal *prometheus.CounterVec

	// StageDuration observes per-stage latency.
	StageDuration *prometheus.HistogramVec

	// WorkerRespawns counts worker process replacements across all pools.
	WorkerRespawns prometheus.Counter

	// TriplesEmitted counts triples handed to the store.
	TriplesEmitted prometheus.Counter
}

// newCoreMetrics creates the core metric set
func newCoreMetrics() *CoreMetrics {
	return &CoreMetrics{
		IngestionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "anamnesis_ingestions_total",
			Help: "Finished ingestions by outcome",
		}, []string{"outcome"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anamnesis_stage_duration_seconds",
			Help:    "Time spent per pipeline stage",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0},
		}, []string{"stage"}),
		WorkerRespawns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anamnesis_worker_respawns_total",
			Help: "Worker process replacements across all pools",
		}),
		TriplesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "anamnesis_triples_emitted_total",
			Help: "Triples handed to the triplestore",
		}),
	}
}

// register registers the core metrics with a prometheus registry
func (m *CoreMetrics) register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.IngestionsTotal,
		m.StageDuration,
		m.WorkerRespawns,
		m.TriplesEmitted,
	)
}
