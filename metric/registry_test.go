package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperpolymath/anamnesis/errors"
)

func TestNewRegistryCoreMetrics(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.Core)

	// Core metrics are live from construction.
	r.Core.IngestionsTotal.WithLabelValues("ok").Inc()
	r.Core.StageDuration.WithLabelValues("parse").Observe(0.01)
	r.Core.WorkerRespawns.Inc()
	r.Core.TriplesEmitted.Add(12)

	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["anamnesis_ingestions_total"])
	assert.True(t, names["anamnesis_stage_duration_seconds"])
	assert.True(t, names["anamnesis_worker_respawns_total"])
	assert.True(t, names["anamnesis_triples_emitted_total"])
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_inserts_total",
		Help: "test counter",
	})
	require.NoError(t, r.Register("store", "inserts", counter))

	err := r.Register("store", "inserts", counter)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pool_workers",
		Help: "test gauge",
	})
	require.NoError(t, r.Register("pool", "workers", gauge))

	assert.True(t, r.Unregister("pool", "workers"))
	assert.False(t, r.Unregister("pool", "workers"))

	// Freed for re-registration after unregister.
	assert.NoError(t, r.Register("pool", "workers", gauge))
}
