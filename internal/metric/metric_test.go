package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordsSent.WithLabelValues("a").Inc()
	m.RecordsSent.WithLabelValues("a").Inc()
	m.ConfigLoads.WithLabelValues("fallback").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsSent.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigLoads.WithLabelValues("fallback")))

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "roxot_collector_records_sent_total")
	assert.Contains(t, names, "roxot_collector_config_loads_total")
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	_, err := NewMetrics(registry)
	require.NoError(t, err)

	_, err = NewMetrics(registry)
	assert.Error(t, err)
}
