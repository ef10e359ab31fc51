package telemetry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegisterAndCount(t *testing.T) {
	m := New()

	m.RolloutSteps.WithLabelValues("done").Add(5)
	m.Divergences.Inc()
	m.GraphBuilds.Inc()
	m.GraphEdges.WithLabelValues("encoder").Set(128)
	m.CacheHits.WithLabelValues("hit").Inc()

	assert.Equal(t, 5.0, testutil.ToFloat64(m.RolloutSteps.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Divergences))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.GraphEdges.WithLabelValues("encoder")))

	expected := `
# HELP rigno_graph_builds_total Total number of graph sets built (cache misses)
# TYPE rigno_graph_builds_total counter
rigno_graph_builds_total 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "rigno_graph_builds_total"))
}

func TestMetricsIndependentRegistries(t *testing.T) {
	a := New()
	b := New()
	a.Divergences.Inc()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Divergences))
}
