package telemetry

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartrouter/internal/domain"
)

func TestPrometheusMetricsUsesProvidedRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewPrometheusMetrics(registry)
	m.ObserveBuild(domain.BuildResultRebuilt, 20*time.Millisecond)
	m.ObserveBuild(domain.BuildResultCacheHit, time.Millisecond)
	m.ObserveScanProblem(domain.ProblemPathEscape)
	m.SetRegistryUnits(7)
	m.ObserveDecision(domain.OutcomeAskMenu)

	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "smart_router_build_duration_seconds")
	assert.Contains(t, names, "smart_router_builds_total")
	assert.Contains(t, names, "smart_router_scan_problems_total")
	assert.Contains(t, names, "smart_router_registry_units")
	assert.Contains(t, names, "smart_router_decisions_total")
	assert.Contains(t, names, "smart_router_last_build_timestamp_seconds")

	assert.Equal(t, float64(1), valueOf(t, registry, "smart_router_builds_total", "rebuilt"))
	assert.Equal(t, float64(1), valueOf(t, registry, "smart_router_scan_problems_total", domain.ProblemPathEscape))
	assert.Equal(t, float64(7), valueOf(t, registry, "smart_router_registry_units", ""))
	assert.Equal(t, float64(1), valueOf(t, registry, "smart_router_decisions_total", "ask_menu"))
}

// valueOf returns the counter or gauge value of the series of name whose single label
// equals label, or the unlabeled series when label is empty.
func valueOf(t *testing.T, g prometheus.Gatherer, name, label string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			pairs := metric.GetLabel()
			if label != "" && (len(pairs) != 1 || pairs[0].GetValue() != label) {
				continue
			}
			if metric.GetCounter() != nil {
				return metric.GetCounter().GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestFailedBuildLeavesTimestamp(t *testing.T) {
	var m *PrometheusMetrics
	registry := prometheus.NewRegistry()
	m = NewPrometheusMetrics(registry)
	m.ObserveBuild(domain.BuildResultFailed, time.Millisecond)
	assert.Equal(t, float64(0), valueOf(t, registry, "smart_router_last_build_timestamp_seconds", ""))
	assert.Equal(t, float64(1), valueOf(t, registry, "smart_router_builds_total", "failed"))
}

func TestWriteText(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewPrometheusMetrics(registry)
	m.SetRegistryUnits(3)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, registry))
	assert.Contains(t, buf.String(), "# TYPE smart_router_registry_units gauge")
	assert.Contains(t, buf.String(), "smart_router_registry_units 3")

	path := filepath.Join(t.TempDir(), "smart_router.prom")
	require.NoError(t, WriteTextfile(path, registry))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "smart_router_registry_units 3")
}
