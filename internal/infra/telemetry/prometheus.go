package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"smartrouter/internal/domain"
)

type PrometheusMetrics struct {
	buildDuration  *prometheus.HistogramVec
	builds         *prometheus.CounterVec
	scanProblems   *prometheus.CounterVec
	registryUnits  prometheus.Gauge
	decisions      *prometheus.CounterVec
	lastBuildStamp prometheus.Gauge
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		buildDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smart_router_build_duration_seconds",
				Help:    "Duration of registry builds in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"result"},
		),
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smart_router_builds_total",
				Help: "Total number of registry builds by result",
			},
			[]string{"result"},
		),
		scanProblems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smart_router_scan_problems_total",
				Help: "Total number of problems reported while scanning, by code",
			},
			[]string{"code"},
		),
		registryUnits: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "smart_router_registry_units",
				Help: "Number of distinct tool units in the current registry",
			},
		),
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smart_router_decisions_total",
				Help: "Total number of routing decisions by outcome",
			},
			[]string{"outcome"},
		),
		lastBuildStamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "smart_router_last_build_timestamp_seconds",
				Help: "Unix time of the last successful build",
			},
		),
	}
}

func (p *PrometheusMetrics) ObserveBuild(result domain.BuildResultLabel, duration time.Duration) {
	p.builds.WithLabelValues(string(result)).Inc()
	p.buildDuration.WithLabelValues(string(result)).Observe(duration.Seconds())
	if result != domain.BuildResultFailed {
		p.lastBuildStamp.SetToCurrentTime()
	}
}

func (p *PrometheusMetrics) ObserveScanProblem(code string) {
	p.scanProblems.WithLabelValues(code).Inc()
}

func (p *PrometheusMetrics) SetRegistryUnits(count int) {
	p.registryUnits.Set(float64(count))
}

func (p *PrometheusMetrics) ObserveDecision(outcome domain.DecisionOutcome) {
	p.decisions.WithLabelValues(string(outcome)).Inc()
}

var _ domain.Metrics = (*PrometheusMetrics)(nil)
