package router

import "smartrouter/internal/domain"

// MetricEngine records the outcome of every decision made by inner.
type MetricEngine struct {
	inner   domain.Decider
	metrics domain.Metrics
}

func NewMetricEngine(inner domain.Decider, metrics domain.Metrics) *MetricEngine {
	return &MetricEngine{
		inner:   inner,
		metrics: metrics,
	}
}

func (e *MetricEngine) Decide(req domain.DecisionRequest) domain.Decision {
	decision := e.inner.Decide(req)
	if e.metrics != nil {
		e.metrics.ObserveDecision(decision.Outcome)
	}
	return decision
}

var _ domain.Decider = (*MetricEngine)(nil)
