package domain

import "time"

// BuildResultLabel labels the outcome of a build call.
type BuildResultLabel string

const (
	// BuildResultCacheHit indicates the stored registry was reused.
	BuildResultCacheHit BuildResultLabel = "cache_hit"
	// BuildResultRebuilt indicates a full scan produced a new registry.
	BuildResultRebuilt BuildResultLabel = "rebuilt"
	// BuildResultFailed indicates the build returned an error.
	BuildResultFailed BuildResultLabel = "failed"
)

// Metrics records build and routing observations.
type Metrics interface {
	ObserveBuild(result BuildResultLabel, duration time.Duration)
	ObserveScanProblem(code string)
	SetRegistryUnits(count int)
	ObserveDecision(outcome DecisionOutcome)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) ObserveBuild(BuildResultLabel, time.Duration) {}
func (NoopMetrics) ObserveScanProblem(string)                    {}
func (NoopMetrics) SetRegistryUnits(int)                         {}
func (NoopMetrics) ObserveDecision(DecisionOutcome)              {}

var _ Metrics = NoopMetrics{}
