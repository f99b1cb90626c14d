package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldEvent       = "event"
	FieldProvider    = "provider"
	FieldPath        = "path"
	FieldFingerprint = "fingerprint"
	FieldBuildID     = "build_id"
	FieldDurationMs  = "duration_ms"
	FieldOutcome     = "outcome"
)

const (
	EventBuildCacheHit = "build_cache_hit"
	EventBuildRebuilt  = "build_rebuilt"
	EventBuildFailed   = "build_failed"
	EventScanProblem   = "scan_problem"
	EventWatchTrigger  = "watch_trigger"
	EventDecision      = "decision"
)

func EventField(event string) zap.Field {
	return zap.String(FieldEvent, event)
}

func ProviderField(provider string) zap.Field {
	return zap.String(FieldProvider, provider)
}

func PathField(path string) zap.Field {
	return zap.String(FieldPath, path)
}

// FingerprintField logs a shortened fingerprint.
func FingerprintField(fp string) zap.Field {
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return zap.String(FieldFingerprint, fp)
}

func BuildIDField(id string) zap.Field {
	return zap.String(FieldBuildID, id)
}

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}

func OutcomeField(outcome string) zap.Field {
	return zap.String(FieldOutcome, outcome)
}
