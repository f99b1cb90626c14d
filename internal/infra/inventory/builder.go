package inventory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smartrouter/internal/domain"
	"smartrouter/internal/infra/capability"
	"smartrouter/internal/infra/describe"
	"smartrouter/internal/infra/scanner"
	"smartrouter/internal/infra/telemetry"
)

// Options configures a Builder.
type Options struct {
	Logger     *zap.Logger
	Metrics    domain.Metrics
	Scanner    *scanner.Scanner
	Roots      scanner.Roots
	Store      domain.SnapshotStore
	Extractor  *describe.Extractor
	Inferencer *capability.Inferencer
	Services   *capability.ServiceLookup
	// Now and NewID default to time.Now and uuid.NewString.
	Now   func() time.Time
	NewID func() string
}

// BuildResult is the registry a build produced or reused, with its outcome.
type BuildResult struct {
	Registry *domain.Registry
	Outcome  domain.BuildOutcome
}

// Builder scans the tool tree and maintains the persisted registry.
// Builds are serialized; the snapshot and its marker change together under the lock.
type Builder struct {
	mu sync.Mutex

	logger     *zap.Logger
	metrics    domain.Metrics
	scanner    *scanner.Scanner
	roots      scanner.Roots
	store      domain.SnapshotStore
	extractor  *describe.Extractor
	inferencer *capability.Inferencer
	services   *capability.ServiceLookup
	now        func() time.Time
	newID      func() string
	// inputs are folded into the fingerprint so a vocabulary, service table or depth
	// change invalidates the stored registry.
	inputs []string
}

// NewBuilder builds a Builder. Store is required.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.Store == nil {
		return nil, errors.New("snapshot store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NoopMetrics{}
	}
	scan := opts.Scanner
	if scan == nil {
		scan = scanner.New(scanner.Options{Logger: logger})
	}
	extractor := opts.Extractor
	if extractor == nil {
		extractor = describe.NewExtractor(describe.Options{Logger: logger})
	}
	inferencer := opts.Inferencer
	if inferencer == nil {
		inferencer = capability.Default()
	}
	services := opts.Services
	if services == nil {
		services = capability.NewServiceLookup(nil)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	newID := opts.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	inputs := []string{
		"vocabulary:" + inferencer.Digest(),
		"services:" + services.Digest(),
		"maxDepth:" + strconv.Itoa(scan.MaxDepth()),
	}
	return &Builder{
		logger:     logger.Named("inventory"),
		metrics:    metrics,
		scanner:    scan,
		roots:      opts.Roots,
		store:      opts.Store,
		extractor:  extractor,
		inferencer: inferencer,
		services:   services,
		now:        now,
		newID:      newID,
		inputs:     inputs,
	}, nil
}

// Roots returns the scanned locations.
func (b *Builder) Roots() scanner.Roots {
	return b.roots
}

// Build returns the current registry, rebuilding it when the tool tree changed or force
// is set. A root that cannot be listed yields an unsuccessful outcome without touching the
// store. Storage failures are returned as errors, except the final marker write, which
// only costs the next call a rebuild.
func (b *Builder) Build(ctx context.Context, force bool) (BuildResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	result, label, err := b.build(ctx, force)
	b.metrics.ObserveBuild(label, time.Since(start))
	for _, problem := range result.Outcome.Problems {
		b.metrics.ObserveScanProblem(problem.Code)
		b.logger.Warn(problem.Message,
			telemetry.EventField(telemetry.EventScanProblem),
			zap.String("code", problem.Code),
			telemetry.PathField(problem.Path),
		)
	}
	if result.Registry != nil {
		b.metrics.SetRegistryUnits(result.Registry.Stats().UniqueUnits)
	}
	return result, err
}

func (b *Builder) build(ctx context.Context, force bool) (BuildResult, domain.BuildResultLabel, error) {
	if err := ctx.Err(); err != nil {
		return BuildResult{}, domain.BuildResultFailed, domain.Wrap(domain.CodeCanceled, "build", err)
	}

	survey := b.scanner.Survey(b.roots)
	if survey.Failed != nil {
		b.logger.Error("scan failed", telemetry.EventField(telemetry.EventBuildFailed), zap.Error(survey.Failed))
		return BuildResult{Outcome: domain.BuildOutcome{Problems: survey.Problems}}, domain.BuildResultFailed, nil
	}
	fingerprint, err := domain.ScanFingerprint(survey.Stamps, b.inputs...)
	if err != nil {
		return b.fail(survey.Problems, domain.Wrap(domain.CodeInternal, "fingerprint", err))
	}

	if !force {
		if registry, ok := b.cached(fingerprint); ok {
			b.logger.Debug("registry unchanged",
				telemetry.EventField(telemetry.EventBuildCacheHit),
				telemetry.FingerprintField(fingerprint),
				telemetry.BuildIDField(registry.BuildID),
			)
			return BuildResult{
				Registry: registry,
				Outcome:  domain.BuildOutcome{Success: true, Cached: true, Problems: survey.Problems},
			}, domain.BuildResultCacheHit, nil
		}
	}

	loaded := b.scanner.Load(survey)
	problems := append(append([]domain.Problem(nil), survey.Problems...), loaded.Problems...)
	index, indexProblems := b.index(loaded.Candidates)
	problems = append(problems, indexProblems...)

	if err := ctx.Err(); err != nil {
		return b.fail(problems, domain.Wrap(domain.CodeCanceled, "build", err))
	}

	registry := &domain.Registry{
		FormatVersion:   domain.RegistryFormatVersion,
		BuildID:         b.newID(),
		BuiltAt:         b.now().UTC(),
		Fingerprint:     fingerprint,
		CapabilityIndex: index,
	}

	if err := b.store.WriteMarker(""); err != nil {
		return b.fail(problems, domain.E(domain.CodeInternal, "invalidate marker", "", err))
	}
	if err := b.store.WriteSnapshot(registry); err != nil {
		return b.fail(problems, domain.E(domain.CodeInternal, "write snapshot", "", err))
	}
	if err := b.store.WriteMarker(fingerprint); err != nil {
		b.logger.Warn("marker write failed", zap.Error(err))
		problems = append(problems, domain.Warn(domain.ProblemMarkerWriteFailed, "", err.Error()))
	}

	stats := registry.Stats()
	b.logger.Info("registry rebuilt",
		telemetry.EventField(telemetry.EventBuildRebuilt),
		telemetry.BuildIDField(registry.BuildID),
		telemetry.FingerprintField(fingerprint),
		zap.Int("capabilities", stats.Capabilities),
		zap.Int("units", stats.UniqueUnits),
		zap.Int("problems", len(problems)),
	)
	return BuildResult{
		Registry: registry,
		Outcome:  domain.BuildOutcome{Success: true, Problems: problems},
	}, domain.BuildResultRebuilt, nil
}

// cached returns the stored registry when its marker and its own fingerprint both match.
func (b *Builder) cached(fingerprint string) (*domain.Registry, bool) {
	marker, err := b.store.ReadMarker()
	if err != nil {
		b.logger.Warn("read marker failed", zap.Error(err))
		return nil, false
	}
	if marker == "" || marker != fingerprint {
		return nil, false
	}
	registry, err := b.store.ReadSnapshot()
	if err != nil {
		if !errors.Is(err, domain.ErrSnapshotNotFound) {
			b.logger.Warn("read snapshot failed", zap.Error(err))
		}
		return nil, false
	}
	if registry.Fingerprint != marker {
		return nil, false
	}
	return registry, true
}

// index describes and tags each candidate. Units whose description yields no tag are
// not indexed.
func (b *Builder) index(candidates []scanner.Candidate) (map[domain.CapabilityTag][]domain.ToolUnit, []domain.Problem) {
	index := make(map[domain.CapabilityTag][]domain.ToolUnit)
	var problems []domain.Problem
	for _, candidate := range candidates {
		unit := candidate.Unit
		switch {
		case candidate.Service != nil:
			desc, known := b.services.Describe(candidate.Service.Name, candidate.Service.Command)
			if !known {
				problems = append(problems, domain.Warn(domain.ProblemServiceUnknown, unit.EntryRef, "no curated description; using launch command"))
			}
			unit.Description = desc
		default:
			desc, problem := b.extractor.Extract(candidate.Path)
			if problem != nil {
				problems = append(problems, *problem)
			}
			unit.Description = desc
		}
		for _, tag := range b.inferencer.Infer(unit.Description) {
			index[tag] = append(index[tag], unit)
		}
	}
	return index, problems
}

func (b *Builder) fail(problems []domain.Problem, err error) (BuildResult, domain.BuildResultLabel, error) {
	b.logger.Error("build failed", telemetry.EventField(telemetry.EventBuildFailed), zap.Error(err))
	return BuildResult{Outcome: domain.BuildOutcome{Problems: problems}}, domain.BuildResultFailed, err
}
