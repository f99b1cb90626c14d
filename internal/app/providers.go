package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"smartrouter/internal/domain"
	"smartrouter/internal/infra/capability"
	"smartrouter/internal/infra/describe"
	"smartrouter/internal/infra/inventory"
	"smartrouter/internal/infra/prefs"
	"smartrouter/internal/infra/ranker"
	"smartrouter/internal/infra/router"
	"smartrouter/internal/infra/scanner"
	"smartrouter/internal/infra/store"
	"smartrouter/internal/infra/telemetry"
)

func NewMetricsRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func NewMetrics(registry *prometheus.Registry) domain.Metrics {
	return telemetry.NewPrometheusMetrics(registry)
}

// NewSnapshotStore opens the configured store. The cleanup closes it.
func NewSnapshotStore(cfg Config, logger *zap.Logger) (domain.SnapshotStore, func(), error) {
	switch cfg.Store.Kind {
	case domain.StoreKindBolt:
		s, err := store.OpenBoltStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := s.Close(); err != nil {
				logger.Warn("close bolt store failed", zap.String("path", s.Path()), zap.Error(err))
			}
		}
		return s, cleanup, nil
	case domain.StoreKindFile, "":
		s, err := store.NewFileStore(cfg.Store.Path, cfg.Store.MarkerPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}
}

func NewRoots(cfg Config) scanner.Roots {
	return scanner.Roots{
		External:        cfg.ExternalRoot,
		Local:           cfg.LocalRoot,
		ProjectServices: cfg.ProjectServices,
		ServiceConfigs:  cfg.ServiceConfigs,
	}
}

func NewScanner(cfg Config, logger *zap.Logger) *scanner.Scanner {
	return scanner.New(scanner.Options{Logger: logger, MaxDepth: cfg.MaxLocalDepth})
}

func NewExtractor(logger *zap.Logger) *describe.Extractor {
	return describe.NewExtractor(describe.Options{Logger: logger})
}

// NewInferencer builds the vocabulary from the built-in table, overlaid with the
// configured vocabulary file.
func NewInferencer(cfg Config) (*capability.Inferencer, error) {
	table := capability.DefaultTable()
	if cfg.VocabularyPath != "" {
		extra, err := capability.LoadTable(cfg.VocabularyPath)
		if err != nil {
			return nil, err
		}
		table = table.Merge(extra)
	}
	return capability.NewInferencer(table)
}

func NewServiceLookup(cfg Config) *capability.ServiceLookup {
	return capability.NewServiceLookup(cfg.Services)
}

func NewBuilder(
	logger *zap.Logger,
	metrics domain.Metrics,
	scan *scanner.Scanner,
	roots scanner.Roots,
	snapshots domain.SnapshotStore,
	extractor *describe.Extractor,
	inferencer *capability.Inferencer,
	services *capability.ServiceLookup,
) (*inventory.Builder, error) {
	return inventory.NewBuilder(inventory.Options{
		Logger:     logger,
		Metrics:    metrics,
		Scanner:    scan,
		Roots:      roots,
		Store:      snapshots,
		Extractor:  extractor,
		Inferencer: inferencer,
		Services:   services,
	})
}

func NewRanker(cfg Config, inferencer *capability.Inferencer) *ranker.Ranker {
	return ranker.New(inferencer, ranker.Weights{
		Phrase:      cfg.Scoring.PhraseWeight,
		TagCoverage: cfg.Scoring.TagCoverageWeight,
	})
}

func NewDecider(logger *zap.Logger, inferencer *capability.Inferencer, rk *ranker.Ranker, metrics domain.Metrics) domain.Decider {
	engine := router.NewEngine(router.Options{
		Logger:     logger,
		Inferencer: inferencer,
		Ranker:     rk,
	})
	return router.NewMetricEngine(engine, metrics)
}

func NewPreferencesLoader(logger *zap.Logger) *prefs.Loader {
	return prefs.NewLoader(logger)
}
