package app

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"smartrouter/internal/domain"
	"smartrouter/internal/infra/inventory"
	"smartrouter/internal/infra/prefs"
	"smartrouter/internal/infra/telemetry"
)

// Application wires the registry builder, the decision engine and the preferences loader
// behind the operations the CLI exposes.
type Application struct {
	cfg      Config
	logger   *zap.Logger
	registry *prometheus.Registry
	store    domain.SnapshotStore
	builder  *inventory.Builder
	decider  domain.Decider
	prefs    *prefs.Loader
}

// ApplicationOptions captures dependencies and settings for Application.
type ApplicationOptions struct {
	Config      Config
	Logger      *zap.Logger
	Registry    *prometheus.Registry
	Store       domain.SnapshotStore
	Builder     *inventory.Builder
	Decider     domain.Decider
	Preferences *prefs.Loader
}

// NewApplication constructs the application.
func NewApplication(opts ApplicationOptions) *Application {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Application{
		cfg:      opts.Config,
		logger:   logger,
		registry: opts.Registry,
		store:    opts.Store,
		builder:  opts.Builder,
		decider:  opts.Decider,
		prefs:    opts.Preferences,
	}
}

func (a *Application) Config() Config {
	return a.cfg
}

// Build refreshes the registry; see inventory.Builder.Build.
func (a *Application) Build(ctx context.Context, force bool) (inventory.BuildResult, error) {
	return a.builder.Build(ctx, force)
}

// Preferences loads the configured preferences document.
func (a *Application) Preferences() (domain.UserPreferences, []domain.Problem) {
	return a.prefs.Load(a.cfg.PreferencesPath)
}

// QueryRequest is one routing query.
type QueryRequest struct {
	Text      string
	FileHints []string
	// Mode overrides the configured routing mode when set.
	Mode domain.RoutingMode
}

// QueryResult is a decision plus everything that was reported while producing it.
type QueryResult struct {
	Decision domain.Decision        `json:"decision"`
	Build    domain.BuildOutcome    `json:"build"`
	Prefs    domain.UserPreferences `json:"preferences"`
	Problems []domain.Problem       `json:"problems,omitempty"`
}

// Query builds (or reuses) the registry and routes one request against it.
func (a *Application) Query(ctx context.Context, req QueryRequest) (QueryResult, error) {
	built, err := a.builder.Build(ctx, false)
	if err != nil {
		return QueryResult{Build: built.Outcome}, err
	}
	registry := built.Registry
	if registry == nil {
		// An unreadable root leaves the last good snapshot as the best answer.
		if stored, err := a.store.ReadSnapshot(); err == nil {
			registry = stored
		}
	}
	preferences, problems := a.Preferences()
	if req.Mode != "" {
		preferences.RoutingMode = req.Mode
	}
	decision := a.decider.Decide(domain.DecisionRequest{
		Request:     req.Text,
		FileHints:   req.FileHints,
		Registry:    registry,
		Preferences: preferences,
	})
	a.logger.Debug("request routed",
		telemetry.EventField(telemetry.EventDecision),
		telemetry.OutcomeField(string(decision.Outcome)),
	)
	return QueryResult{
		Decision: decision,
		Build:    built.Outcome,
		Prefs:    preferences,
		Problems: problems,
	}, nil
}

// Snapshot returns the stored registry without scanning.
func (a *Application) Snapshot() (*domain.Registry, error) {
	return a.store.ReadSnapshot()
}

// WriteMetrics writes the text exposition of the collected metrics to w.
func (a *Application) WriteMetrics(w io.Writer) error {
	return telemetry.WriteText(w, a.registry)
}

// FlushMetrics writes the metrics textfile when one is configured.
func (a *Application) FlushMetrics() error {
	if a.cfg.MetricsFile == "" {
		return nil
	}
	return telemetry.WriteTextfile(a.cfg.MetricsFile, a.registry)
}
