package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"smartrouter/internal/domain"
)

func registryOf(units map[domain.CapabilityTag][]domain.ToolUnit) *domain.Registry {
	return &domain.Registry{FormatVersion: domain.RegistryFormatVersion, CapabilityIndex: units}
}

var (
	debugger = domain.ToolUnit{ProviderID: "dbg-kit", Kind: domain.KindAgent, EntryRef: "agents/debugger.md", Description: "debug crashes", Origin: domain.OriginExternal}
	generic  = domain.ToolUnit{ProviderID: "generic-reviewer", Kind: domain.KindAgent, EntryRef: "agents/reviewer.md", Description: "general code review", Origin: domain.OriginExternal}
	special  = domain.ToolUnit{ProviderID: "pr-specialist", Kind: domain.KindAgent, EntryRef: "agents/pr.md", Description: "pull request review and PR-specific checks", Origin: domain.OriginExternal}
)

func reviewRegistry() *domain.Registry {
	return registryOf(map[domain.CapabilityTag][]domain.ToolUnit{
		"code-review": {generic, special},
		"debugging":   {debugger},
	})
}

func prefsWith(mode domain.RoutingMode, reasoning bool) domain.UserPreferences {
	prefs := domain.DefaultPreferences()
	prefs.RoutingMode = mode
	prefs.ShowReasoning = reasoning
	return prefs
}

func TestDecideNoCapability(t *testing.T) {
	e := NewEngine(Options{})
	d := e.Decide(domain.DecisionRequest{Request: "thanks!", Registry: reviewRegistry(), Preferences: domain.DefaultPreferences()})
	require.Equal(t, domain.OutcomeNone, d.Outcome)
	require.Empty(t, d.Tags)
	require.Nil(t, d.Selected)
}

func TestDecideUnservedIsDistinctFromNone(t *testing.T) {
	e := NewEngine(Options{})
	d := e.Decide(domain.DecisionRequest{Request: "optimize database migration", Registry: reviewRegistry(), Preferences: domain.DefaultPreferences()})
	require.Equal(t, domain.OutcomeUnserved, d.Outcome)
	require.Equal(t, []domain.CapabilityTag{"performance", "database"}, d.Tags)
	require.Empty(t, d.Ranked)
}

func TestDecideUnservedWhenAllExcluded(t *testing.T) {
	e := NewEngine(Options{})
	prefs := domain.DefaultPreferences()
	prefs.ExcludedProviders = []string{"dbg-kit"}
	d := e.Decide(domain.DecisionRequest{Request: "debug this", Registry: reviewRegistry(), Preferences: prefs})
	require.Equal(t, domain.OutcomeUnserved, d.Outcome)
}

func TestDecideSingleDebuggingMatchAutoRoutes(t *testing.T) {
	e := NewEngine(Options{})
	d := e.Decide(domain.DecisionRequest{Request: "debug this crash", Registry: reviewRegistry(), Preferences: prefsWith(domain.RoutingAuto, false)})
	require.Equal(t, domain.OutcomeAutoRoute, d.Outcome)
	require.NotNil(t, d.Selected)
	require.Equal(t, debugger, d.Selected.Unit)
	require.Len(t, d.Ranked, 1)
	require.Empty(t, d.Justification)
}

func TestDecideSingleMatchAskSuggests(t *testing.T) {
	e := NewEngine(Options{})
	d := e.Decide(domain.DecisionRequest{Request: "debug this crash", Registry: reviewRegistry(), Preferences: prefsWith(domain.RoutingAsk, true)})
	require.Equal(t, domain.OutcomeSuggest, d.Outcome)
	require.Equal(t, debugger, d.Selected.Unit)
	require.Equal(t, "dbg-kit/debugger is the only installed tool for debugging", d.Justification)
}

func TestDecideAskMenu(t *testing.T) {
	e := NewEngine(Options{})
	d := e.Decide(domain.DecisionRequest{Request: "review this PR", Registry: reviewRegistry(), Preferences: prefsWith(domain.RoutingAsk, false)})
	require.Equal(t, domain.OutcomeAskMenu, d.Outcome)
	require.Nil(t, d.Selected)
	require.Len(t, d.Ranked, 2)
	require.Equal(t, "pr-specialist", d.Ranked[0].Unit.ProviderID)
	require.Equal(t, `matches "prs?", "review"; agent`, d.Ranked[0].Justification)
	require.Equal(t, `matches "review"; agent`, d.Ranked[1].Justification)
	require.Equal(t, domain.RankKeySpecialty, d.DecidedBy)
}

func TestDecideAutoJustificationFollowsShowReasoning(t *testing.T) {
	e := NewEngine(Options{})
	req := domain.DecisionRequest{Request: "review this PR", Registry: reviewRegistry()}

	req.Preferences = prefsWith(domain.RoutingAuto, false)
	d := e.Decide(req)
	require.Equal(t, domain.OutcomeAutoRoute, d.Outcome)
	require.Equal(t, special, d.Selected.Unit)
	require.Empty(t, d.Justification)

	req.Preferences = prefsWith(domain.RoutingAuto, true)
	d = e.Decide(req)
	require.NotEmpty(t, d.Justification)
}

func TestDecideContextNamesDecidingKey(t *testing.T) {
	e := NewEngine(Options{})

	prefs := prefsWith(domain.RoutingContext, false)
	d := e.Decide(domain.DecisionRequest{Request: "review this PR", Registry: reviewRegistry(), Preferences: prefs})
	require.Equal(t, domain.OutcomeAutoRoute, d.Outcome)
	require.Equal(t, domain.RankKeySpecialty, d.DecidedBy)
	require.Equal(t, `pr-specialist/pr matches more of the request ("prs?", "review") than generic-reviewer/reviewer (1)`, d.Justification)

	prefs.PriorityOrder = []string{"generic-reviewer"}
	d = e.Decide(domain.DecisionRequest{Request: "review this PR", Registry: reviewRegistry(), Preferences: prefs})
	require.Equal(t, generic, d.Selected.Unit)
	require.Equal(t, domain.RankKeyPriority, d.DecidedBy)
	require.Equal(t, "generic-reviewer/reviewer is in your priority order and pr-specialist/pr is not", d.Justification)

	prefs.PriorityOrder = nil
	prefs.ContextRules = []domain.ContextRule{{Pattern: "*.md", Providers: []string{"docs-b"}}}
	docs := registryOf(map[domain.CapabilityTag][]domain.ToolUnit{
		"documentation": {
			{ProviderID: "docs-a", Kind: domain.KindSkill, EntryRef: "skills/readme/SKILL.md", Description: "readme writer"},
			{ProviderID: "docs-b", Kind: domain.KindSkill, EntryRef: "skills/readme/SKILL.md", Description: "readme writer"},
		},
	})
	d = e.Decide(domain.DecisionRequest{Request: "update the readme", FileHints: []string{"README.md"}, Registry: docs, Preferences: prefs})
	require.Equal(t, "docs-b", d.Selected.Unit.ProviderID)
	require.Equal(t, domain.RankKeyAffinity, d.DecidedBy)
	require.Equal(t, "docs-b/readme is preferred for *.md files in the current context", d.Justification)
}

func TestDecideInvalidModeFallsBackToDefault(t *testing.T) {
	e := NewEngine(Options{})
	d := e.Decide(domain.DecisionRequest{Request: "review this PR", Registry: reviewRegistry(), Preferences: prefsWith("sometimes", false)})
	require.Equal(t, domain.DefaultRoutingMode, d.Mode)
	require.Equal(t, domain.OutcomeAskMenu, d.Outcome)
}

func TestDecideNilRegistryIsUnserved(t *testing.T) {
	e := NewEngine(Options{})
	d := e.Decide(domain.DecisionRequest{Request: "debug this", Preferences: domain.DefaultPreferences()})
	require.Equal(t, domain.OutcomeUnserved, d.Outcome)
}

type countingMetrics struct {
	domain.NoopMetrics
	outcomes []domain.DecisionOutcome
}

func (m *countingMetrics) ObserveDecision(outcome domain.DecisionOutcome) {
	m.outcomes = append(m.outcomes, outcome)
}

func TestMetricEngineObservesOutcome(t *testing.T) {
	metrics := &countingMetrics{}
	e := NewMetricEngine(NewEngine(Options{}), metrics)

	e.Decide(domain.DecisionRequest{Request: "hello", Registry: reviewRegistry()})
	e.Decide(domain.DecisionRequest{Request: "debug", Registry: reviewRegistry(), Preferences: prefsWith(domain.RoutingAuto, false)})
	require.Equal(t, []domain.DecisionOutcome{domain.OutcomeNone, domain.OutcomeAutoRoute}, metrics.outcomes)
}
