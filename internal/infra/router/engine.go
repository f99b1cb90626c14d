package router

import (
	"go.uber.org/zap"

	"smartrouter/internal/domain"
	"smartrouter/internal/infra/capability"
	"smartrouter/internal/infra/ranker"
)

// Options configures an Engine.
type Options struct {
	Logger     *zap.Logger
	Inferencer *capability.Inferencer
	Ranker     *ranker.Ranker
}

// Engine detects capabilities in a request, ranks the registry's candidates and applies
// the routing mode.
type Engine struct {
	logger     *zap.Logger
	inferencer *capability.Inferencer
	ranker     *ranker.Ranker
}

// NewEngine builds an Engine.
func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	inferencer := opts.Inferencer
	if inferencer == nil {
		inferencer = capability.Default()
	}
	rk := opts.Ranker
	if rk == nil {
		rk = ranker.New(inferencer, ranker.DefaultWeights())
	}
	return &Engine{
		logger:     logger.Named("router"),
		inferencer: inferencer,
		ranker:     rk,
	}
}

// Decide routes one request. It never fails: a request with no capability yields
// OutcomeNone and a capability without installed tools yields OutcomeUnserved.
func (e *Engine) Decide(req domain.DecisionRequest) domain.Decision {
	prefs := req.Preferences
	if !prefs.RoutingMode.Valid() {
		prefs.RoutingMode = domain.DefaultRoutingMode
	}
	decision := domain.Decision{Mode: prefs.RoutingMode}

	tags := e.inferencer.Infer(req.Request)
	if len(tags) == 0 {
		decision.Outcome = domain.OutcomeNone
		return decision
	}
	decision.Tags = tags

	rc := domain.RankingContext{
		Tags:        tags,
		Phrases:     e.inferencer.MatchedPhrases(req.Request),
		FileHints:   req.FileHints,
		Preferences: prefs,
	}
	ranked := e.ranker.Rank(req.Registry.CandidatesFor(tags), rc)
	if len(ranked) == 0 {
		decision.Outcome = domain.OutcomeUnserved
		e.logger.Debug("capability unserved", zap.Strings("tags", tagStrings(tags)))
		return decision
	}
	decision.Ranked = ranked

	if len(ranked) == 1 {
		selected := ranked[0]
		decision.Selected = &selected
		switch prefs.RoutingMode {
		case domain.RoutingAsk:
			decision.Outcome = domain.OutcomeSuggest
			if prefs.ShowReasoning {
				decision.Justification = onlyCandidate(selected, tags)
			}
		case domain.RoutingContext:
			decision.Outcome = domain.OutcomeAutoRoute
			decision.Justification = onlyCandidate(selected, tags)
		default:
			decision.Outcome = domain.OutcomeAutoRoute
			if prefs.ShowReasoning {
				decision.Justification = onlyCandidate(selected, tags)
			}
		}
		return decision
	}

	key := ranker.DecidingKey(ranked[0], ranked[1])
	decision.DecidedBy = key
	switch prefs.RoutingMode {
	case domain.RoutingAsk:
		decision.Outcome = domain.OutcomeAskMenu
		for i := range decision.Ranked {
			decision.Ranked[i].Justification = justify(decision.Ranked[i])
		}
	case domain.RoutingContext:
		selected := ranked[0]
		decision.Selected = &selected
		decision.Outcome = domain.OutcomeAutoRoute
		decision.Justification = explain(ranked[0], ranked[1], key)
	default:
		selected := ranked[0]
		decision.Selected = &selected
		decision.Outcome = domain.OutcomeAutoRoute
		if prefs.ShowReasoning {
			decision.Justification = explain(ranked[0], ranked[1], key)
		}
	}
	return decision
}

func tagStrings(tags []domain.CapabilityTag) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, string(tag))
	}
	return out
}

var _ domain.Decider = (*Engine)(nil)
