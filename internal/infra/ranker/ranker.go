package ranker

import (
	"sort"
	"strings"

	"smartrouter/internal/domain"
	"smartrouter/internal/infra/capability"
)

// Weights tunes the specialty score.
type Weights struct {
	// Phrase is added for each request phrase the description also matches.
	Phrase int
	// TagCoverage is added for each detected tag the description is tagged with.
	TagCoverage int
}

// DefaultWeights scores specialty as the number of shared phrases.
func DefaultWeights() Weights {
	return Weights{Phrase: domain.DefaultPhraseWeight, TagCoverage: domain.DefaultTagCoverage}
}

// Ranker orders candidate units for a request. It holds no mutable state.
type Ranker struct {
	inferencer *capability.Inferencer
	weights    Weights
}

// New builds a Ranker over the vocabulary used to detect request phrases.
func New(inferencer *capability.Inferencer, weights Weights) *Ranker {
	if inferencer == nil {
		inferencer = capability.Default()
	}
	return &Ranker{inferencer: inferencer, weights: weights}
}

// Rank drops excluded providers and orders the rest by priority order, specialty,
// file-context affinity, unit kind, then provider, entry and kind for a total order.
func (r *Ranker) Rank(candidates []domain.ToolUnit, rc domain.RankingContext) []domain.Ranked {
	hints := normalizeHints(rc.FileHints)
	ranked := make([]domain.Ranked, 0, len(candidates))
	for _, unit := range candidates {
		if rc.Preferences.Excluded(unit.ProviderID) {
			continue
		}
		entry := domain.Ranked{
			Unit:     unit,
			Priority: rc.Preferences.PriorityIndex(unit.ProviderID),
		}
		entry.Specialty, entry.MatchedPhrases = r.specialty(unit.Description, rc)
		entry.AffinityPattern, entry.Affinity = affinity(unit.ProviderID, rc.Preferences.ContextRules, hints)
		ranked = append(ranked, entry)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		c, _ := Compare(ranked[i], ranked[j])
		return c < 0
	})
	return ranked
}

func (r *Ranker) specialty(description string, rc domain.RankingContext) (int, []string) {
	score := 0
	var matched []string
	seen := make(map[string]struct{}, len(rc.Phrases))
	for _, pm := range rc.Phrases {
		if _, dup := seen[pm.Phrase]; dup {
			continue
		}
		seen[pm.Phrase] = struct{}{}
		if r.inferencer.Matches(pm.Phrase, description) {
			score += r.weights.Phrase
			matched = append(matched, pm.Phrase)
		}
	}
	if r.weights.TagCoverage != 0 && len(rc.Tags) > 0 {
		covered := make(map[domain.CapabilityTag]struct{})
		for _, tag := range r.inferencer.Infer(description) {
			covered[tag] = struct{}{}
		}
		for _, tag := range rc.Tags {
			if _, ok := covered[tag]; ok {
				score += r.weights.TagCoverage
			}
		}
	}
	return score, matched
}

// Compare orders a before b when the result is negative and names the key that decided.
func Compare(a, b domain.Ranked) (int, domain.RankKey) {
	if c := comparePriority(a.Priority, b.Priority); c != 0 {
		return c, domain.RankKeyPriority
	}
	if a.Specialty != b.Specialty {
		if a.Specialty > b.Specialty {
			return -1, domain.RankKeySpecialty
		}
		return 1, domain.RankKeySpecialty
	}
	if a.Affinity != b.Affinity {
		if a.Affinity {
			return -1, domain.RankKeyAffinity
		}
		return 1, domain.RankKeyAffinity
	}
	if pa, pb := a.Unit.Kind.Precedence(), b.Unit.Kind.Precedence(); pa != pb {
		if pa < pb {
			return -1, domain.RankKeyKind
		}
		return 1, domain.RankKeyKind
	}
	if c := strings.Compare(a.Unit.ProviderID, b.Unit.ProviderID); c != 0 {
		return c, domain.RankKeyProvider
	}
	if c := strings.Compare(a.Unit.EntryRef, b.Unit.EntryRef); c != 0 {
		return c, domain.RankKeyEntry
	}
	if c := strings.Compare(string(a.Unit.Kind), string(b.Unit.Kind)); c != 0 {
		return c, domain.RankKeyEntry
	}
	return 0, domain.RankKeyNone
}

// DecidingKey returns the first key on which a and b differ.
func DecidingKey(a, b domain.Ranked) domain.RankKey {
	_, key := Compare(a, b)
	return key
}

// comparePriority puts listed providers (index >= 0) first, earlier positions first.
func comparePriority(a, b int) int {
	switch {
	case a == b:
		return 0
	case a < 0:
		return 1
	case b < 0:
		return -1
	case a < b:
		return -1
	default:
		return 1
	}
}
