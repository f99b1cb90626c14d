package domain

// RoutingMode selects how the decision engine acts on a ranked list.
type RoutingMode string

const (
	// RoutingAuto selects the top candidate.
	RoutingAuto RoutingMode = "auto"
	// RoutingAsk presents the ranked list and leaves the choice to the caller.
	RoutingAsk RoutingMode = "ask"
	// RoutingContext selects the top candidate and always explains the deciding factor.
	RoutingContext RoutingMode = "context"
)

// Valid reports whether m is a known routing mode.
func (m RoutingMode) Valid() bool {
	switch m {
	case RoutingAuto, RoutingAsk, RoutingContext:
		return true
	default:
		return false
	}
}

// ContextRule prefers Providers when any active file matches Pattern.
type ContextRule struct {
	Pattern   string   `json:"pattern"`
	Providers []string `json:"providers"`
}

// UserPreferences is the caller-owned routing policy.
type UserPreferences struct {
	RoutingMode       RoutingMode   `json:"routingMode"`
	ShowReasoning     bool          `json:"showReasoning"`
	ExcludedProviders []string      `json:"excludedProviders,omitempty"`
	PriorityOrder     []string      `json:"priorityOrder,omitempty"`
	ContextRules      []ContextRule `json:"contextRules,omitempty"`
}

// DefaultPreferences returns the preferences used when none are configured.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		RoutingMode:   DefaultRoutingMode,
		ShowReasoning: DefaultShowReasoning,
	}
}

// Excluded reports whether providerID is excluded.
func (p UserPreferences) Excluded(providerID string) bool {
	for _, excluded := range p.ExcludedProviders {
		if excluded == providerID {
			return true
		}
	}
	return false
}

// PriorityIndex returns the position of providerID in the priority order, or -1.
func (p UserPreferences) PriorityIndex(providerID string) int {
	for i, id := range p.PriorityOrder {
		if id == providerID {
			return i
		}
	}
	return -1
}

// RankingContext is the query-time input to ranking.
type RankingContext struct {
	// Tags are the capabilities detected in the request.
	Tags []CapabilityTag
	// Phrases are the vocabulary phrases the request matched, used for specialty strength.
	Phrases []PhraseMatch
	// FileHints are the file extensions observed in the working set (".py").
	FileHints   []string
	Preferences UserPreferences
}

// PhraseMatch is one vocabulary phrase found in a text.
type PhraseMatch struct {
	Tag    CapabilityTag `json:"tag"`
	Phrase string        `json:"phrase"`
}
