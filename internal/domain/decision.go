package domain

// RankKey names a ranking tie-break key.
type RankKey string

const (
	RankKeyPriority  RankKey = "priority"
	RankKeySpecialty RankKey = "specialty"
	RankKeyAffinity  RankKey = "file_context"
	RankKeyKind      RankKey = "kind"
	RankKeyProvider  RankKey = "provider"
	RankKeyEntry     RankKey = "entry"
	// RankKeyNone means two entries are identical on every key.
	RankKeyNone RankKey = ""
)

// Ranked is a ranked unit together with the key values that placed it.
type Ranked struct {
	Unit ToolUnit `json:"unit"`
	// Priority is the position in the user priority order, -1 when unlisted.
	Priority int `json:"priority"`
	// Specialty is the weighted count of request phrases the description matches.
	Specialty int `json:"specialty"`
	// MatchedPhrases lists the request phrases found in the description.
	MatchedPhrases []string `json:"matchedPhrases,omitempty"`
	// Affinity is true when a file-context rule prefers the unit's provider.
	Affinity bool `json:"affinity"`
	// AffinityPattern is the context rule pattern that matched.
	AffinityPattern string `json:"affinityPattern,omitempty"`
	Justification   string `json:"justification,omitempty"`
}

// DecisionOutcome is the terminal state of the routing decision.
type DecisionOutcome string

const (
	// OutcomeNone means no capability was detected in the request.
	OutcomeNone DecisionOutcome = "none"
	// OutcomeUnserved means a capability was detected but no installed tool serves it.
	OutcomeUnserved DecisionOutcome = "unserved"
	// OutcomeSuggest is a single candidate suggested directly in ask mode.
	OutcomeSuggest DecisionOutcome = "suggest"
	// OutcomeAutoRoute selects one unit for invocation.
	OutcomeAutoRoute DecisionOutcome = "auto_route"
	// OutcomeAskMenu hands the ranked list to the caller for a choice.
	OutcomeAskMenu DecisionOutcome = "ask_menu"
)

// Decision is the routing result handed back to the caller.
type Decision struct {
	Outcome DecisionOutcome `json:"outcome"`
	Mode    RoutingMode     `json:"mode"`
	Tags    []CapabilityTag `json:"tags,omitempty"`
	Ranked  []Ranked        `json:"ranked,omitempty"`
	// Selected is set for OutcomeAutoRoute and OutcomeSuggest.
	Selected      *Ranked `json:"selected,omitempty"`
	Justification string  `json:"justification,omitempty"`
	// DecidedBy is the ranking key that separated the winner from the runner-up.
	DecidedBy RankKey `json:"decidedBy,omitempty"`
}

// DecisionRequest is the input to a routing decision.
type DecisionRequest struct {
	Request     string
	FileHints   []string
	Registry    *Registry
	Preferences UserPreferences
}

// Decider turns a request into a routing decision.
type Decider interface {
	Decide(req DecisionRequest) Decision
}
