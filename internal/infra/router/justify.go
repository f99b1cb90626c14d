package router

import (
	"fmt"
	"strings"

	"smartrouter/internal/domain"
	"smartrouter/internal/infra/capability"
)

// Label names a unit for people: provider and unit name.
func Label(unit domain.ToolUnit) string {
	name := unit.Name()
	if name == "" || name == unit.ProviderID {
		return unit.ProviderID
	}
	return unit.ProviderID + "/" + name
}

func displayPhrase(phrase string) string {
	pattern, ok := strings.CutPrefix(phrase, capability.RegexPrefix)
	if !ok {
		return phrase
	}
	return strings.ReplaceAll(pattern, `\b`, "")
}

func displayPhrases(phrases []string) string {
	out := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		out = append(out, fmt.Sprintf("%q", displayPhrase(phrase)))
	}
	return strings.Join(out, ", ")
}

// justify lists the factors behind one menu entry.
func justify(r domain.Ranked) string {
	var parts []string
	if r.Priority >= 0 {
		parts = append(parts, fmt.Sprintf("priority #%d in your preferences", r.Priority+1))
	}
	if r.Specialty > 0 {
		if len(r.MatchedPhrases) > 0 {
			parts = append(parts, fmt.Sprintf("matches %s", displayPhrases(r.MatchedPhrases)))
		} else {
			parts = append(parts, fmt.Sprintf("specialty score %d", r.Specialty))
		}
	}
	if r.Affinity {
		parts = append(parts, fmt.Sprintf("preferred for %s files", r.AffinityPattern))
	}
	parts = append(parts, string(r.Unit.Kind))
	return strings.Join(parts, "; ")
}

func onlyCandidate(r domain.Ranked, tags []domain.CapabilityTag) string {
	return fmt.Sprintf("%s is the only installed tool for %s", Label(r.Unit), strings.Join(tagStrings(tags), ", "))
}

// explain states why winner beat runnerUp on the key that separated them.
func explain(winner, runnerUp domain.Ranked, key domain.RankKey) string {
	w, r := Label(winner.Unit), Label(runnerUp.Unit)
	switch key {
	case domain.RankKeyPriority:
		if runnerUp.Priority < 0 {
			return fmt.Sprintf("%s is in your priority order and %s is not", w, r)
		}
		return fmt.Sprintf("%s comes before %s in your priority order", w, r)
	case domain.RankKeySpecialty:
		return fmt.Sprintf("%s matches more of the request (%s) than %s (%d)",
			w, displayPhrases(winner.MatchedPhrases), r, len(runnerUp.MatchedPhrases))
	case domain.RankKeyAffinity:
		return fmt.Sprintf("%s is preferred for %s files in the current context", w, winner.AffinityPattern)
	case domain.RankKeyKind:
		return fmt.Sprintf("%s is a %s, which takes precedence over the %s %s", w, winner.Unit.Kind, runnerUp.Unit.Kind, r)
	case domain.RankKeyProvider, domain.RankKeyEntry:
		return fmt.Sprintf("%s and %s tie on every criterion; %s sorts first by name", w, r, w)
	default:
		return fmt.Sprintf("%s and %s are interchangeable", w, r)
	}
}
