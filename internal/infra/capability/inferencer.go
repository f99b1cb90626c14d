package capability

import (
	"fmt"
	"regexp"
	"strings"

	"smartrouter/internal/domain"
)

type matcher struct {
	phrase string
	lower  string
	re     *regexp.Regexp
}

func (m matcher) match(lowerText string) bool {
	if m.re != nil {
		return m.re.MatchString(lowerText)
	}
	return strings.Contains(lowerText, m.lower)
}

type compiledEntry struct {
	tag      domain.CapabilityTag
	matchers []matcher
}

// Inferencer maps free text to capability tags using a vocabulary table.
type Inferencer struct {
	entries []compiledEntry
}

// NewInferencer compiles table. Regex phrases that fail to compile are reported together.
func NewInferencer(table Table) (*Inferencer, error) {
	var bad []string
	entries := make([]compiledEntry, 0, len(table))
	for _, entry := range table {
		compiled := compiledEntry{tag: entry.Tag}
		for _, phrase := range entry.Phrases {
			m := matcher{phrase: phrase}
			if pattern, ok := strings.CutPrefix(phrase, RegexPrefix); ok {
				re, err := regexp.Compile("(?i)" + pattern)
				if err != nil {
					bad = append(bad, fmt.Sprintf("%s: %q: %v", entry.Tag, phrase, err))
					continue
				}
				m.re = re
			} else {
				m.lower = strings.ToLower(phrase)
			}
			compiled.matchers = append(compiled.matchers, m)
		}
		entries = append(entries, compiled)
	}
	if len(bad) > 0 {
		return nil, fmt.Errorf("compile vocabulary: %s", strings.Join(bad, "; "))
	}
	return &Inferencer{entries: entries}, nil
}

// Digest identifies the compiled vocabulary. Two inferencers with equal digests tag any
// text identically.
func (i *Inferencer) Digest() string {
	table := make(Table, 0, len(i.entries))
	for _, entry := range i.entries {
		phrases := make([]string, 0, len(entry.matchers))
		for _, m := range entry.matchers {
			phrases = append(phrases, m.phrase)
		}
		table = append(table, Entry{Tag: entry.tag, Phrases: phrases})
	}
	digest, err := domain.ContentDigest(table)
	if err != nil {
		return ""
	}
	return digest
}

// MustNewInferencer is NewInferencer for tables known to be valid.
func MustNewInferencer(table Table) *Inferencer {
	inf, err := NewInferencer(table)
	if err != nil {
		panic(err)
	}
	return inf
}

// Default returns an inferencer over DefaultTable.
func Default() *Inferencer {
	return MustNewInferencer(DefaultTable())
}

// Infer returns each tag with at least one matching phrase, in table order.
// Matching for a tag stops at its first matching phrase.
func (i *Inferencer) Infer(text string) []domain.CapabilityTag {
	lower := strings.ToLower(text)
	var tags []domain.CapabilityTag
	for _, entry := range i.entries {
		for _, m := range entry.matchers {
			if m.match(lower) {
				tags = append(tags, entry.tag)
				break
			}
		}
	}
	return tags
}

// MatchedPhrases returns every phrase of every tag that matches text.
func (i *Inferencer) MatchedPhrases(text string) []domain.PhraseMatch {
	lower := strings.ToLower(text)
	var out []domain.PhraseMatch
	for _, entry := range i.entries {
		for _, m := range entry.matchers {
			if m.match(lower) {
				out = append(out, domain.PhraseMatch{Tag: entry.tag, Phrase: m.phrase})
			}
		}
	}
	return out
}

// Matches reports whether phrase, as written in the vocabulary, matches text.
func (i *Inferencer) Matches(phrase, text string) bool {
	lower := strings.ToLower(text)
	for _, entry := range i.entries {
		for _, m := range entry.matchers {
			if m.phrase == phrase {
				return m.match(lower)
			}
		}
	}
	return false
}

// Tags lists the vocabulary's tags.
func (i *Inferencer) Tags() []domain.CapabilityTag {
	tags := make([]domain.CapabilityTag, 0, len(i.entries))
	for _, entry := range i.entries {
		tags = append(tags, entry.tag)
	}
	return tags
}
