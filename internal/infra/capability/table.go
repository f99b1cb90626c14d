package capability

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"smartrouter/internal/domain"
)

// RegexPrefix marks a phrase as a regular expression instead of a plain substring.
const RegexPrefix = "re:"

// Entry maps one capability tag to the phrases that signal it. Phrases are tried in order.
type Entry struct {
	Tag     domain.CapabilityTag
	Phrases []string
}

// Table is the capability vocabulary. Order matters: inference reports tags in table order.
type Table []Entry

// DefaultTable returns the built-in vocabulary. Multi-word phrases come first so a match
// reports the most specific phrase; short tokens are word-bounded regexes.
func DefaultTable() Table {
	return Table{
		{Tag: "code-review", Phrases: []string{"code review", "pull request", `re:\bprs?\b`, "review", "audit code"}},
		{Tag: "testing", Phrases: []string{"unit test", "integration test", "test coverage", "testing", `re:\btests?\b`, "tdd", "e2e", `re:\bqa\b`}},
		{Tag: "debugging", Phrases: []string{"stack trace", "root cause", "debug", "troubleshoot", "crash", "exception", `re:\bbugs?\b`, `re:\bfix(es|ing)?\b`}},
		{Tag: "refactoring", Phrases: []string{"clean up code", "code smell", "technical debt", "refactor", "restructure", "simplify code"}},
		{Tag: "documentation", Phrases: []string{"api reference", "write docs", "documentation", "readme", "docstring", "changelog", `re:\bdocs\b`}},
		{Tag: "security", Phrases: []string{"threat model", "penetration test", "security", "vulnerab", "owasp", "authentication", "authorization", `re:\bcve\b`, "secrets"}},
		{Tag: "performance", Phrases: []string{"memory leak", "performance", "optimiz", "optimis", "profiling", "latency", "benchmark"}},
		{Tag: "deployment", Phrases: []string{"ci/cd", "deploy", "release pipeline", "docker", "kubernetes", "infrastructure"}},
		{Tag: "database", Phrases: []string{"sql query", "database", "migration", `re:\bsql\b`, "postgres", "sqlite", "mongodb", "schema"}},
		{Tag: "frontend", Phrases: []string{"user interface", "ui component", "frontend", "front-end", "react", "tailwind", `re:\bcss\b`, `re:\bhtml\b`, "browser"}},
		{Tag: "api-design", Phrases: []string{"api design", "rest api", "openapi", "graphql", "endpoint", `re:\bapis?\b`}},
		{Tag: "architecture", Phrases: []string{"system design", "design pattern", "architect", "microservice", "scalab"}},
		{Tag: "planning", Phrases: []string{"task breakdown", "implementation plan", "roadmap", "milestone", `re:\bplan(s|ning)?\b`, "estimate"}},
		{Tag: "brainstorming", Phrases: []string{"explore options", "brainstorm", "ideation", `re:\bideas?\b`}},
		{Tag: "git", Phrases: []string{"merge conflict", "github", `re:\bgit\b`, "commit", "rebase", "branch"}},
		{Tag: "data-analysis", Phrases: []string{"data analysis", "dataset", "visualiz", "pandas", "jupyter", "statistic", "analyz", "analys"}},
		{Tag: "game-development", Phrases: []string{"game dev", `re:\bgames?\b`, "unity", "unreal", "godot", "shader", "sprite"}},
		{Tag: "research", Phrases: []string{"web search", "look up", "research", "investigate", "library docs"}},
	}
}

// Tags lists the table's tags in order.
func (t Table) Tags() []domain.CapabilityTag {
	tags := make([]domain.CapabilityTag, 0, len(t))
	for _, entry := range t {
		tags = append(tags, entry.Tag)
	}
	return tags
}

// Merge returns a copy of t where entries in other replace same-tag entries and new tags
// are appended in other's order.
func (t Table) Merge(other Table) Table {
	out := make(Table, 0, len(t)+len(other))
	index := make(map[domain.CapabilityTag]int, len(t))
	for _, entry := range t {
		index[entry.Tag] = len(out)
		out = append(out, Entry{Tag: entry.Tag, Phrases: append([]string(nil), entry.Phrases...)})
	}
	for _, entry := range other {
		phrases := append([]string(nil), entry.Phrases...)
		if i, ok := index[entry.Tag]; ok {
			out[i].Phrases = phrases
			continue
		}
		index[entry.Tag] = len(out)
		out = append(out, Entry{Tag: entry.Tag, Phrases: phrases})
	}
	return out
}

// LoadTable reads a vocabulary file: a YAML mapping of tag to phrase list.
// Mapping order is preserved.
func LoadTable(path string) (Table, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("vocabulary path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML vocabulary document.
func ParseTable(data []byte) (Table, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if len(root.Content) == 0 {
		return Table{}, nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, errors.New("vocabulary must be a mapping of tag to phrases")
	}

	var errs []string
	table := make(Table, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		tag := strings.ToLower(strings.TrimSpace(mapping.Content[i].Value))
		if tag == "" {
			errs = append(errs, fmt.Sprintf("entry %d: tag is required", i/2))
			continue
		}
		var phrases []string
		if err := mapping.Content[i+1].Decode(&phrases); err != nil {
			errs = append(errs, fmt.Sprintf("%s: phrases must be a list of strings", tag))
			continue
		}
		cleaned := make([]string, 0, len(phrases))
		for _, phrase := range phrases {
			if phrase = strings.TrimSpace(phrase); phrase != "" {
				cleaned = append(cleaned, phrase)
			}
		}
		if len(cleaned) == 0 {
			errs = append(errs, fmt.Sprintf("%s: at least one phrase is required", tag))
			continue
		}
		table = append(table, Entry{Tag: domain.CapabilityTag(tag), Phrases: cleaned})
	}
	if len(errs) > 0 {
		return nil, errors.New(strings.Join(errs, "; "))
	}
	return table, nil
}
