package ranker

import (
	"path/filepath"
	"strings"

	"smartrouter/internal/domain"
)

// normalizeHints lowercases hints and reduces file names to their extension with a dot.
func normalizeHints(hints []string) []string {
	out := make([]string, 0, len(hints))
	for _, hint := range hints {
		hint = strings.ToLower(strings.TrimSpace(hint))
		if hint == "" {
			continue
		}
		if !strings.HasPrefix(hint, ".") {
			if ext := filepath.Ext(hint); ext != "" {
				hint = ext
			} else {
				hint = "." + hint
			}
		}
		out = append(out, hint)
	}
	return out
}

// affinity returns the first context rule pattern that matches a hint and names provider.
func affinity(provider string, rules []domain.ContextRule, hints []string) (string, bool) {
	if len(hints) == 0 {
		return "", false
	}
	for _, rule := range rules {
		if !containsString(rule.Providers, provider) {
			continue
		}
		for _, hint := range hints {
			if MatchPattern(rule.Pattern, hint) {
				return rule.Pattern, true
			}
		}
	}
	return "", false
}

// MatchPattern reports whether a context rule pattern matches an extension hint such as
// ".py". Accepted patterns: "*.py", ".py", "py", "*.{ts,tsx}" and other filepath.Match
// globs, which are tested against "file.py".
func MatchPattern(pattern, hint string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return false
	}
	hints := normalizeHints([]string{hint})
	if len(hints) == 0 {
		return false
	}
	ext := hints[0]
	for _, alt := range expandBraces(pattern) {
		if matchOne(alt, ext) {
			return true
		}
	}
	return false
}

func matchOne(pattern, ext string) bool {
	switch {
	case strings.HasPrefix(pattern, "*.") && !strings.ContainsAny(pattern[2:], "*?["):
		return pattern[1:] == ext
	case strings.HasPrefix(pattern, ".") && !strings.ContainsAny(pattern, "*?["):
		return pattern == ext
	case !strings.ContainsAny(pattern, "*?[./"):
		return "."+pattern == ext
	}
	ok, err := filepath.Match(pattern, "file"+ext)
	return err == nil && ok
}

// expandBraces expands one level of {a,b} alternatives.
func expandBraces(pattern string) []string {
	open := strings.Index(pattern, "{")
	if open < 0 {
		return []string{pattern}
	}
	closeIdx := strings.Index(pattern[open:], "}")
	if closeIdx < 0 {
		return []string{pattern}
	}
	closeIdx += open
	prefix, suffix := pattern[:open], pattern[closeIdx+1:]
	var out []string
	for _, alt := range strings.Split(pattern[open+1:closeIdx], ",") {
		out = append(out, prefix+strings.TrimSpace(alt)+suffix)
	}
	return out
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
