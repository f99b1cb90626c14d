package prefs

import (
	"fmt"
	"path/filepath"
	"strings"

	"smartrouter/internal/domain"
)

type rawPreferences struct {
	RoutingMode       string           `mapstructure:"routing_mode"`
	ShowReasoning     bool             `mapstructure:"show_reasoning"`
	ExcludedProviders []string         `mapstructure:"excluded_providers"`
	ExcludedPlugins   []string         `mapstructure:"excluded_plugins"`
	PriorityOrder     []string         `mapstructure:"priority_order"`
	ContextRules      []rawContextRule `mapstructure:"context_rules"`
}

type rawContextRule struct {
	Pattern   string   `mapstructure:"pattern"`
	Providers []string `mapstructure:"providers"`
}

func normalizePreferences(raw rawPreferences) domain.UserPreferences {
	mode := domain.RoutingMode(strings.ToLower(strings.TrimSpace(raw.RoutingMode)))
	if mode == "" {
		mode = domain.DefaultRoutingMode
	}
	prefs := domain.UserPreferences{
		RoutingMode:       mode,
		ShowReasoning:     raw.ShowReasoning,
		ExcludedProviders: normalizeList(append(append([]string(nil), raw.ExcludedProviders...), raw.ExcludedPlugins...)),
		PriorityOrder:     normalizeList(raw.PriorityOrder),
	}
	for _, rule := range raw.ContextRules {
		prefs.ContextRules = append(prefs.ContextRules, domain.ContextRule{
			Pattern:   strings.TrimSpace(rule.Pattern),
			Providers: normalizeList(rule.Providers),
		})
	}
	return prefs
}

// normalizeList trims entries, drops blanks and keeps the first of each duplicate.
func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validatePreferences(prefs domain.UserPreferences) []string {
	var errs []string
	if !prefs.RoutingMode.Valid() {
		errs = append(errs, fmt.Sprintf("routing_mode: unknown mode %q (want auto, ask or context)", prefs.RoutingMode))
	}
	for i, rule := range prefs.ContextRules {
		if rule.Pattern == "" {
			errs = append(errs, fmt.Sprintf("context_rules[%d]: pattern is required", i))
		} else if _, err := filepath.Match(rule.Pattern, "file.x"); err != nil {
			errs = append(errs, fmt.Sprintf("context_rules[%d]: pattern %q: %v", i, rule.Pattern, err))
		}
		if len(rule.Providers) == 0 {
			errs = append(errs, fmt.Sprintf("context_rules[%d]: providers must not be empty", i))
		}
	}
	return errs
}
