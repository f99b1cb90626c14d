package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"smartrouter/internal/app"
	"smartrouter/internal/domain"
	"smartrouter/internal/infra/inventory"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	pickColor    = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	dimColor     = color.New(color.Faint)
)

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	table.SetHeaderLine(true)
	table.SetColumnSeparator(" ")
	table.SetCenterSeparator(" ")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	return table
}

type buildOutput struct {
	Outcome     domain.BuildOutcome   `json:"outcome"`
	BuildID     string                `json:"buildId,omitempty"`
	BuiltAt     *time.Time            `json:"builtAt,omitempty"`
	Fingerprint string                `json:"fingerprint,omitempty"`
	Stats       *domain.RegistryStats `json:"stats,omitempty"`
}

func buildView(result inventory.BuildResult) buildOutput {
	out := buildOutput{Outcome: result.Outcome}
	if result.Registry != nil {
		stats := result.Registry.Stats()
		builtAt := result.Registry.BuiltAt
		out.BuildID = result.Registry.BuildID
		out.BuiltAt = &builtAt
		out.Fingerprint = result.Registry.Fingerprint
		out.Stats = &stats
	}
	return out
}

func printBuild(w io.Writer, result inventory.BuildResult, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, buildView(result))
	}
	printBuildLine(w, result)
	if len(result.Outcome.Problems) > 0 {
		fmt.Fprintln(w)
		table := newTable(w, "Severity", "Code", "Path", "Message")
		for _, problem := range result.Outcome.Problems {
			table.Append([]string{string(problem.Severity), problem.Code, problem.Path, problem.Message})
		}
		table.Render()
	}
	return nil
}

func printBuildLine(w io.Writer, result inventory.BuildResult) {
	state := "rebuilt"
	switch {
	case !result.Outcome.Success:
		state = "incomplete"
	case result.Outcome.Cached:
		state = "cached"
	}
	if result.Registry == nil {
		fmt.Fprintf(w, "%s: no registry written (%d problems)\n", warnColor.Sprint(state), len(result.Outcome.Problems))
		return
	}
	stats := result.Registry.Stats()
	fmt.Fprintf(w, "%s: %d capabilities, %d tools (%d unique) build=%s\n",
		headingColor.Sprint(state), stats.Capabilities, stats.Tools, stats.UniqueUnits, shortID(result.Registry.BuildID))
	if !result.Outcome.Success {
		fmt.Fprintf(w, "%s\n", warnColor.Sprint("some roots could not be read; the registry was not stored"))
	}
}

func printProblems(w io.Writer, problems []domain.Problem) {
	for _, problem := range problems {
		fmt.Fprintf(w, "%s %s %s: %s\n", warnColor.Sprint(problem.Severity), problem.Code, problem.Path, problem.Message)
	}
}

func printDecision(w io.Writer, decision domain.Decision) {
	switch decision.Outcome {
	case domain.OutcomeNone:
		fmt.Fprintln(w, "No capability detected in the request.")
	case domain.OutcomeUnserved:
		fmt.Fprintf(w, "Detected %s, but no installed tool serves it.\n", joinTags(decision.Tags))
	case domain.OutcomeSuggest, domain.OutcomeAutoRoute:
		if decision.Selected == nil {
			return
		}
		verb := "Suggested"
		if decision.Outcome == domain.OutcomeAutoRoute {
			verb = "Routing to"
		}
		fmt.Fprintf(w, "%s %s (%s, %s)\n", verb, pickColor.Sprint(unitLabel(decision.Selected.Unit)),
			decision.Selected.Unit.Kind, decision.Selected.Unit.Origin)
		if decision.Selected.Unit.Description != "" {
			fmt.Fprintf(w, "  %s\n", dimColor.Sprint(decision.Selected.Unit.Description))
		}
		if decision.Justification != "" {
			fmt.Fprintf(w, "Why: %s\n", decision.Justification)
		}
	case domain.OutcomeAskMenu:
		fmt.Fprintf(w, "%s for %s:\n", headingColor.Sprint("Candidates"), joinTags(decision.Tags))
		table := newTable(w, "#", "Tool", "Kind", "Origin", "Specialty", "Description")
		for i, ranked := range decision.Ranked {
			table.Append([]string{
				fmt.Sprintf("%d", i+1),
				unitLabel(ranked.Unit),
				string(ranked.Unit.Kind),
				string(ranked.Unit.Origin),
				fmt.Sprintf("%d", ranked.Specialty),
				truncate(ranked.Unit.Description, 60),
			})
		}
		table.Render()
		if decision.DecidedBy != domain.RankKeyNone {
			fmt.Fprintf(w, "Decided by %s\n", decision.DecidedBy)
		}
	}
}

func printList(w io.Writer, registry *domain.Registry, tags []domain.CapabilityTag, jsonOutput bool) error {
	if jsonOutput {
		out := make(map[domain.CapabilityTag][]domain.ToolUnit, len(tags))
		for _, tag := range tags {
			out[tag] = registry.Units(tag)
		}
		return writeJSON(w, out)
	}
	table := newTable(w, "Capability", "Tool", "Kind", "Origin", "Description")
	for _, tag := range tags {
		for _, unit := range registry.Units(tag) {
			table.Append([]string{string(tag), unitLabel(unit), string(unit.Kind), string(unit.Origin), truncate(unit.Description, 60)})
		}
	}
	table.Render()
	return nil
}

func printStats(w io.Writer, cfg app.Config, registry *domain.Registry, jsonOutput bool) error {
	stats := registry.Stats()
	if jsonOutput {
		return writeJSON(w, map[string]any{
			"buildId":     registry.BuildID,
			"builtAt":     registry.BuiltAt,
			"fingerprint": registry.Fingerprint,
			"store":       cfg.Store.Path,
			"stats":       stats,
		})
	}
	fmt.Fprintf(w, "%s\n", headingColor.Sprint("Registry"))
	fmt.Fprintf(w, "  capabilities  %d\n", stats.Capabilities)
	fmt.Fprintf(w, "  tools         %d (%d unique)\n", stats.Tools, stats.UniqueUnits)
	fmt.Fprintf(w, "  build         %s\n", registry.BuildID)
	fmt.Fprintf(w, "  built at      %s\n", registry.BuiltAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "  fingerprint   %s\n", shortID(registry.Fingerprint))
	fmt.Fprintf(w, "  store         %s (%s)\n", cfg.Store.Path, cfg.Store.Kind)
	return nil
}

func printPreferences(w io.Writer, path string, prefs domain.UserPreferences, valid bool) {
	status := pickColor.Sprint("valid")
	if !valid {
		status = warnColor.Sprint("invalid, using defaults")
	}
	fmt.Fprintf(w, "%s: %s\n", path, status)
	fmt.Fprintf(w, "  routing_mode        %s\n", prefs.RoutingMode)
	fmt.Fprintf(w, "  show_reasoning      %t\n", prefs.ShowReasoning)
	fmt.Fprintf(w, "  excluded_providers  %s\n", listOrDash(prefs.ExcludedProviders))
	fmt.Fprintf(w, "  priority_order      %s\n", listOrDash(prefs.PriorityOrder))
	for _, rule := range prefs.ContextRules {
		fmt.Fprintf(w, "  context %-12s %s\n", rule.Pattern, strings.Join(rule.Providers, ", "))
	}
}

func unitLabel(unit domain.ToolUnit) string {
	return unit.ProviderID + "/" + unit.Name()
}

func joinTags(tags []domain.CapabilityTag) string {
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, string(tag))
	}
	return strings.Join(parts, ", ")
}

func listOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
