package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestProject(t *testing.T) string {
	t.Helper()
	project := t.TempDir()
	site := filepath.Join(project, "cache", "acme", "review-kit", "1.2.0")
	writeFile(t, filepath.Join(site, ".claude-plugin", "plugin.json"), `{"name":"review-kit"}`)
	writeFile(t, filepath.Join(site, "agents", "pr.md"), "---\ndescription: Pull request review and PR checks\n---\n")
	writeFile(t, filepath.Join(project, ".claude", "agents", "debugger.md"), "---\ndescription: Debug a crash to its root cause\n---\n")
	writeFile(t, filepath.Join(project, ".claude", "smart-router.yaml"), "externalRoot: cache\n")
	return project
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestBuildAndQuery(t *testing.T) {
	project := newTestProject(t)

	out, _, err := runCLI(t, "", "--project", project, "--no-color", "build")
	require.NoError(t, err)
	require.Contains(t, out, "rebuilt: 2 capabilities, 2 tools")

	out, _, err = runCLI(t, "", "--project", project, "--no-color", "build")
	require.NoError(t, err)
	require.Contains(t, out, "cached:")

	out, _, err = runCLI(t, "", "--project", project, "--no-color", "query", "--mode", "auto", "review", "this", "PR")
	require.NoError(t, err)
	require.Contains(t, out, "Routing to review-kit/pr (agent, external)")

	out, _, err = runCLI(t, "", "--project", project, "--json", "query", "debug", "the", "crash")
	require.NoError(t, err)
	var result struct {
		Decision struct {
			Outcome string `json:"outcome"`
		} `json:"decision"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Equal(t, "suggest", result.Decision.Outcome)
}

func TestQueryRejectsUnknownMode(t *testing.T) {
	_, _, err := runCLI(t, "", "--project", t.TempDir(), "query", "--mode", "sometimes", "review")
	var exitErr exitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, exitFailure, exitErr.code)
}

func TestListAndStats(t *testing.T) {
	project := newTestProject(t)

	_, _, err := runCLI(t, "", "--project", project, "stats")
	require.ErrorContains(t, err, "no registry yet")

	out, _, err := runCLI(t, "", "--project", project, "--no-color", "list", "--tag", "debugging")
	require.NoError(t, err)
	require.Contains(t, out, "local/debugger")
	require.NotContains(t, out, "review-kit/pr")

	out, _, err = runCLI(t, "", "--project", project, "--no-color", "stats", "--metrics")
	require.NoError(t, err)
	require.Contains(t, out, "capabilities  2")
	require.Contains(t, out, "smart_router_registry_units")
}

func TestHookNeverFails(t *testing.T) {
	project := newTestProject(t)

	out, _, err := runCLI(t, `{"prompt":"review this PR"}`, "--project", project, "hook")
	require.NoError(t, err)
	require.Empty(t, out)

	_, _, err = runCLI(t, "", "--project", project, "build")
	require.NoError(t, err)

	out, _, err = runCLI(t, `{"prompt":"review this PR"}`, "--project", project, "hook")
	require.NoError(t, err)
	require.Contains(t, out, "Smart Router Early Reminder")

	out, _, err = runCLI(t, "garbage", "--project", project, "--config", filepath.Join(project, "missing.yaml"), "hook")
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestPrefsValidate(t *testing.T) {
	project := newTestProject(t)
	path := filepath.Join(project, "prefs.md")

	writeFile(t, path, "---\nrouting_mode: context\npriority_order: [review-kit]\n---\n")
	out, _, err := runCLI(t, "", "--project", project, "--no-color", "prefs", "validate", path)
	require.NoError(t, err)
	require.Contains(t, out, "valid")
	require.Contains(t, out, "routing_mode        context")

	writeFile(t, path, "---\nrouting_mode: sometimes\n---\n")
	_, stderr, err := runCLI(t, "", "--project", project, "--no-color", "prefs", "validate", path)
	var exitErr exitError
	require.True(t, errors.As(err, &exitErr))
	require.Contains(t, stderr, "preferences_invalid")
}
