package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"smartrouter/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func unitRefs(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Unit.ProviderID+"|"+string(c.Unit.Kind)+"|"+c.Unit.EntryRef)
	}
	return out
}

func problemCodes(problems []domain.Problem) []string {
	out := make([]string, 0, len(problems))
	for _, p := range problems {
		out = append(out, p.Code)
	}
	return out
}

func TestScanExternalSelectsHighestVersion(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "acme", "review-kit", "1.0.0")
	cur := filepath.Join(root, "acme", "review-kit", "1.10.0")
	writeFile(t, filepath.Join(old, ".claude-plugin", "plugin.json"), `{"name":"review-kit"}`)
	writeFile(t, filepath.Join(old, "agents", "stale.md"), "old")
	writeFile(t, filepath.Join(cur, ".claude-plugin", "plugin.json"), `{"name":"review-kit"}`)
	writeFile(t, filepath.Join(cur, "skills", "tdd", "SKILL.md"), "---\ndescription: unit test\n---\n")
	writeFile(t, filepath.Join(cur, "skills", "README.md"), "not a skill")
	writeFile(t, filepath.Join(cur, "agents", "reviewer.md"), "review")
	writeFile(t, filepath.Join(cur, "commands", "ops", "deploy.md"), "deploy")
	writeFile(t, filepath.Join(cur, "workflows", "release.md"), "release")
	writeFile(t, filepath.Join(cur, ".mcp.json"), `{"mcpServers":{"github":{"command":"npx","args":["-y","@modelcontextprotocol/server-github"]}}}`)

	s := New(Options{})
	survey := s.Survey(Roots{External: root})
	require.NoError(t, survey.Failed)
	require.Empty(t, survey.Problems)
	result := s.Load(survey)
	require.Empty(t, result.Problems)

	want := []string{
		"review-kit|skill|skills/tdd/SKILL.md",
		"review-kit|agent|agents/reviewer.md",
		"review-kit|command|commands/ops/deploy.md",
		"review-kit|workflow|workflows/release.md",
		"review-kit|service|mcp:github",
	}
	if diff := cmp.Diff(want, unitRefs(result.Candidates)); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
	service := result.Candidates[4]
	require.NotNil(t, service.Service)
	require.Equal(t, []string{"npx", "-y", "@modelcontextprotocol/server-github"}, service.Service.Command)
	require.Equal(t, domain.OriginExternal, service.Unit.Origin)
}

func TestScanManifestInvalidSkipsProvider(t *testing.T) {
	root := t.TempDir()
	bad := filepath.Join(root, "acme", "broken", "1.0.0")
	good := filepath.Join(root, "acme", "works", "1.0.0")
	writeFile(t, filepath.Join(bad, "plugin.json"), `{"name": `)
	writeFile(t, filepath.Join(bad, "agents", "a.md"), "a")
	writeFile(t, filepath.Join(good, "plugin.json"), `{"name":"works"}`)
	writeFile(t, filepath.Join(good, "agents", "b.md"), "b")
	nameless := filepath.Join(root, "acme", "nameless", "1.0.0")
	writeFile(t, filepath.Join(nameless, "plugin.json"), `{"version":"1.0.0"}`)

	s := New(Options{})
	result := s.Load(s.Survey(Roots{External: root}))

	require.Equal(t, []string{"works|agent|agents/b.md"}, unitRefs(result.Candidates))
	require.Equal(t, []string{domain.ProblemManifestInvalid, domain.ProblemManifestInvalid}, problemCodes(result.Problems))
}

func TestScanExternalSymlinkEscape(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "evil.md"), "---\ndescription: debug everything\n---\n")

	root := t.TempDir()
	site := filepath.Join(root, "acme", "kit", "1.0.0")
	writeFile(t, filepath.Join(site, "plugin.json"), `{"name":"kit"}`)
	writeFile(t, filepath.Join(site, "agents", "inside.md"), "ok")
	require.NoError(t, os.Symlink(filepath.Join(outside, "evil.md"), filepath.Join(site, "agents", "evil.md")))
	require.NoError(t, os.Symlink(filepath.Join(site, "agents", "inside.md"), filepath.Join(site, "agents", "alias.md")))

	s := New(Options{})
	survey := s.Survey(Roots{External: root})
	result := s.Load(survey)

	require.Equal(t, []string{"kit|agent|agents/alias.md", "kit|agent|agents/inside.md"}, unitRefs(result.Candidates))
	require.Len(t, survey.Problems, 1)
	require.Equal(t, domain.ProblemPathEscape, survey.Problems[0].Code)
	require.Equal(t, filepath.Join(site, "agents", "evil.md"), survey.Problems[0].Path)
}

func TestScanExternalSymlinkedManifestDir(t *testing.T) {
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "meta", "plugin.json"), `{"name":"outside-root"}`)

	root := t.TempDir()
	site := filepath.Join(root, "acme", "kit", "1.0.0")
	writeFile(t, filepath.Join(site, "agents", "a.md"), "a")
	require.NoError(t, os.Symlink(filepath.Join(outside, "meta"), filepath.Join(site, ".claude-plugin")))

	s := New(Options{})
	survey := s.Survey(Roots{External: root})
	result := s.Load(survey)

	require.Empty(t, result.Candidates)
	require.Equal(t, []string{domain.ProblemPathEscape}, problemCodes(survey.Problems))
	require.Equal(t, filepath.Join(site, ".claude-plugin"), survey.Problems[0].Path)
	require.Equal(t, []string{domain.ProblemManifestInvalid}, problemCodes(result.Problems))
}

func TestScanExternalSymlinkedManifestDirInsideRoot(t *testing.T) {
	root := t.TempDir()
	shared := filepath.Join(root, "acme", "shared-meta")
	writeFile(t, filepath.Join(shared, "plugin.json"), `{"name":"kit"}`)
	site := filepath.Join(root, "acme", "kit", "1.0.0")
	writeFile(t, filepath.Join(site, "agents", "a.md"), "a")
	require.NoError(t, os.Symlink(shared, filepath.Join(site, ".claude-plugin")))

	s := New(Options{})
	result := s.Load(s.Survey(Roots{External: root}))

	require.Equal(t, []string{"kit|agent|agents/a.md"}, unitRefs(result.Candidates))
}

func TestScanLocalUnits(t *testing.T) {
	project := t.TempDir()
	local := filepath.Join(project, ".claude")
	writeFile(t, filepath.Join(local, "agents", "helper.md"), "help")
	writeFile(t, filepath.Join(local, "skills", "lint", "SKILL.md"), "lint")
	writeFile(t, filepath.Join(local, "commands", "a", "b", "c.md"), "nested")
	writeFile(t, filepath.Join(project, ".mcp.json"), `{"mcpServers":{"postgres":{"command":"pg-mcp"}}}`)

	target := filepath.Join(project, "shared.md")
	writeFile(t, target, "shared")
	require.NoError(t, os.Symlink(target, filepath.Join(local, "agents", "linked.md")))

	s := New(Options{MaxDepth: 1})
	survey := s.Survey(Roots{Local: local})
	result := s.Load(survey)

	want := []string{
		"local|skill|skills/lint/SKILL.md",
		"local|agent|agents/helper.md",
		"postgres|service|mcp:postgres",
	}
	if diff := cmp.Diff(want, unitRefs(result.Candidates)); diff != "" {
		t.Fatalf("candidates mismatch (-want +got):\n%s", diff)
	}
	for _, c := range result.Candidates {
		require.Equal(t, domain.OriginLocal, c.Unit.Origin)
	}
	require.ElementsMatch(t, []string{domain.ProblemSymlinkSkipped, domain.ProblemDepthExceeded}, problemCodes(survey.Problems))
}

func TestScanLocalSymlinkedDirectory(t *testing.T) {
	project := t.TempDir()
	local := filepath.Join(project, ".claude")
	other := filepath.Join(project, "elsewhere")
	writeFile(t, filepath.Join(other, "x.md"), "x")
	require.NoError(t, os.MkdirAll(filepath.Join(local, "agents"), 0o755))
	require.NoError(t, os.Symlink(other, filepath.Join(local, "agents", "more")))

	s := New(Options{})
	survey := s.Survey(Roots{Local: local})
	require.Empty(t, s.Load(survey).Candidates)
	require.Equal(t, []string{domain.ProblemSymlinkSkipped}, problemCodes(survey.Problems))
}

func TestScanRootMissing(t *testing.T) {
	s := New(Options{})
	missing := filepath.Join(t.TempDir(), "nope")
	survey := s.Survey(Roots{External: missing, Local: filepath.Join(t.TempDir(), "none")})

	require.NoError(t, survey.Failed)
	require.Equal(t, []string{domain.ProblemRootMissing, domain.ProblemRootMissing}, problemCodes(survey.Problems))
	require.Empty(t, s.Load(survey).Candidates)
}

func TestScanRootUnreadable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "root")
	writeFile(t, file, "not a directory")

	s := New(Options{})
	survey := s.Survey(Roots{External: file})

	require.Error(t, survey.Failed)
	require.ErrorIs(t, survey.Failed, domain.ErrRootUnreadable)
	code, ok := domain.CodeFrom(survey.Failed)
	require.True(t, ok)
	require.Equal(t, domain.CodeUnavailable, code)
	require.Empty(t, survey.Stamps)
	require.Empty(t, s.Load(survey).Candidates)
}

func TestSurveyStampsTrackModTime(t *testing.T) {
	root := t.TempDir()
	site := filepath.Join(root, "acme", "kit", "1.0.0")
	writeFile(t, filepath.Join(site, "plugin.json"), `{"name":"kit"}`)
	doc := filepath.Join(site, "agents", "a.md")
	writeFile(t, doc, "a")

	s := New(Options{})
	before, err := domain.ScanFingerprint(s.Survey(Roots{External: root}).Stamps)
	require.NoError(t, err)
	again, err := domain.ScanFingerprint(s.Survey(Roots{External: root}).Stamps)
	require.NoError(t, err)
	require.Equal(t, before, again)

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(doc, later, later))
	after, err := domain.ScanFingerprint(s.Survey(Roots{External: root}).Stamps)
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestSurveyIgnoresUnrelatedFilesInRoot(t *testing.T) {
	local := filepath.Join(t.TempDir(), ".claude")
	writeFile(t, filepath.Join(local, "agents", "a.md"), "a")

	s := New(Options{})
	before, err := domain.ScanFingerprint(s.Survey(Roots{Local: local}).Stamps)
	require.NoError(t, err)

	writeFile(t, filepath.Join(local, ".cache", "agent-registry.json"), "{}")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(local, later, later))

	after, err := domain.ScanFingerprint(s.Survey(Roots{Local: local}).Stamps)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestReadServiceConfigTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
[mcp_servers.context7]
command = "npx"
args = ["-y", "@upstash/context7-mcp"]

[mcp_servers.remote]
url = "https://example.com/mcp"

[mcp.servers.context7]
command = "old"

[mcp.servers.sentry]
command = "sentry-mcp"

[mcp_servers.broken]
args = ["x"]
`)

	entries, problems := ReadServiceConfig(path)
	want := []ServiceEntry{
		{Name: "context7", Command: []string{"npx", "-y", "@upstash/context7-mcp"}},
		{Name: "remote", URL: "https://example.com/mcp"},
		{Name: "sentry", Command: []string{"sentry-mcp"}},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, problems, 2)
	require.Equal(t, path+"#broken", problems[0].Path)
	require.Equal(t, path+"#context7", problems[1].Path)
}

func TestReadServiceConfigJSON(t *testing.T) {
	dir := t.TempDir()

	flat := filepath.Join(dir, ".mcp.json")
	writeFile(t, flat, `{"playwright":{"command":"npx","args":["@playwright/mcp"]}}`)
	entries, problems := ReadServiceConfig(flat)
	require.Empty(t, problems)
	require.Equal(t, []ServiceEntry{{Name: "playwright", Command: []string{"npx", "@playwright/mcp"}}}, entries)

	user := filepath.Join(dir, "settings.json")
	writeFile(t, user, `{"theme":{"dark":true}}`)
	entries, problems = ReadServiceConfig(user)
	require.Empty(t, entries)
	require.Empty(t, problems)

	invalid := filepath.Join(dir, "bad.json")
	writeFile(t, invalid, `{"mcpServers": []}`)
	_, problems = ReadServiceConfig(invalid)
	require.Equal(t, []string{domain.ProblemServiceConfigInvalid}, problemCodes(problems))
}

func TestExtraServiceConfigMissing(t *testing.T) {
	s := New(Options{})
	survey := s.Survey(Roots{ServiceConfigs: []string{filepath.Join(t.TempDir(), "absent.json")}})
	require.Equal(t, []string{domain.ProblemServiceConfigInvalid}, problemCodes(survey.Problems))
}

func TestSelectVersion(t *testing.T) {
	cases := []struct {
		names []string
		want  string
	}{
		{names: []string{"1.2.0", "1.10.0", "1.9.9"}, want: "1.10.0"},
		{names: []string{"v2.0.0", "1.0.0"}, want: "v2.0.0"},
		{names: []string{"latest", "0.1.0"}, want: "0.1.0"},
		{names: []string{"beta", "alpha"}, want: "beta"},
		{names: []string{"1.0.0-rc.1", "1.0.0"}, want: "1.0.0"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, selectVersion(tc.names), "%v", tc.names)
	}
}
