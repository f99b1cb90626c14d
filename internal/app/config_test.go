package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"smartrouter/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfigDefaults(t *testing.T) {
	project := t.TempDir()
	home := t.TempDir()

	cfg, err := LoadConfig(ConfigOptions{ProjectDir: project, HomeDir: home})
	require.NoError(t, err)

	want := Config{
		ProjectDir:      project,
		ExternalRoot:    filepath.Join(home, ".claude", "plugins", "cache"),
		LocalRoot:       filepath.Join(project, ".claude"),
		ProjectServices: filepath.Join(project, ".mcp.json"),
		Store: StoreConfig{
			Kind:       domain.StoreKindFile,
			Path:       filepath.Join(project, ".claude", ".cache", "agent-registry.json"),
			MarkerPath: filepath.Join(project, ".claude", ".cache", "agent-registry.hash"),
		},
		PreferencesPath: filepath.Join(project, ".claude", "smart-router.local.md"),
		Scoring:         ScoringConfig{PhraseWeight: 1},
		MaxLocalDepth:   domain.DefaultMaxLocalDepth,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFromProjectFile(t *testing.T) {
	project := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(project, ".claude", "smart-router.yaml"), `
externalRoot: ~/tools/cache
serviceConfigs:
  - ~/.codex/config.toml
store:
  kind: bolt
vocabularyPath: vocab.yaml
services:
  internal-wiki: Search the internal documentation wiki
scoring:
  tagCoverageWeight: 2
maxLocalDepth: 3
`)

	cfg, err := LoadConfig(ConfigOptions{ProjectDir: project, HomeDir: home})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(project, ".claude", "smart-router.yaml"), cfg.ConfigFile)
	require.Equal(t, filepath.Join(home, "tools", "cache"), cfg.ExternalRoot)
	require.Equal(t, []string{filepath.Join(home, ".codex", "config.toml")}, cfg.ServiceConfigs)
	require.Equal(t, StoreConfig{Kind: domain.StoreKindBolt, Path: filepath.Join(project, ".claude", ".cache", "agent-registry.db")}, cfg.Store)
	require.Equal(t, filepath.Join(project, "vocab.yaml"), cfg.VocabularyPath)
	require.Equal(t, "Search the internal documentation wiki", cfg.Services["internal-wiki"])
	require.Equal(t, ScoringConfig{PhraseWeight: 1, TagCoverageWeight: 2}, cfg.Scoring)
	require.Equal(t, 3, cfg.MaxLocalDepth)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	project := t.TempDir()
	t.Setenv("SMART_ROUTER_STORE_KIND", "bolt")
	t.Setenv("SMART_ROUTER_MAXLOCALDEPTH", "2")

	cfg, err := LoadConfig(ConfigOptions{ProjectDir: project, HomeDir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, domain.StoreKindBolt, cfg.Store.Kind)
	require.Equal(t, 2, cfg.MaxLocalDepth)
}

func TestLoadConfigProjectFromEnvironment(t *testing.T) {
	project := t.TempDir()
	t.Setenv(domain.EnvProjectDir, project)

	cfg, err := LoadConfig(ConfigOptions{HomeDir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, project, cfg.ProjectDir)
}

func TestLoadConfigErrors(t *testing.T) {
	project := t.TempDir()

	_, err := LoadConfig(ConfigOptions{Path: filepath.Join(project, "missing.yaml"), ProjectDir: project})
	require.ErrorContains(t, err, "read config")

	path := filepath.Join(project, "bad.yaml")
	writeFile(t, path, "store:\n  kind: redis\nscoring:\n  phraseWeight: -1\nmaxLocalDepth: 0\n")
	_, err = LoadConfig(ConfigOptions{Path: path, ProjectDir: project})
	require.ErrorContains(t, err, `store.kind: unknown store "redis"`)
	require.ErrorContains(t, err, "scoring.phraseWeight must be >= 0")
	require.ErrorContains(t, err, "maxLocalDepth must be >= 1")
	code, ok := domain.CodeFrom(err)
	require.True(t, ok)
	require.Equal(t, domain.CodeInvalidArgument, code)

	writeFile(t, path, "store: [\n")
	_, err = LoadConfig(ConfigOptions{Path: path, ProjectDir: project})
	require.ErrorContains(t, err, "parse config")
}

func TestResolvePath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", "/home/u"},
		{"~/x/y", "/home/u/x/y"},
		{"/abs/path/", "/abs/path"},
		{"rel/path", "/proj/rel/path"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, resolvePath(tc.in, "/proj", "/home/u"), tc.in)
	}
}
