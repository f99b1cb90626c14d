package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartrouter/internal/infra/inventory"
)

type buildEvent struct {
	result inventory.BuildResult
	err    error
}

func nextBuild(t *testing.T, events <-chan buildEvent) buildEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a build")
		return buildEvent{}
	}
}

func TestWatchRebuildsOnChange(t *testing.T) {
	cfg := newProject(t, "")
	application := newApplication(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan buildEvent, 8)
	done := make(chan error, 1)
	go func() {
		done <- application.Watch(ctx, WatchOptions{
			Debounce: 20 * time.Millisecond,
			OnBuild: func(result inventory.BuildResult, err error) {
				events <- buildEvent{result: result, err: err}
			},
		})
	}()

	initial := nextBuild(t, events)
	require.NoError(t, initial.err)
	require.True(t, initial.result.Outcome.Success)
	require.Empty(t, initial.result.Registry.Units("testing"))

	writeFile(t, filepath.Join(cfg.LocalRoot, "agents", "tester.md"), "---\ndescription: Unit test runner\n---\n")

	var rebuilt buildEvent
	for {
		rebuilt = nextBuild(t, events)
		require.NoError(t, rebuilt.err)
		if len(rebuilt.result.Registry.Units("testing")) > 0 {
			break
		}
	}
	require.False(t, rebuilt.result.Outcome.Cached)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestTreeWatcherRelevance(t *testing.T) {
	w := &treeWatcher{
		logger: zap.NewNop(),
		ignore: "/p/.claude/.cache",
		trees:  []string{"/home/u/.claude/plugins/cache", "/p/.claude"},
		files:  []string{"/p/.mcp.json"},
	}
	cases := []struct {
		event fsnotify.Event
		want  bool
	}{
		{fsnotify.Event{Name: "/p/.claude/agents/a.md", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/p/.claude", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/home/u/.claude/plugins/cache/g/p/1.0.0", Op: fsnotify.Create}, true},
		{fsnotify.Event{Name: "/p/.mcp.json", Op: fsnotify.Write}, true},
		{fsnotify.Event{Name: "/p/.claude/.cache/agent-registry.json", Op: fsnotify.Create}, false},
		{fsnotify.Event{Name: "/p/.claude/agents/a.md", Op: fsnotify.Chmod}, false},
		{fsnotify.Event{Name: "/p/README.md", Op: fsnotify.Write}, false},
		{fsnotify.Event{Name: "/p/.claudette/x", Op: fsnotify.Write}, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, w.relevant(tc.event), "%s %s", tc.event.Op, tc.event.Name)
	}
}

func TestDepthBelow(t *testing.T) {
	require.Equal(t, 0, depthBelow("/a", "/a"))
	require.Equal(t, 1, depthBelow("/a", "/a/b"))
	require.Equal(t, 3, depthBelow("/a", "/a/b/c/d"))
}
