package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/store/memory"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestParseOverDefaults(t *testing.T) {
	s, err := Parse([]byte("repo_owner: octocat\nrepo_name: links\nauto_sync: false\n"))
	require.NoError(t, err)

	assert.Equal(t, "octocat", s.RepoOwner)
	assert.Equal(t, "links", s.RepoName)
	assert.False(t, s.AutoSync)
	assert.Equal(t, domain.DefaultBranch, s.Branch)
	assert.Equal(t, domain.DefaultBatchSize, s.BatchSize)
	assert.Equal(t, domain.DefaultStrategy, s.PartitionStrategy)
}

func TestParseEmptyFile(t *testing.T) {
	s, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), s)
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("GHCLIP_TEST_OWNER", "hubot")
	s, err := Parse([]byte("repo_owner: ${GHCLIP_TEST_OWNER}\n"))
	require.NoError(t, err)
	assert.Equal(t, "hubot", s.RepoOwner)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "repo_ownr: octocat\n"},
		{"batch too large", "batch_size: 500\n"},
		{"interval too short", "sync_interval_minutes: 1\n"},
		{"bad strategy", "partition_strategy: weekly\n"},
		{"malformed", "repo_owner: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoaderApply(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, "repo_owner: octocat\nrepo_name: links\npartition_strategy: yearly\n")
	st := memory.NewStore()

	_, err := NewLoader(path).Apply(ctx, st)
	require.NoError(t, err)

	got, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StrategyYearly, got.PartitionStrategy)
	assert.True(t, got.Complete())
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	assert.Error(t, err)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, "repo_owner: octocat\nrepo_name: links\n")
	st := memory.NewStore()

	changed := make(chan domain.Settings, 4)
	w := NewWatcher(NewLoader(path), st, logger.Nop(), func(s domain.Settings) { changed <- s })
	w.debounce = 10 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Rewrite until the watcher has registered and picked up a change.
	var got domain.Settings
	require.Eventually(t, func() bool {
		writeFile(t, path, "repo_owner: octocat\nrepo_name: links\nbatch_size: 25\n")
		select {
		case got = <-changed:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, time.Millisecond)
	assert.Equal(t, 25, got.BatchSize)

	stored, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, stored.BatchSize)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherKeepsSettingsOnInvalidFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeFile(t, path, "repo_owner: [\n")
	st := memory.NewStore()

	before := domain.DefaultSettings()
	before.RepoOwner = "kept"
	require.NoError(t, st.SaveSettings(ctx, before))

	w := NewWatcher(NewLoader(path), st, logger.Nop(), func(domain.Settings) {
		t.Error("onChange must not run for an invalid file")
	})
	w.reload(ctx)

	got, err := st.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.RepoOwner)
}
