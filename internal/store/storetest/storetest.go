// Package storetest holds behaviour checks shared by every store.Store implementation.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/store"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run exercises the store contract against the implementation built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("credentials", func(t *testing.T) { testCredentials(t, newStore(t)) })
	t.Run("credential switch drops other secrets", func(t *testing.T) { testCredentialSwitch(t, newStore(t)) })
	t.Run("links", func(t *testing.T) { testLinks(t, newStore(t)) })
	t.Run("delete link", func(t *testing.T) { testDeleteLink(t, newStore(t)) })
	t.Run("settings", func(t *testing.T) { testSettings(t, newStore(t)) })
	t.Run("state", func(t *testing.T) { testState(t, newStore(t)) })
}

// Link builds a deterministic bookmark for tests.
func Link(i int) domain.Bookmark {
	return domain.Bookmark{
		ID:        fmt.Sprintf("id-%02d", i),
		URL:       fmt.Sprintf("https://example.com/%d", i),
		Title:     fmt.Sprintf("Example %d", i),
		Tags:      []string{"t"},
		Category:  domain.DefaultCategory,
		Timestamp: "2024-05-01T10:00:00.000Z",
	}
}

func testCredentials(t *testing.T, s store.Store) {
	ctx := context.Background()

	got, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthNone, got.Method)

	expiry := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	creds := domain.NewGitHubAppCredentials(domain.GitHubAppCredentials{
		UserToken:               "ghu_1",
		User:                    &domain.User{ID: 1, Login: "octo"},
		Installation:            &domain.Installation{ID: 42, AppSlug: "ghclip"},
		InstallationToken:       "ghs_1",
		InstallationTokenExpiry: expiry,
	})

	require.NoError(t, s.SetAwaitingInstallation(ctx, true))
	require.NoError(t, s.RaiseReconnect(ctx, domain.ReconnectSignal{Badge: domain.ReconnectBadge, Reason: "revoked"}))
	require.NoError(t, s.SaveCredentials(ctx, creds))

	got, err = s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthGitHubApp, got.Method)
	require.NotNil(t, got.App)
	assert.Equal(t, "ghs_1", got.App.InstallationToken)
	assert.True(t, expiry.Equal(got.App.InstallationTokenExpiry))
	assert.Equal(t, int64(42), got.App.Installation.ID)

	awaiting, err := s.AwaitingInstallation(ctx)
	require.NoError(t, err)
	assert.False(t, awaiting, "usable credentials lower the awaiting flag")

	signal, err := s.Reconnect(ctx)
	require.NoError(t, err)
	assert.Nil(t, signal, "usable credentials lower the reconnect signal")

	require.NoError(t, s.SetAwaitingInstallation(ctx, true))
	require.NoError(t, s.ClearCredentials(ctx))

	got, err = s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Credentials{}, got)

	awaiting, err = s.AwaitingInstallation(ctx)
	require.NoError(t, err)
	assert.False(t, awaiting)
}

func testCredentialSwitch(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.SaveCredentials(ctx, domain.NewManualCredentials("ghp_manual")))
	require.NoError(t, s.SaveCredentials(ctx, domain.NewLegacyOAuthCredentials("gho_oauth", &domain.User{Login: "octo"})))

	got, err := s.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthLegacyOAuth, got.Method)
	assert.Nil(t, got.Manual)
	assert.Nil(t, got.App)
	assert.Equal(t, "gho_oauth", got.Legacy.AccessToken)

	// An app record still waiting for its installation keeps the flag up.
	require.NoError(t, s.SetAwaitingInstallation(ctx, true))
	require.NoError(t, s.SaveCredentials(ctx, domain.NewGitHubAppCredentials(domain.GitHubAppCredentials{UserToken: "ghu_1"})))

	awaiting, err := s.AwaitingInstallation(ctx)
	require.NoError(t, err)
	assert.True(t, awaiting)
}

func testLinks(t *testing.T, s store.Store) {
	ctx := context.Background()

	pending, err := s.PendingLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.AppendLink(ctx, Link(i)))
	}

	pending, err = s.PendingLinks(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 5)
	assert.Equal(t, Link(1), pending[0])
	assert.Equal(t, "id-05", pending[4].ID)

	require.NoError(t, s.RemovePending(ctx, []string{"id-01", "id-02", "id-03"}))

	pending, err = s.PendingLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-04", "id-05"}, ids(pending))

	all, err := s.AllLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-01", "id-02", "id-03", "id-04", "id-05"}, ids(all))

	// Unknown ids are ignored.
	require.NoError(t, s.RemovePending(ctx, []string{"missing"}))
	require.NoError(t, s.RemovePending(ctx, nil))
}

func testDeleteLink(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.AppendLink(ctx, Link(1)))
	require.NoError(t, s.AppendLink(ctx, Link(2)))

	require.NoError(t, s.DeleteLink(ctx, "id-01"))

	pending, err := s.PendingLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-02"}, ids(pending))

	all, err := s.AllLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"id-02"}, ids(all))

	assert.ErrorIs(t, s.DeleteLink(ctx, "id-01"), store.ErrNotFound)
}

func testSettings(t *testing.T, s store.Store) {
	ctx := context.Background()

	got, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)

	want := domain.Settings{
		RepoOwner:           "octo",
		RepoName:            "bookmarks",
		Branch:              "trunk",
		BatchSize:           25,
		SyncIntervalMinutes: 60,
		AutoSync:            false,
		PartitionStrategy:   domain.StrategyCategory,
	}
	require.NoError(t, s.SaveSettings(ctx, want))

	got, err = s.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func testState(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	ok, err := s.ConsumeAuthState(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SaveAuthState(ctx, "abc", time.Minute))
	ok, err = s.ConsumeAuthState(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ConsumeAuthState(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok, "state nonces are single use")

	last, err := s.LastSync(ctx)
	require.NoError(t, err)
	assert.Nil(t, last)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveLastSync(ctx, domain.SyncStatus{At: at, Success: true, Count: 3}))
	last, err = s.LastSync(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, 3, last.Count)
	assert.True(t, at.Equal(last.At))

	signal, err := s.Reconnect(ctx)
	require.NoError(t, err)
	assert.Nil(t, signal)

	require.NoError(t, s.RaiseReconnect(ctx, domain.ReconnectSignal{Badge: domain.ReconnectBadge, Reason: "revoked", At: at}))
	signal, err = s.Reconnect(ctx)
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, "!", signal.Badge)
}

func ids(links []domain.Bookmark) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.ID)
	}
	return out
}
