package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ghclip/internal/auth"
	"github.com/MrSnakeDoc/ghclip/internal/clock"
	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
	"github.com/MrSnakeDoc/ghclip/internal/store/memory"
	"github.com/MrSnakeDoc/ghclip/internal/store/storetest"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type write struct {
	path    string
	sha     string
	message string
	total   int
}

// fakeRemote keeps shards in memory and can inject conflicts or errors.
type fakeRemote struct {
	mu        sync.Mutex
	files     map[string]domain.Shard
	shas      map[string]string
	writes    []write
	conflicts map[string]int
	writeErr  error
	// block, when set, holds every read until it is closed. entered is
	// signalled when a read starts waiting.
	block   chan struct{}
	entered chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:     make(map[string]domain.Shard),
		shas:      make(map[string]string),
		conflicts: make(map[string]int),
	}
}

func (r *fakeRemote) ReadShard(_ context.Context, _, _, _, path, _ string) (*domain.Shard, string, error) {
	if r.block != nil {
		select {
		case r.entered <- struct{}{}:
		default:
		}
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.files[path]
	if !ok {
		return nil, "", nil
	}
	return &s, r.shas[path], nil
}

func (r *fakeRemote) WriteShard(_ context.Context, _, _, _, path, _ string, shard domain.Shard, sha, message string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return "", r.writeErr
	}
	if r.conflicts[path] > 0 {
		r.conflicts[path]--
		return "", &domain.ConflictError{Path: path, Message: "sha does not match"}
	}
	if sha != r.shas[path] {
		return "", &domain.ConflictError{Path: path, Message: "sha does not match"}
	}
	r.writes = append(r.writes, write{path: path, sha: sha, message: message, total: shard.TotalLinks})
	r.files[path] = shard
	r.shas[path] = fmt.Sprintf("sha-%d", len(r.writes))
	return r.shas[path], nil
}

type fakeTokens struct {
	cred auth.Credential
	err  error
}

func (f fakeTokens) ValidCredential(context.Context) (auth.Credential, error) {
	return f.cred, f.err
}

var goodTokens = fakeTokens{cred: auth.Credential{HeaderValue: "token ghp_x"}}

func newStore(t *testing.T, settings domain.Settings, links int) *memory.Store {
	t.Helper()
	ctx := context.Background()
	st := memory.NewStore()
	require.NoError(t, st.SaveCredentials(ctx, domain.NewManualCredentials("ghp_x")))
	require.NoError(t, st.SaveSettings(ctx, settings))
	for i := 0; i < links; i++ {
		require.NoError(t, st.AppendLink(ctx, storetest.Link(i)))
	}
	return st
}

func repoSettings(strategy domain.PartitionStrategy) domain.Settings {
	s := domain.DefaultSettings()
	s.RepoOwner = "octocat"
	s.RepoName = "links"
	s.PartitionStrategy = strategy
	return s
}

func newOrchestrator(st Store, tokens Tokens, remote Remote) *Orchestrator {
	return New(st, tokens, remote, logger.Nop(), Options{Clock: clock.NewFakeClock(testNow)})
}

func TestSyncBatchLeavesRemainder(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, repoSettings(domain.StrategySingle), 12)
	remote := newFakeRemote()

	res, err := newOrchestrator(st, goodTokens, remote).SyncNow(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 10, res.SyncedCount)
	assert.Equal(t, 10, res.AddedCount)
	assert.Equal(t, []string{"links/links.json"}, res.Paths)

	pending, err := st.PendingLinks(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "id-10", pending[0].ID)
	assert.Equal(t, "id-11", pending[1].ID)

	all, err := st.AllLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 12)

	require.Len(t, remote.writes, 1)
	assert.Equal(t, "", remote.writes[0].sha)
	assert.Equal(t, "Add 10 link(s) via GHClip", remote.writes[0].message)
	assert.Equal(t, 10, remote.files["links/links.json"].TotalLinks)
	assert.Equal(t, "2026-03-14T12:00:00.000Z", remote.files["links/links.json"].Updated)

	last, err := st.LastSync(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, last.Success)
	assert.Equal(t, 10, last.Count)
	assert.Equal(t, testNow, last.At)
}

func TestSyncEmptyQueue(t *testing.T) {
	st := newStore(t, repoSettings(domain.StrategyMonthly), 0)
	remote := newFakeRemote()

	res, err := newOrchestrator(st, goodTokens, remote).SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Result{Success: true}, res)
	assert.Empty(t, remote.writes)
}

func TestSyncDeduplicatesAgainstRemote(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, repoSettings(domain.StrategySingle), 3)
	remote := newFakeRemote()
	remote.files["links/links.json"] = domain.Shard{TotalLinks: 2, Links: []domain.Bookmark{storetest.Link(0), storetest.Link(1)}}
	remote.shas["links/links.json"] = "sha-existing"

	res, err := newOrchestrator(st, goodTokens, remote).SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.SyncedCount)
	assert.Equal(t, 1, res.AddedCount)

	require.Len(t, remote.writes, 1)
	assert.Equal(t, "sha-existing", remote.writes[0].sha)
	assert.Equal(t, "Add 1 link(s) via GHClip", remote.writes[0].message)
	assert.Equal(t, 3, remote.writes[0].total)

	pending, err := st.PendingLinks(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSyncSkipsShardsWithNothingNew(t *testing.T) {
	st := newStore(t, repoSettings(domain.StrategySingle), 1)
	remote := newFakeRemote()
	remote.files["links/links.json"] = domain.Shard{TotalLinks: 1, Links: []domain.Bookmark{storetest.Link(0)}}
	remote.shas["links/links.json"] = "sha-existing"

	res, err := newOrchestrator(st, goodTokens, remote).SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.SyncedCount)
	assert.Zero(t, res.AddedCount)
	assert.Empty(t, res.Paths)
	assert.Empty(t, remote.writes)
}

func TestSyncPartitionsByMonth(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, repoSettings(domain.StrategyMonthly), 0)
	for i, ts := range []string{"2024-05-01T10:00:00.000Z", "2024-06-02T10:00:00.000Z", "2024-05-30T23:59:59.000Z"} {
		l := storetest.Link(i)
		l.Timestamp = ts
		require.NoError(t, st.AppendLink(ctx, l))
	}
	remote := newFakeRemote()

	res, err := newOrchestrator(st, goodTokens, remote).SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"links/2024-05.json", "links/2024-06.json"}, res.Paths)
	assert.Equal(t, 2, remote.files["links/2024-05.json"].TotalLinks)
	assert.Equal(t, 1, remote.files["links/2024-06.json"].TotalLinks)
}

func TestSyncRetriesConflicts(t *testing.T) {
	st := newStore(t, repoSettings(domain.StrategySingle), 2)
	remote := newFakeRemote()
	remote.conflicts["links/links.json"] = DefaultConflictRetries

	res, err := newOrchestrator(st, goodTokens, remote).SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.AddedCount)
	assert.Len(t, remote.writes, 1)
}

func TestSyncGivesUpAfterConflictRetries(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, repoSettings(domain.StrategySingle), 2)
	remote := newFakeRemote()
	remote.conflicts["links/links.json"] = DefaultConflictRetries + 1

	_, err := newOrchestrator(st, goodTokens, remote).SyncNow(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))

	pending, err := st.PendingLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	last, err := st.LastSync(ctx)
	require.NoError(t, err)
	assert.False(t, last.Success)
	assert.NotEmpty(t, last.Error)
}

func TestSyncRequiresRepository(t *testing.T) {
	st := newStore(t, domain.DefaultSettings(), 1)

	_, err := newOrchestrator(st, goodTokens, newFakeRemote()).SyncNow(context.Background())
	assert.True(t, domain.IsConfig(err))
}

func TestSyncRevokedRefreshClearsCredentials(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, repoSettings(domain.StrategySingle), 1)
	tokens := fakeTokens{err: &domain.AuthError{Revoked: true, Reason: "installation token issuance rejected"}}

	o := newOrchestrator(st, tokens, newFakeRemote())
	_, err := o.SyncNow(ctx)
	assert.True(t, domain.IsRevoked(err))

	creds, err := st.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthNone, creds.Method)

	signal, err := st.Reconnect(ctx)
	require.NoError(t, err)
	require.NotNil(t, signal)
	assert.Equal(t, domain.ReconnectBadge, signal.Badge)
	assert.Equal(t, ReconnectReason, signal.Reason)

	// With credentials gone the resolver now reports a configuration problem.
	o.tokens = auth.NewResolver(st, nil)
	_, err = o.SyncNow(ctx)
	assert.True(t, domain.IsConfig(err))
	assert.False(t, domain.IsRevoked(err))

	pending, err := st.PendingLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestSyncRejectedWriteClearsCredentials(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, repoSettings(domain.StrategySingle), 1)
	remote := newFakeRemote()
	remote.writeErr = &domain.AuthError{Reason: "Bad credentials"}

	_, err := newOrchestrator(st, goodTokens, remote).SyncNow(ctx)
	assert.True(t, domain.IsRevoked(err))

	creds, err := st.Credentials(ctx)
	require.NoError(t, err)
	assert.False(t, creds.Configured())
}

func TestSyncFallsBackToStoredTokenOnTransientRefreshFailure(t *testing.T) {
	st := newStore(t, repoSettings(domain.StrategySingle), 1)
	tokens := fakeTokens{err: &domain.NetworkError{Op: "refresh", Err: fmt.Errorf("dial tcp: timeout")}}
	remote := newFakeRemote()

	res, err := newOrchestrator(st, tokens, remote).SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.SyncedCount)
}

func TestSyncNowIsSerialised(t *testing.T) {
	ctx := context.Background()
	st := newStore(t, repoSettings(domain.StrategySingle), 1)
	remote := newFakeRemote()
	remote.block = make(chan struct{})
	remote.entered = make(chan struct{}, 1)
	o := newOrchestrator(st, goodTokens, remote)

	done := make(chan error, 1)
	go func() {
		_, err := o.SyncNow(ctx)
		done <- err
	}()

	select {
	case <-remote.entered:
	case <-time.After(time.Second):
		t.Fatal("first sync never reached the remote")
	}

	_, err := o.SyncNow(ctx)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	close(remote.block)
	require.NoError(t, <-done)
}

// TestSyncAgainstGitHubAPI runs a sync through the real client to check the
// request bodies sent to the contents API.
func TestSyncAgainstGitHubAPI(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var puts []map[string]any

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octocat/links/contents/links/links.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	})
	mux.HandleFunc("PUT /repos/octocat/links/contents/links/links.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token ghp_x", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		puts = append(puts, body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"content":{"sha":"new-sha"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := newStore(t, repoSettings(domain.StrategySingle), 2)
	api := github.NewClient(srv.URL, srv.Client(), logger.Nop())

	res, err := newOrchestrator(st, auth.NewResolver(st, nil), api).SyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SyncedCount)

	require.Len(t, puts, 1)
	_, hasSHA := puts[0]["sha"]
	assert.False(t, hasSHA)
	assert.Equal(t, "main", puts[0]["branch"])
	assert.Equal(t, "Add 2 link(s) via GHClip", puts[0]["message"])

	raw, err := github.DecodeContent(puts[0]["content"].(string))
	require.NoError(t, err)
	var shard domain.Shard
	require.NoError(t, json.Unmarshal(raw, &shard))
	assert.Equal(t, 2, shard.TotalLinks)
	assert.Equal(t, "https://example.com/0", shard.Links[0].URL)
}

func TestSyncSecondaryRateLimitKeepsCredentials(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/octocat/links/contents/links/links.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.Header().Set("X-RateLimit-Remaining", "4990")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"You have exceeded a secondary rate limit. Please wait a few minutes before you try again."}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := newStore(t, repoSettings(domain.StrategySingle), 1)
	api := github.NewClient(srv.URL, srv.Client(), logger.Nop())

	_, err := newOrchestrator(st, auth.NewResolver(st, nil), api).SyncNow(ctx)
	require.Error(t, err)
	assert.False(t, domain.IsAuth(err))
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)

	creds, err := st.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.AuthManual, creds.Method)

	signal, err := st.Reconnect(ctx)
	require.NoError(t, err)
	assert.Nil(t, signal)

	pending, err := st.PendingLinks(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}
