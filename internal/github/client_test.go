package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

const testAuth = "token ghp_test"

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), logger.Nop())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// wrap60 mimics GitHub, which wraps returned base64 at 60 columns.
func wrap60(s string) string {
	var b strings.Builder
	for len(s) > 60 {
		b.WriteString(s[:60])
		b.WriteString("\n")
		s = s[60:]
	}
	b.WriteString(s)
	return b.String()
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payloads := []string{
		`{"title":"café ☕ naïve"}`,
		`{"notes":"日本語のメモ","tags":["émoji 🚀","ß"]}`,
		`{}`,
	}

	for _, p := range payloads {
		got, err := DecodeContent(wrap60(EncodeContent([]byte(p))))
		require.NoError(t, err)
		assert.Equal(t, p, string(got))
	}
}

func TestShardRoundTripThroughEncoding(t *testing.T) {
	shard := domain.Shard{
		Updated:    "2024-05-01T00:00:00.000Z",
		TotalLinks: 1,
		Links: []domain.Bookmark{{
			ID: "1", URL: "https://例え.jp", Title: "Ünïcödé ✓", Tags: []string{"中文", "emoji 🎉"}, Notes: "naïve café",
		}},
	}

	raw, err := shard.MarshalPretty()
	require.NoError(t, err)
	decoded, err := DecodeContent(EncodeContent(raw))
	require.NoError(t, err)

	var back domain.Shard
	require.NoError(t, json.Unmarshal(decoded, &back))
	assert.Equal(t, shard, back)
}

func TestReadShardAbsent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octo/links/contents/links/2024-05.json", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})

	shard, sha, err := c.ReadShard(context.Background(), testAuth, "octo", "links", "links/2024-05.json", "main")
	require.NoError(t, err)
	assert.Nil(t, shard)
	assert.Empty(t, sha)
}

func TestReadShard(t *testing.T) {
	content := `{"updated":"2024-05-01T00:00:00.000Z","totalLinks":1,"links":[{"id":"a","url":"https://a","title":"Grüße","tags":[],"notes":"","category":"general","timestamp":"2024-05-01T00:00:00.000Z","favicon":""}]}`

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testAuth, r.Header.Get("Authorization"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		writeJSON(w, http.StatusOK, map[string]string{
			"type":     "file",
			"encoding": "base64",
			"sha":      "abc123",
			"content":  wrap60(EncodeContent([]byte(content))),
		})
	})

	shard, sha, err := c.ReadShard(context.Background(), testAuth, "octo", "links", "links/links.json", "main")
	require.NoError(t, err)
	require.NotNil(t, shard)
	assert.Equal(t, "abc123", sha)
	assert.Equal(t, 1, shard.TotalLinks)
	assert.Equal(t, "Grüße", shard.Links[0].Title)
}

func TestReadShardRejectsInvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"type": "file", "sha": "x", "content": EncodeContent([]byte("not json"))})
	})

	_, _, err := c.ReadShard(context.Background(), testAuth, "octo", "links", "links/links.json", "main")
	assert.Error(t, err)
}

func TestWriteShard(t *testing.T) {
	tests := []struct {
		name    string
		sha     string
		wantSHA bool
	}{
		{name: "create omits sha", sha: "", wantSHA: false},
		{name: "update sends sha", sha: "old-sha", wantSHA: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/repos/octo/links/contents/links/dev/links.json", r.URL.Path)

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)

				var raw map[string]any
				require.NoError(t, json.Unmarshal(body, &raw))
				_, hasSHA := raw["sha"]
				assert.Equal(t, tt.wantSHA, hasSHA)
				if tt.wantSHA {
					assert.Equal(t, tt.sha, raw["sha"])
				}
				assert.Equal(t, "Add 1 link(s) via GHClip", raw["message"])
				assert.Equal(t, "main", raw["branch"])

				decoded, err := DecodeContent(raw["content"].(string))
				require.NoError(t, err)
				assert.Contains(t, string(decoded), "\n  \"totalLinks\": 1")

				writeJSON(w, http.StatusCreated, map[string]any{"content": map[string]string{"sha": "new-sha"}})
			})

			shard := domain.Shard{Updated: "2024-05-01T00:00:00.000Z", TotalLinks: 1, Links: []domain.Bookmark{{ID: "1", URL: "https://a"}}}
			sha, err := c.WriteShard(context.Background(), testAuth, "octo", "links", "links/dev/links.json", "main", shard, tt.sha, "Add 1 link(s) via GHClip")
			require.NoError(t, err)
			assert.Equal(t, "new-sha", sha)
		})
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		header  map[string]string
		check   func(t *testing.T, err error)
	}{
		{
			name: "409 conflict", status: http.StatusConflict, message: "links/links.json does not match abc",
			check: func(t *testing.T, err error) {
				var ce *domain.ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, "links/links.json", ce.Path)
			},
		},
		{
			name: "422 sha mismatch", status: http.StatusUnprocessableEntity, message: `Invalid request. "sha" wasn't supplied.`,
			check: func(t *testing.T, err error) { assert.True(t, domain.IsConflict(err)) },
		},
		{
			name: "422 other", status: http.StatusUnprocessableEntity, message: "Invalid request.",
			check: func(t *testing.T, err error) {
				var apiErr *domain.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, 422, apiErr.Status)
				assert.False(t, domain.IsConflict(err))
			},
		},
		{
			name: "401 auth", status: http.StatusUnauthorized, message: "Bad credentials",
			check: func(t *testing.T, err error) {
				assert.True(t, domain.IsAuth(err))
				assert.False(t, domain.IsRevoked(err))
			},
		},
		{
			name: "403 forbidden", status: http.StatusForbidden, message: "Resource not accessible by integration",
			check: func(t *testing.T, err error) { assert.True(t, domain.IsAuth(err)) },
		},
		{
			name: "403 rate limit", status: http.StatusForbidden, message: "API rate limit exceeded",
			header: map[string]string{"X-RateLimit-Remaining": "0"},
			check: func(t *testing.T, err error) {
				assert.False(t, domain.IsAuth(err))
				var apiErr *domain.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, "API rate limit exceeded", apiErr.Message)
			},
		},
		{
			name: "403 secondary rate limit", status: http.StatusForbidden,
			message: "You have exceeded a secondary rate limit. Please wait a few minutes before you try again.",
			header:  map[string]string{"Retry-After": "60", "X-RateLimit-Remaining": "4990"},
			check: func(t *testing.T, err error) {
				assert.False(t, domain.IsAuth(err))
				var apiErr *domain.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, http.StatusForbidden, apiErr.Status)
			},
		},
		{
			name: "403 retry-after only", status: http.StatusForbidden, message: "Forbidden",
			header: map[string]string{"Retry-After": "30"},
			check:  func(t *testing.T, err error) { assert.False(t, domain.IsAuth(err)) },
		},
		{
			name: "500", status: http.StatusInternalServerError, message: "boom",
			check: func(t *testing.T, err error) {
				var apiErr *domain.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, 500, apiErr.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				writeJSON(w, tt.status, map[string]string{"message": tt.message})
			})

			_, err := c.WriteShard(context.Background(), testAuth, "octo", "links", "links/links.json", "main", domain.Shard{}, "abc", "msg")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c := NewClient(srv.URL, srv.Client(), logger.Nop())
	srv.Close()

	_, _, err := c.ReadShard(context.Background(), testAuth, "octo", "links", "links/links.json", "main")
	var netErr *domain.NetworkError
	assert.True(t, errors.As(err, &netErr), "got %v", err)
}

func TestCreateInstallationToken(t *testing.T) {
	expires := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user/installations/42/access_tokens", r.URL.Path)
		assert.Equal(t, "Bearer ghu_user", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusCreated, map[string]any{
			"token":       "ghs_new",
			"expires_at":  expires.Format(time.RFC3339),
			"permissions": map[string]string{"contents": "write"},
		})
	})

	tok, err := c.CreateInstallationToken(context.Background(), "Bearer ghu_user", 42)
	require.NoError(t, err)
	assert.Equal(t, "ghs_new", tok.Token)
	assert.True(t, expires.Equal(tok.ExpiresAt))
	assert.Equal(t, "write", tok.Permissions["contents"])
}

func TestCreateInstallationTokenRevoked(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
	})

	_, err := c.CreateInstallationToken(context.Background(), "Bearer ghu_user", 42)
	assert.True(t, domain.IsAuth(err))
}

func TestInstallationsAndRepositories(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/installations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"total_count": 1,
			"installations": []map[string]any{
				{"id": 7, "app_id": 99, "app_slug": "ghclip", "account": map[string]any{"login": "octo"}},
			},
		})
	})
	mux.HandleFunc("GET /installation/repositories", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		writeJSON(w, http.StatusOK, map[string]any{
			"total_count":  1,
			"repositories": []map[string]any{{"id": 5, "name": "links", "full_name": "octo/links"}},
		})
	})
	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["auto_init"])
		assert.Equal(t, true, req["private"])
		writeJSON(w, http.StatusCreated, map[string]any{"id": 6, "name": req["name"], "full_name": "octo/" + req["name"].(string)})
	})
	mux.HandleFunc("PUT /user/installations/7/repositories/6", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /repos/octo/links", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 5, "name": "links", "default_branch": "main"})
	})
	mux.HandleFunc("GET /user/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		writeJSON(w, http.StatusOK, []map[string]any{{"id": 5, "name": "links"}})
	})
	c := newTestClient(t, mux.ServeHTTP)
	ctx := context.Background()

	installs, err := c.ListUserInstallations(ctx, "Bearer u")
	require.NoError(t, err)
	require.Len(t, installs, 1)
	assert.Equal(t, &domain.Installation{ID: 7, AppID: 99, AppSlug: "ghclip", Account: "octo"}, installs[0].Domain())

	repos, err := c.ListInstallationRepositories(ctx, "token ghs")
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "octo/links", repos[0].FullName)

	repo, err := c.CreateRepository(ctx, "Bearer u", CreateRepositoryRequest{Name: "bookmarks", Private: true})
	require.NoError(t, err)
	assert.Equal(t, int64(6), repo.ID)

	require.NoError(t, c.AddRepositoryToInstallation(ctx, "Bearer u", 7, 6))

	got, err := c.GetRepository(ctx, "token x", "octo", "links")
	require.NoError(t, err)
	assert.Equal(t, "main", got.DefaultBranch)

	list, err := c.ListUserRepositories(ctx, "token x")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rate_limit", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"resources": map[string]any{}})
	})
	require.NoError(t, c.Ping(context.Background()))

	down := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "unavailable"})
	})
	var apiErr *domain.APIError
	assert.True(t, errors.As(down.Ping(context.Background()), &apiErr))
}
