package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

// fakeGitHub serves the handful of endpoints the auth flows call.
type fakeGitHub struct {
	mu sync.Mutex

	login         string
	userStatus    int
	installations []github.Installation
	// installAfter hides installations until /user/installations was hit this many times.
	installAfter  int
	installCalls  int
	installStatus int

	tokenStatus int
	tokenCalls  int
	expiresAt   time.Time

	lastAuth string
	created  []string
	added    []string
}

func newFakeGitHub(t *testing.T) (*fakeGitHub, *github.Client) {
	t.Helper()
	f := &fakeGitHub{login: "octocat", expiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /user", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastAuth = r.Header.Get("Authorization")
		if f.userStatus != 0 {
			writeJSON(w, f.userStatus, map[string]string{"message": "Bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 1, "login": f.login})
	})
	mux.HandleFunc("GET /user/installations", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.installCalls++
		if f.installStatus != 0 {
			writeJSON(w, f.installStatus, map[string]string{"message": "Bad credentials"})
			return
		}
		list := []github.Installation{}
		if f.installCalls > f.installAfter {
			list = f.installations
		}
		writeJSON(w, http.StatusOK, map[string]any{"total_count": len(list), "installations": list})
	})
	mux.HandleFunc("POST /user/installations/{id}/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.tokenCalls++
		f.lastAuth = r.Header.Get("Authorization")
		if f.tokenStatus != 0 {
			writeJSON(w, f.tokenStatus, map[string]string{"message": "Bad credentials"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"token":      fmt.Sprintf("ghs_%d", f.tokenCalls),
			"expires_at": f.expiresAt,
		})
	})
	mux.HandleFunc("GET /installation/repositories", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"total_count":  1,
			"repositories": []github.Repository{{ID: 7, Name: "links", FullName: "octocat/links"}},
		})
	})
	mux.HandleFunc("POST /user/repos", func(w http.ResponseWriter, r *http.Request) {
		var req github.CreateRepositoryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.created = append(f.created, req.Name)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, github.Repository{ID: 42, Name: req.Name, FullName: "octocat/" + req.Name})
	})
	mux.HandleFunc("PUT /user/installations/{id}/repositories/{repo}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.added = append(f.added, r.PathValue("id")+"/"+r.PathValue("repo"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, github.NewClient(srv.URL, srv.Client(), logger.Nop())
}

func (f *fakeGitHub) calls() (install, token int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.installCalls, f.tokenCalls
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fakeExchanger struct {
	token   string
	err     error
	gotCode string
}

func (e *fakeExchanger) Exchange(_ context.Context, code, _ string) (*ExchangeResult, error) {
	e.gotCode = code
	if e.err != nil {
		return nil, e.err
	}
	return &ExchangeResult{AccessToken: e.token, TokenType: "bearer"}, nil
}
