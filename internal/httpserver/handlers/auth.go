package handlers

import (
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/ghclip/internal/auth"
	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/github"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

var (
	errDeviceDisabled = &domain.ConfigError{Reason: "oauth device flow is not configured"}
	errAppDisabled    = &domain.ConfigError{Reason: "github app is not configured"}
)

type tokenRequest struct {
	Token string `json:"token"`
}

type userResponse struct {
	Method domain.AuthMethod `json:"authMethod"`
	User   *domain.User      `json:"user"`
}

// SaveToken validates a personal access token and stores it.
func SaveToken(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
		user, err := d.Manual.SaveManualToken(r.Context(), req.Token)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{Method: domain.AuthManual, User: user})
	}
}

// Logout clears every stored credential.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Manual.Logout(r.Context()); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// StartDevice requests a device code and keeps polling for approval in the
// background. The caller shows the user code and watches /api/status.
func StartDevice(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Device == nil {
			writeError(w, d, errDeviceDisabled)
			return
		}

		code, err := d.Device.Start(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}

		go func() {
			if _, err := d.Device.Poll(d.Background, code); err != nil {
				if errors.Is(err, d.Background.Err()) {
					return
				}
				d.Logger.Warn("device authorization failed", logger.Error(err))
			}
		}()

		writeJSON(w, http.StatusAccepted, code)
	}
}

type appStartResponse struct {
	State        string `json:"state"`
	AuthorizeURL string `json:"authorizeUrl"`
	InstallURL   string `json:"installUrl"`
}

// StartApp issues a state nonce and returns the authorization and
// installation pages. ?repo=owner/name preselects the repository to install on.
func StartApp(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.AppFlow == nil {
			writeError(w, d, errAppDisabled)
			return
		}
		state, err := d.AppFlow.IssueState(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, appStartResponse{
			State:        state,
			AuthorizeURL: d.AppFlow.AuthorizeURL(state),
			InstallURL:   d.AppFlow.InstallURL(r.URL.Query().Get("repo")),
		})
	}
}

type appCallbackResponse struct {
	*auth.Result
	InstallURL string `json:"installUrl,omitempty"`
}

// AppCallback completes the authorization redirect. Without an installation
// the user is sent to the install page and polling starts in the background.
func AppCallback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.AppFlow == nil {
			writeError(w, d, errAppDisabled)
			return
		}

		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			writeError(w, d, &domain.AuthError{Reason: "authorization denied: " + e})
			return
		}

		res, err := d.AppFlow.CompleteAuthorization(r.Context(), q.Get("code"), q.Get("state"))
		if err != nil {
			writeError(w, d, err)
			return
		}

		resp := appCallbackResponse{Result: res}
		if res.AwaitingInstallation {
			resp.InstallURL = d.AppFlow.InstallURL("")
			if d.Installer != nil {
				d.Installer.Watch()
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type repositoriesResponse struct {
	Count        int                 `json:"count"`
	Repositories []github.Repository `json:"repositories"`
}

// AppRepositories lists the repositories the installation can write to.
func AppRepositories(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.AppFlow == nil {
			writeError(w, d, errAppDisabled)
			return
		}
		cred, err := d.Tokens.ValidCredential(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		repos, err := d.AppFlow.Repositories(r.Context(), cred)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if repos == nil {
			repos = []github.Repository{}
		}
		writeJSON(w, http.StatusOK, repositoriesResponse{Count: len(repos), Repositories: repos})
	}
}

// CreateAppRepository creates a repository and adds it to the installation.
func CreateAppRepository(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.AppFlow == nil {
			writeError(w, d, errAppDisabled)
			return
		}
		var req github.CreateRepositoryRequest
		if err := decodeJSON(r, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
		repo, err := d.AppFlow.CreateRepository(r.Context(), req)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, repo)
	}
}
