package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

func GetSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Store.Settings(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// PutSettings replaces the settings and reschedules auto-sync.
func PutSettings(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Omitted fields keep their defaults, autoSync included.
		s := domain.DefaultSettings()
		if err := decodeJSON(r, &s); err != nil {
			badRequest(w, err.Error())
			return
		}

		s = s.WithDefaults()
		if err := s.Validate(); err != nil {
			writeError(w, d, &domain.ConfigError{Reason: err.Error()})
			return
		}
		if err := d.Store.SaveSettings(r.Context(), s); err != nil {
			writeError(w, d, err)
			return
		}
		if d.Scheduler != nil {
			d.Scheduler.Reschedule(s)
		}

		d.Logger.Info("settings updated",
			logger.String("repo", s.RepoOwner+"/"+s.RepoName),
			logger.String("strategy", string(s.PartitionStrategy)),
			logger.Bool("auto_sync", s.AutoSync))
		writeJSON(w, http.StatusOK, s)
	}
}

type testConnectionResponse struct {
	OK            bool   `json:"ok"`
	FullName      string `json:"fullName"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"defaultBranch"`
}

// TestConnection checks that the configured repository is reachable with
// the current credentials.
func TestConnection(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		s, err := d.Store.Settings(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if !s.Complete() {
			writeError(w, d, &domain.ConfigError{Reason: "repository owner and name are required"})
			return
		}

		cred, err := d.Tokens.ValidCredential(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}

		repo, err := d.GitHub.GetRepository(ctx, cred.HeaderValue, s.RepoOwner, s.RepoName)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, testConnectionResponse{
			OK:            true,
			FullName:      repo.FullName,
			Private:       repo.Private,
			DefaultBranch: repo.DefaultBranch,
		})
	}
}
