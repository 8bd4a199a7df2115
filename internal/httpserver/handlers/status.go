package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ghclip/internal/domain"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/scheduler"
)

type statusResponse struct {
	AuthMethod           domain.AuthMethod         `json:"authMethod"`
	Connected            bool                      `json:"connected"`
	Login                string                    `json:"login,omitempty"`
	AwaitingInstallation bool                      `json:"awaitingInstallation"`
	InstallationPolling  bool                      `json:"installationPolling"`
	Reconnect            *domain.ReconnectSignal   `json:"reconnect,omitempty"`
	LastSync             *domain.SyncStatus        `json:"lastSync,omitempty"`
	Pending              int                       `json:"pending"`
	Total                int                       `json:"total"`
	RepoConfigured       bool                      `json:"repoConfigured"`
	Scheduler            *scheduler.SchedulerState `json:"scheduler,omitempty"`
}

// Status summarizes auth, queue and sync state for the UI.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		creds, err := d.Store.Credentials(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}
		awaiting, err := d.Store.AwaitingInstallation(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}
		reconnect, err := d.Store.Reconnect(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}
		last, err := d.Store.LastSync(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}
		pending, err := d.Store.PendingLinks(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}
		all, err := d.Store.AllLinks(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}
		s, err := d.Store.Settings(ctx)
		if err != nil {
			writeError(w, d, err)
			return
		}

		resp := statusResponse{
			AuthMethod:           creds.Method,
			Connected:            creds.Configured(),
			Login:                creds.Login(),
			AwaitingInstallation: awaiting,
			InstallationPolling:  d.Installer != nil && d.Installer.Running(),
			Reconnect:            reconnect,
			LastSync:             last,
			Pending:              len(pending),
			Total:                len(all),
			RepoConfigured:       s.Complete(),
		}
		if d.Scheduler != nil {
			st := d.Scheduler.State()
			resp.Scheduler = &st
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
