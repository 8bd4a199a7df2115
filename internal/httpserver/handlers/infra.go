package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of each moving part. Mode is "operational" when
// everything is fine, "degraded" when GitHub or credentials are missing and
// "critical" when the store is down.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		components := map[string]componentStatus{
			"store":     checkStore(ctx, d),
			"auth":      checkAuth(ctx, d),
			"scheduler": checkScheduler(d),
			"github":    checkGitHub(ctx, d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if !components["store"].OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "operational"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{Mode: d.StoreKind, Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: d.StoreKind}
}

func checkAuth(ctx context.Context, d deps.Deps) componentStatus {
	creds, err := d.Store.Credentials(ctx)
	if err != nil {
		return componentStatus{Error: err.Error()}
	}
	st := componentStatus{OK: creds.Configured(), Mode: string(creds.Method)}
	if st.Mode == "" {
		st.Mode = "none"
	}
	if !st.OK {
		st.Detail = "not connected"
	}
	return st
}

func checkScheduler(d deps.Deps) componentStatus {
	if d.Scheduler == nil {
		return componentStatus{Detail: "not running"}
	}
	state := d.Scheduler.State()
	mode := "manual"
	if state.Enabled {
		mode = "auto"
	}
	return componentStatus{OK: true, Mode: mode}
}

func checkGitHub(ctx context.Context, d deps.Deps) componentStatus {
	if d.GitHub == nil {
		return componentStatus{Detail: "not configured"}
	}
	if err := d.GitHub.Ping(ctx); err != nil {
		return componentStatus{Detail: d.GitHub.BaseURL(), Error: err.Error()}
	}
	return componentStatus{OK: true, Detail: d.GitHub.BaseURL()}
}
