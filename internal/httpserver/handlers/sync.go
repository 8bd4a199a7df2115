package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
)

// SyncNow runs a sync and answers with its result.
func SyncNow(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := d.Syncer.SyncNow(r.Context())
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type triggerResponse struct {
	Queued bool `json:"queued"`
}

// TriggerSync asks the scheduler for a background run. A run already queued
// is reported with 429.
func TriggerSync(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Scheduler == nil || !d.Scheduler.Trigger() {
			writeJSON(w, http.StatusTooManyRequests, triggerResponse{})
			return
		}
		writeJSON(w, http.StatusAccepted, triggerResponse{Queued: true})
	}
}
