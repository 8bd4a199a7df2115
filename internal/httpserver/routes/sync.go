package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerSync) }

func registerSync(r chi.Router, d deps.Deps) {
	r.Get("/status", handlers.Status(d))
	r.Post("/sync", handlers.SyncNow(d))
	r.Post("/sync/trigger", handlers.TriggerSync(d))
}
