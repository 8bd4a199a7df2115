package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerSettings) }

func registerSettings(r chi.Router, d deps.Deps) {
	r.Get("/settings", handlers.GetSettings(d))
	r.Put("/settings", handlers.PutSettings(d))
	r.Post("/settings/test", handlers.TestConnection(d))
}
