package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r.Route("/links", func(r chi.Router) {
		r.Get("/", handlers.ListLinks(d))
		r.Post("/", handlers.AddLink(d))
		r.Get("/pending", handlers.PendingLinks(d))
		r.Delete("/{id}", handlers.DeleteLink(d))
	})
}
