package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ghclip/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ghclip/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	r.Route("/auth", func(r chi.Router) {
		r.Delete("/", handlers.Logout(d))
		r.Post("/token", handlers.SaveToken(d))
		r.Post("/device", handlers.StartDevice(d))

		r.Get("/app/start", handlers.StartApp(d))
		r.Get("/app/callback", handlers.AppCallback(d))
		r.Get("/app/repositories", handlers.AppRepositories(d))
		r.Post("/app/repositories", handlers.CreateAppRepository(d))
	})
}
