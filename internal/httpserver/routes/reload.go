package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/streamgate/streamgate/internal/httpserver/deps"
	"github.com/streamgate/streamgate/internal/httpserver/handlers"
	"github.com/streamgate/streamgate/internal/httpserver/mw"
)

func init() { Register(registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	rateLimited(r, d).With(mw.Access(d.Access, d.Logger)).Post("/api/reload", handlers.Reload(d))
}
