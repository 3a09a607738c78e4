package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/streamgate/streamgate/internal/httpserver/deps"
	"github.com/streamgate/streamgate/internal/httpserver/handlers"
)

func init() { Register(registerRelay) }

// The relay route is deliberately not behind the access gate: tokens and the
// trusted-host carve-out are its authorization. Media players cannot attach
// API keys to <video> src requests.
func registerRelay(r chi.Router, d deps.Deps) {
	rateLimited(r, d).Get("/api/relay", handlers.Relay(d))
}
