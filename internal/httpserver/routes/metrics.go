package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/streamgate/streamgate/internal/httpserver/deps"
	"github.com/streamgate/streamgate/internal/metrics"
)

func init() { Register(registerMetrics) }

func registerMetrics(r chi.Router, _ deps.Deps) {
	r.Method("GET", "/metrics", metrics.Handler())
}
