package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/streamgate/streamgate/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready     bool `json:"ready"`
	Platforms int  `json:"platforms"`
	Records   int  `json:"records"`
}

// Readyz reports readiness: the service is ready once the platform registry
// holds at least one platform.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platforms := d.Registry.Count()

		resp := readyzResponse{
			Ready:     platforms > 0,
			Platforms: platforms,
			Records:   d.Store.Len(),
		}

		w.Header().Set("Content-Type", "application/json")
		if !resp.Ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
