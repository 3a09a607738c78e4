package handlers

import (
	"net/http"

	"github.com/streamgate/streamgate/internal/httperr"
	"github.com/streamgate/streamgate/internal/httpserver/deps"
	"github.com/streamgate/streamgate/internal/logger"
)

type reloadResponse struct {
	Triggered bool `json:"triggered"`
}

// Reload triggers an immediate platform registry reload ahead of the
// scheduled one. The trigger channel holds a single pending reload; a second
// request while one is pending reports the conflict instead of queueing.
func Reload(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.ReloadTrigger <- struct{}{}:
			d.Logger.Info("manual platform reload triggered",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, reloadResponse{Triggered: true})
		default:
			d.Logger.Warn("platform reload already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			httperr.Write(w, httperr.New(httperr.CodeRateLimited,
				http.StatusTooManyRequests, "reload already in progress"))
		}
	}
}
