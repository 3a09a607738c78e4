package mw

import (
	"net/http"

	"github.com/streamgate/streamgate/internal/access"
	"github.com/streamgate/streamgate/internal/httperr"
	"github.com/streamgate/streamgate/internal/logger"
)

// Access gates a route on the access controller's classification of the
// request credentials. An invalid key is rejected even when the origin would
// have passed on its own.
func Access(ctrl *access.Controller, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				key = r.URL.Query().Get("key")
			}
			d := ctrl.Classify(key, r.Header.Get("Origin"), r.Header.Get("Referer"))
			if !d.Allowed {
				log.Warn("request rejected by access control",
					logger.String("path", r.URL.Path),
					logger.String("reason", d.Reason),
					logger.String("remote_ip", r.RemoteAddr))

				switch d.Reason {
				case access.ReasonInvalidKey:
					httperr.Write(w, httperr.Unauthorized("invalid API key"))
				default:
					httperr.Write(w, httperr.Forbidden("origin not allowed"))
				}
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
