package handlers

import (
	"net/http"

	"github.com/streamgate/streamgate/internal/httperr"
	"github.com/streamgate/streamgate/internal/httpserver/deps"
)

type resolveResponse struct {
	URL      string `json:"url"`
	Resolved string `json:"resolved"`
}

// maxResolveBatch caps how many urls one request may carry.
const maxResolveBatch = 20

// Resolve handles GET /api/resolve. Given a token (h=) it returns the stored
// upstream URL; given a raw URL (url=) it expands shorteners and strips
// tracking parameters. No media bytes move here.
func Resolve(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if token := q.Get("h"); token != "" {
			if !validToken(token) {
				httperr.Write(w, httperr.InvalidHash())
				return
			}
			target, ok := d.Store.Resolve(token)
			if !ok {
				httperr.Write(w, httperr.InvalidHash())
				return
			}
			writeJSON(w, http.StatusOK, resolveResponse{URL: target, Resolved: target})
			return
		}

		raws := q["url"]
		if len(raws) == 0 {
			httperr.Write(w, httperr.MissingParameter("url"))
			return
		}
		if len(raws) > 1 {
			resolveBatch(d, w, r, raws)
			return
		}
		raw := raws[0]
		if raw == "" {
			httperr.Write(w, httperr.MissingParameter("url"))
			return
		}

		u, err := d.Validator.ScreenURL(raw)
		if err != nil {
			httperr.Write(w, invalidURLError(err))
			return
		}

		resolved := d.Resolver.CleanTracking(raw)
		if d.Registry.IsShortURLHost(u.Hostname()) {
			resolved = d.Resolver.Resolve(r.Context(), raw)
			if _, err := d.Validator.ScreenURL(resolved); err != nil {
				// The shortener expanded to something unsafe; refuse rather
				// than hand the client a URL this service would never fetch.
				httperr.Write(w, invalidURLError(err))
				return
			}
		}

		writeJSON(w, http.StatusOK, resolveResponse{URL: raw, Resolved: resolved})
	}
}

// resolveBatch expands several urls in one request with bounded parallelism.
// Every input is screened up front; an expansion that screens unsafe falls
// back to the cleaned original rather than failing the batch.
func resolveBatch(d deps.Deps, w http.ResponseWriter, r *http.Request, raws []string) {
	if len(raws) > maxResolveBatch {
		httperr.Write(w, httperr.InvalidURL("too many urls"))
		return
	}
	for _, raw := range raws {
		if _, err := d.Validator.ScreenURL(raw); err != nil {
			httperr.Write(w, invalidURLError(err))
			return
		}
	}

	resolved := d.Resolver.ResolveAll(r.Context(), raws)

	out := make([]resolveResponse, len(raws))
	for i, raw := range raws {
		final := resolved[i]
		if final == raw {
			final = d.Resolver.CleanTracking(raw)
		} else if _, err := d.Validator.ScreenURL(final); err != nil {
			final = d.Resolver.CleanTracking(raw)
		}
		out[i] = resolveResponse{URL: raw, Resolved: final}
	}
	writeJSON(w, http.StatusOK, out)
}
