package handlers

import (
	"encoding/hex"
	"net/http"

	"github.com/streamgate/streamgate/internal/httperr"
	"github.com/streamgate/streamgate/internal/httpserver/deps"
	"github.com/streamgate/streamgate/internal/relay"
	"github.com/streamgate/streamgate/internal/security"
	"github.com/streamgate/streamgate/internal/urlstore"
)

// Relay handles GET /api/relay. The media URL is named either by a token
// minted during extraction (h=) or, for trusted hosts only, directly (url=).
// Every URL is re-screened immediately before the outbound fetch, even ones
// that passed screening when stored.
func Relay(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, err := resolveRelayTarget(d, r)
		if err != nil {
			httperr.Write(w, err)
			return
		}

		if _, err := d.Validator.ScreenURL(target); err != nil {
			httperr.Write(w, httperr.UnauthorizedURL())
			return
		}

		opts := relay.StreamOptions{
			RangeHeader: r.Header.Get("Range"),
		}
		if name := r.URL.Query().Get("filename"); name != "" {
			opts.Filename = security.SanitizeFilename(name, 128)
		}

		if err := d.Relay.Stream(r.Context(), w, target, opts); err != nil {
			httperr.Write(w, err)
		}
	}
}

// resolveRelayTarget picks the upstream URL from the request parameters.
func resolveRelayTarget(d deps.Deps, r *http.Request) (string, error) {
	q := r.URL.Query()

	if token := q.Get("h"); token != "" {
		if !validToken(token) {
			return "", httperr.InvalidHash()
		}
		target, ok := d.Store.Resolve(token)
		if !ok {
			return "", httperr.InvalidHash()
		}
		return target, nil
	}

	if raw := q.Get("url"); raw != "" {
		u, err := d.Validator.ScreenURL(raw)
		if err != nil {
			return "", httperr.UnauthorizedURL()
		}
		// A bare URL is only relayed when extraction registered it earlier
		// or its host carries its own authorization (signed expiring URLs).
		if !d.Store.IsKnown(raw) && !d.Registry.IsTrustedHost(u.Hostname()) {
			return "", httperr.UnauthorizedURL()
		}
		return raw, nil
	}

	return "", httperr.MissingParameter("h")
}

// validToken checks the shape before touching the store: tokens are exactly
// the hex prefix the store mints, so anything else is rejected outright.
func validToken(token string) bool {
	if len(token) != urlstore.TokenLength {
		return false
	}
	_, err := hex.DecodeString(token)
	return err == nil
}
