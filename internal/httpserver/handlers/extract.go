package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/streamgate/streamgate/internal/extract"
	"github.com/streamgate/streamgate/internal/httperr"
	"github.com/streamgate/streamgate/internal/httpserver/deps"
	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/media"
	"github.com/streamgate/streamgate/internal/metrics"
	"github.com/streamgate/streamgate/internal/security"
	"github.com/streamgate/streamgate/internal/urlstore"
)

const maxExtractBody = 64 << 10 // request bodies are a URL and a cookie, nothing bigger

type extractRequest struct {
	URL    string `json:"url"`
	Cookie string `json:"cookie,omitempty"`
}

// formatResponse is one deliverable format. Clients follow DirectURL for
// redirect delivery and RelayURL for relay delivery; both are always present
// so the player can fall back.
type formatResponse struct {
	DirectURL    string             `json:"directUrl"`
	RelayURL     string             `json:"relayUrl"`
	Token        string             `json:"token"`
	MIME         string             `json:"mime"`
	Extension    string             `json:"extension"`
	Quality      string             `json:"quality,omitempty"`
	Playlist     bool               `json:"playlist,omitempty"`
	Size         media.Size         `json:"size"`
	DeliveryMode media.DeliveryMode `json:"deliveryMode"`
}

type extractResponse struct {
	Platform  string           `json:"platform"`
	Title     string           `json:"title,omitempty"`
	Author    string           `json:"author,omitempty"`
	Thumbnail string           `json:"thumbnail,omitempty"`
	NSFW      bool             `json:"isNsfw"`
	Formats   []formatResponse `json:"formats"`
}

// Extract handles POST /api/extract: screen the URL, dispatch to the matching
// platform extractor, classify the returned formats, and register every
// deliverable URL in the store so the relay will accept it later.
func Extract(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req extractRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExtractBody)).Decode(&req); err != nil {
			httperr.Write(w, httperr.InvalidURL("malformed request body"))
			return
		}
		if req.URL == "" {
			httperr.Write(w, httperr.MissingParameter("url"))
			return
		}

		u, err := d.Validator.ScreenURL(req.URL)
		if err != nil {
			httperr.Write(w, invalidURLError(err))
			return
		}

		// Expand shorteners before platform detection; the short host says
		// nothing about where the media lives. The expanded URL gets the same
		// screening as the original.
		target := req.URL
		if d.Registry.IsShortURLHost(u.Hostname()) {
			target = d.Resolver.Resolve(r.Context(), req.URL)
			if _, err := d.Validator.ScreenURL(target); err != nil {
				httperr.Write(w, invalidURLError(err))
				return
			}
		} else {
			target = d.Resolver.CleanTracking(req.URL)
		}

		extractor, ok := d.Extractors.Detect(target)
		if !ok {
			httperr.Write(w, httperr.UnsupportedPlatform())
			return
		}

		opts := extract.Options{Cookie: security.SanitizeCookie(req.Cookie)}
		result, err := extractor.Extract(r.Context(), target, opts)
		if err != nil {
			metrics.ExtractionsTotal.WithLabelValues(extractor.PlatformName(), "failure").Inc()
			code := httperr.DetectExtractionCode(err.Error())
			d.Logger.Warn("extraction failed",
				logger.String("platform", extractor.PlatformName()),
				logger.String("code", code),
				logger.Error(err))
			httperr.Write(w, httperr.New(code, httperr.StatusForExtractionCode(code), "extraction failed"))
			return
		}
		metrics.ExtractionsTotal.WithLabelValues(extractor.PlatformName(), "success").Inc()

		resp := buildExtractResponse(r.Context(), d, target, result)
		writeJSON(w, http.StatusOK, resp)
	}
}

// buildExtractResponse classifies formats, registers their URLs, and strips
// anything unsafe from the extractor's text fields.
func buildExtractResponse(ctx context.Context, d deps.Deps, sourceURL string, result *extract.Result) extractResponse {
	resp := extractResponse{
		Platform: result.Platform,
		Title:    security.Sanitize(result.Title),
		Author:   security.Sanitize(result.Author),
		NSFW:     result.NSFW,
	}

	// Platform-level flags apply even when the extractor does not set them.
	if p, ok := d.Registry.Detect(sourceURL); ok {
		resp.NSFW = resp.NSFW || p.NSFW
	}

	if result.Thumbnail != "" {
		if _, err := d.Validator.ScreenURL(result.Thumbnail); err == nil {
			d.Store.Put(result.Thumbnail)
			resp.Thumbnail = relayPath(urlstore.Token(result.Thumbnail))
		}
	}

	classifier := media.NewClassifier()
	for _, f := range result.Formats {
		if _, err := d.Validator.ScreenURL(f.URL); err != nil {
			d.Logger.Warn("dropping format with unsafe URL",
				logger.String("platform", result.Platform))
			continue
		}

		classifier.Reset()
		cls, err := classifier.Classify(f, probeFormat(ctx, d, f))
		if err != nil {
			d.Logger.Warn("dropping malformed format",
				logger.String("platform", result.Platform),
				logger.Error(err))
			continue
		}

		d.Store.Put(f.URL)
		resp.Formats = append(resp.Formats, formatResponse{
			DirectURL:    f.URL,
			RelayURL:     relayPath(urlstore.Token(f.URL)),
			Token:        urlstore.Token(f.URL),
			MIME:         cls.MIME,
			Extension:    cls.Extension,
			Quality:      security.Sanitize(f.Quality),
			Playlist:     cls.Playlist,
			Size:         cls.Size,
			DeliveryMode: cls.DeliveryMode,
		})
	}

	return resp
}

// probeFormat fetches upstream headers when the extractor gave nothing to
// size the format with. Playlists are skipped: their manifest length says
// nothing about the media. A failed probe is not fatal, the classifier just
// reports the size as unknown.
func probeFormat(ctx context.Context, d deps.Deps, f media.Format) http.Header {
	if f.Bitrate > 0 && f.Duration > 0 {
		return nil
	}
	if media.IsPlaylistURL(f.URL) || media.IsPlaylistMIME(f.MIME) {
		return nil
	}
	headers, err := d.Relay.Probe(ctx, f.URL)
	if err != nil {
		d.Logger.Debug("format probe failed", logger.Error(err))
		return nil
	}
	return headers
}

func relayPath(token string) string {
	return "/api/relay?h=" + url.QueryEscape(token)
}

// invalidURLError maps a screening rejection to the wire error without
// echoing attacker-controlled input back.
func invalidURLError(err error) error {
	var rej *security.RejectError
	if errors.As(err, &rej) {
		return httperr.InvalidURL("URL rejected: " + rej.Category)
	}
	return httperr.InvalidURL("URL rejected")
}
