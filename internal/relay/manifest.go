package relay

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/streamgate/streamgate/internal/httperr"
	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/metrics"
)

// URLRegistrar records upstream URLs so later relay requests accept them.
// Satisfied by the URL store.
type URLRegistrar interface {
	Put(urls ...string)
}

// Playlists are small text files; anything past this is not one.
const maxManifestBytes = 4 << 20

const relaySegmentPrefix = "/api/relay?url="

// isHLSManifest reports whether the upstream response is an HLS playlist,
// by declared type or by URL extension when the type is generic.
func isHLSManifest(contentType, urlPath string) bool {
	if strings.Contains(strings.ToLower(contentType), "mpegurl") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(urlPath), ".m3u8")
}

// streamManifest buffers an HLS playlist and rewrites every media URI to go
// back through the relay. Players follow playlist lines directly, so without
// the rewrite segment requests would hit upstream hosts bare, skipping both
// the outbound header overrides and the URL authorization step.
func (rl *Relay) streamManifest(w http.ResponseWriter, resp *http.Response, opts StreamOptions) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes+1))
	if err != nil {
		metrics.RelayUpstreamFailures.Inc()
		rl.logger.Warn("relay manifest read failed",
			logger.String("host", resp.Request.URL.Hostname()),
			logger.Error(err))
		return httperr.StreamFailed()
	}
	if len(body) > maxManifestBytes {
		metrics.RelayUpstreamFailures.Inc()
		rl.logger.Warn("relay manifest exceeds size cap",
			logger.String("host", resp.Request.URL.Hostname()))
		return httperr.StreamFailed()
	}

	rewritten := rl.rewriteManifest(string(body), resp.Request.URL)

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/vnd.apple.mpegurl"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(rewritten)))
	if opts.Filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+opts.Filename+`"`)
	}
	w.WriteHeader(http.StatusOK)

	n, _ := w.Write([]byte(rewritten))
	metrics.RelayBytesOut.Add(float64(n))
	return nil
}

// rewriteManifest replaces each URI line with a relay URL for its absolute
// form. Relative references resolve against the playlist's own URL, so both
// variant playlists and media segments route back through the relay. Tag and
// comment lines pass through untouched, and every rewritten target is
// registered so the relay will accept it.
func (rl *Relay) rewriteManifest(manifest string, base *url.URL) string {
	lines := strings.Split(manifest, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		ref, err := url.Parse(trimmed)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		target := abs.String()
		rl.registrar.Put(target)
		lines[i] = relaySegmentPrefix + url.QueryEscape(target)
	}
	return strings.Join(lines, "\n")
}
