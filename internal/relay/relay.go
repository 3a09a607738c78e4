// Package relay performs the upstream media fetch and pipes bytes to the
// client. It fronts arbitrary hosts, so it forwards only a fixed allowlist of
// upstream response headers and never surfaces raw upstream errors.
package relay

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/streamgate/streamgate/internal/httperr"
	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/metrics"
	"github.com/streamgate/streamgate/internal/platforms"
	"github.com/streamgate/streamgate/internal/utils"
)

// Browser-alike UA: several CDNs serve different (or no) content to unknown agents.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Upstream response headers forwarded to the client. Everything else is
// dropped so upstream infrastructure details never leak.
var forwardedHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
}

// Relay streams upstream media to clients.
type Relay struct {
	// streamClient has no overall timeout: transfers run as long as playback
	// does. Header acquisition still times out via ResponseHeaderTimeout.
	streamClient *http.Client
	// metaClient bounds full metadata requests (HEAD probes).
	metaClient *http.Client
	registry   *platforms.Registry
	registrar  URLRegistrar
	logger     logger.Logger
}

func New(registry *platforms.Registry, registrar URLRegistrar, log logger.Logger, headerTimeout, metadataTimeout time.Duration) *Relay {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
		ForceAttemptHTTP2:     true,
	}
	return &Relay{
		streamClient: &http.Client{Transport: transport},
		metaClient:   &http.Client{Transport: transport, Timeout: metadataTimeout},
		registry:     registry,
		registrar:    registrar,
		logger:       log,
	}
}

// StreamOptions tune one relay request.
type StreamOptions struct {
	RangeHeader string // client Range header, passed through verbatim
	Filename    string // when set, advertise an attachment download
}

// Stream fetches url upstream and pipes the body to w.
//
// The request context must be the client request's context: a client
// disconnect cancels the upstream fetch and releases the connection.
// Returns a typed error only before any response byte has been written;
// mid-stream failures are logged and the connection is dropped.
func (rl *Relay) Stream(ctx context.Context, w http.ResponseWriter, url string, opts StreamOptions) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return httperr.StreamFailed()
	}
	rl.applyOutboundHeaders(req)
	if opts.RangeHeader != "" {
		req.Header.Set("Range", opts.RangeHeader)
	}

	resp, err := rl.streamClient.Do(req)
	if err != nil {
		metrics.RelayUpstreamFailures.Inc()
		rl.logger.Warn("relay upstream fetch failed",
			logger.String("host", req.URL.Hostname()),
			logger.Error(err))
		return httperr.StreamFailed()
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		metrics.RelayUpstreamFailures.Inc()
		rl.logger.Warn("relay upstream returned error status",
			logger.String("host", req.URL.Hostname()),
			logger.Int("status", resp.StatusCode))
		return httperr.StreamFailed()
	}

	if rl.registrar != nil && resp.Header.Get("Content-Range") == "" &&
		isHLSManifest(resp.Header.Get("Content-Type"), resp.Request.URL.Path) {
		return rl.streamManifest(w, resp, opts)
	}

	rl.writeResponseHeaders(w, resp, opts)

	status := http.StatusOK
	if resp.Header.Get("Content-Range") != "" {
		status = http.StatusPartialContent
	}
	w.WriteHeader(status)

	n, err := io.Copy(w, resp.Body)
	metrics.RelayBytesOut.Add(float64(n))
	if err != nil && ctx.Err() == nil {
		// Upstream died mid-transfer; headers are out, nothing to send but logs.
		rl.logger.Warn("relay transfer interrupted",
			logger.String("host", req.URL.Hostname()),
			logger.Int64("bytes", n),
			logger.Error(err))
	}
	return nil
}

// Probe issues a bounded GET for response headers only, used by callers that
// classify before serving. The body is closed immediately.
func (rl *Relay) Probe(ctx context.Context, url string) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return nil, httperr.StreamFailed()
	}
	rl.applyOutboundHeaders(req)

	resp, err := rl.metaClient.Do(req)
	if err != nil {
		return nil, httperr.StreamFailed()
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, httperr.StreamFailed()
	}
	return resp.Header.Clone(), nil
}

// applyOutboundHeaders sets the default UA plus any per-host overrides
// (Referer/Origin spoofing required by hot-link protected CDNs). The override
// table is keyed by hostname substring and is configuration, not per-request.
func (rl *Relay) applyOutboundHeaders(req *http.Request) {
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "*/*")

	if rl.registry == nil {
		return
	}
	for name, value := range rl.registry.HeadersFor(req.URL.Hostname()) {
		req.Header.Set(name, value)
	}
}

// writeResponseHeaders copies the forwarding allowlist from the upstream
// response, with two corrections: a chunked upstream has no valid
// Content-Length to forward and one must never be synthesized, and a missing
// Accept-Ranges is advertised as "bytes" since most progressive media
// supports ranges even when the header is omitted.
func (rl *Relay) writeResponseHeaders(w http.ResponseWriter, resp *http.Response, opts StreamOptions) {
	chunked := resp.ContentLength < 0 || isChunked(resp.TransferEncoding)

	for _, name := range forwardedHeaders {
		value := resp.Header.Get(name)
		if value == "" {
			continue
		}
		if name == "Content-Length" && chunked {
			continue
		}
		w.Header().Set(name, value)
	}

	if w.Header().Get("Accept-Ranges") == "" {
		w.Header().Set("Accept-Ranges", "bytes")
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	if opts.Filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+opts.Filename+`"`)
	}
}

func isChunked(transferEncoding []string) bool {
	for _, te := range transferEncoding {
		if te == "chunked" {
			return true
		}
	}
	return false
}
