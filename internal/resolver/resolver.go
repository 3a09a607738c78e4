// Package resolver expands shortened share links (pin.it, b23.tv, redd.it)
// to their canonical URLs and strips tracking parameters. Resolution is best
// effort: on any failure the original URL is returned unchanged.
package resolver

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/streamgate/streamgate/internal/platforms"
	"github.com/streamgate/streamgate/internal/utils"
)

// maxParallel bounds concurrent HEAD requests during batch resolution.
const maxParallel = 5

type Resolver struct {
	client   *http.Client
	registry *platforms.Registry
}

func New(registry *platforms.Registry, timeout time.Duration) *Resolver {
	return &Resolver{
		client: &http.Client{
			Timeout: timeout,
			// Follow redirects; the final URL is the answer.
		},
		registry: registry,
	}
}

// Resolve expands rawURL if its host is a known shortener, following
// redirects and cleaning tracking parameters from the destination.
// Non-shortener URLs come back only with their query cleaned.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	if !r.registry.IsShortURLHost(u.Hostname()) {
		return rawURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return rawURL
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return rawURL
	}
	utils.Close(resp.Body)

	final := resp.Request.URL
	return r.cleanQuery(final).String()
}

// ResolveAll resolves a batch with bounded parallelism, preserving order.
// Individual failures keep the original URL; the batch itself never fails.
func (r *Resolver) ResolveAll(ctx context.Context, urls []string) []string {
	out := make([]string, len(urls))
	copy(out, urls)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i, raw := range urls {
		if u, err := url.Parse(raw); err != nil || !r.registry.IsShortURLHost(u.Hostname()) {
			continue
		}
		i, raw := i, raw
		g.Go(func() error {
			out[i] = r.Resolve(ctx, raw)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// CleanTracking strips tracking parameters from a URL without any network
// round trip. Malformed URLs are returned unchanged.
func (r *Resolver) CleanTracking(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return r.cleanQuery(u).String()
}

func (r *Resolver) cleanQuery(u *url.URL) *url.URL {
	if u.RawQuery == "" {
		return u
	}
	q := u.Query()
	for name := range q {
		if r.registry.IsTrackingParam(name) {
			q.Del(name)
		}
	}
	cleaned := *u
	cleaned.RawQuery = q.Encode()
	cleaned.Fragment = ""
	return &cleaned
}
