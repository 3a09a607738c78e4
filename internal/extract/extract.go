// Package extract defines the boundary to platform scraping collaborators.
// The service does not scrape; it dispatches to registered extractors and
// screens what they return. Dispatch is an ordered list of values behind a
// common capability, with explicit registration.
package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/streamgate/streamgate/internal/media"
)

// Options passed through to an extractor.
type Options struct {
	Cookie string // sanitized upstream, opaque here
}

// Result is one extracted item: descriptive metadata plus candidate formats.
// The service validates the URLs, not the scraping correctness.
type Result struct {
	Platform  string         `json:"platform"`
	Title     string         `json:"title,omitempty"`
	Author    string         `json:"author,omitempty"`
	Thumbnail string         `json:"thumbnail,omitempty"`
	NSFW      bool           `json:"isNsfw,omitempty"`
	Formats   []media.Format `json:"formats"`
}

// Extractor is the capability every platform collaborator implements.
type Extractor interface {
	PlatformName() string
	Matches(url string) bool
	Extract(ctx context.Context, url string, opts Options) (*Result, error)
}

var ErrNoExtractor = errors.New("extract: no extractor matches URL")

// Registry is an ordered, synchronized list of extractors. First match wins;
// order is fixed at registration time.
type Registry struct {
	mu         sync.RWMutex
	extractors []Extractor
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an extractor. Registering the same platform name twice is
// a programming error and panics at startup rather than shadowing silently.
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.extractors {
		if existing.PlatformName() == e.PlatformName() {
			panic(fmt.Sprintf("extract: duplicate extractor %q", e.PlatformName()))
		}
	}
	r.extractors = append(r.extractors, e)
}

// Detect returns the first extractor whose Matches accepts the URL.
func (r *Registry) Detect(url string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.extractors {
		if e.Matches(url) {
			return e, true
		}
	}
	return nil, false
}

// Extract dispatches to the matching extractor.
func (r *Registry) Extract(ctx context.Context, url string, opts Options) (*Result, error) {
	e, ok := r.Detect(url)
	if !ok {
		return nil, ErrNoExtractor
	}
	return e.Extract(ctx, url, opts)
}

// Platforms lists registered platform names in registration order.
func (r *Registry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.PlatformName()
	}
	return names
}
