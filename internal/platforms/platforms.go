// Package platforms holds the registry of supported media platforms and the
// per-host delivery quirks: outbound header overrides for hot-link protected
// CDNs, the trusted-host relay carve-out, and short-URL/tracking-param tables.
package platforms

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Platform describes one supported media host.
type Platform struct {
	Name          string   `yaml:"name"`
	Patterns      []string `yaml:"patterns"`
	NSFW          bool     `yaml:"nsfw"`
	RequiresRelay bool     `yaml:"requires_relay"` // formats from this platform default to relay delivery
}

// HeaderOverride is an outbound header set applied when the upstream hostname
// contains the given substring. Some CDNs reject fetches without a matching
// Referer/Origin.
type HeaderOverride struct {
	HostContains string            `yaml:"host_contains"`
	Headers      map[string]string `yaml:"headers"`
}

// FileConfig is the platforms.yaml shape.
type FileConfig struct {
	Platforms       []Platform       `yaml:"platforms"`
	HeaderOverrides []HeaderOverride `yaml:"header_overrides"`
	TrustedHosts    []string         `yaml:"trusted_hosts"`
	ShortURLHosts   []string         `yaml:"short_url_hosts"`
	TrackingParams  []string         `yaml:"tracking_params"`
}

type compiledPlatform struct {
	Platform
	patterns []*regexp.Regexp
}

// Registry is the runtime view of the platform configuration. The whole
// snapshot is swapped atomically on reload, so readers never see a half
// result.
type Registry struct {
	mu         sync.RWMutex
	platforms  []compiledPlatform
	overrides  []HeaderOverride
	trusted    []string
	shortHosts []string
	tracking   map[string]bool
	lastReload time.Time
}

// NewRegistry builds a registry from cfg, compiling all patterns.
// Invalid patterns are dropped rather than failing the whole registry.
func NewRegistry(cfg FileConfig) *Registry {
	r := &Registry{}
	r.apply(cfg)
	return r
}

func (r *Registry) apply(cfg FileConfig) {
	compiled := make([]compiledPlatform, 0, len(cfg.Platforms))
	for _, p := range cfg.Platforms {
		cp := compiledPlatform{Platform: p}
		for _, pat := range p.Patterns {
			if re, err := regexp.Compile("(?i)" + pat); err == nil {
				cp.patterns = append(cp.patterns, re)
			}
		}
		if len(cp.patterns) > 0 {
			compiled = append(compiled, cp)
		}
	}

	tracking := make(map[string]bool, len(cfg.TrackingParams))
	for _, p := range cfg.TrackingParams {
		tracking[strings.ToLower(p)] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.platforms = compiled
	r.overrides = cfg.HeaderOverrides
	r.trusted = cfg.TrustedHosts
	r.shortHosts = cfg.ShortURLHosts
	r.tracking = tracking
	r.lastReload = time.Now()
}

// Update replaces the registry contents with a freshly loaded config.
func (r *Registry) Update(cfg FileConfig) {
	r.apply(cfg)
}

// Detect returns the first platform whose patterns match the URL.
// Order is significant: first match wins, no runtime type inspection.
func (r *Registry) Detect(url string) (Platform, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, cp := range r.platforms {
		for _, re := range cp.patterns {
			if re.MatchString(url) {
				return cp.Platform, true
			}
		}
	}
	return Platform{}, false
}

// HeadersFor returns the outbound header overrides for a hostname, or nil.
func (r *Registry) HeadersFor(hostname string) map[string]string {
	lower := strings.ToLower(hostname)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.overrides {
		if o.HostContains != "" && strings.Contains(lower, strings.ToLower(o.HostContains)) {
			return o.Headers
		}
	}
	return nil
}

// IsTrustedHost reports whether hostname falls under the relay trust
// carve-out (suffix match). Trusted hosts may be relayed without a prior
// token; this deliberately weakens the anti-open-proxy guarantee for them.
func (r *Registry) IsTrustedHost(hostname string) bool {
	lower := strings.ToLower(hostname)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, suffix := range r.trusted {
		s := strings.ToLower(suffix)
		if lower == s || strings.HasSuffix(lower, "."+s) {
			return true
		}
	}
	return false
}

// IsShortURLHost reports whether hostname is a known link shortener.
func (r *Registry) IsShortURLHost(hostname string) bool {
	lower := strings.ToLower(hostname)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.shortHosts {
		s := strings.ToLower(h)
		if lower == s || strings.HasSuffix(lower, "."+s) {
			return true
		}
	}
	return false
}

// IsTrackingParam reports whether a query parameter is tracking noise.
func (r *Registry) IsTrackingParam(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tracking[strings.ToLower(name)]
}

// Count returns the number of registered platforms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.platforms)
}

// LastReload returns when the registry contents were last replaced.
func (r *Registry) LastReload() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastReload
}

// Defaults is the built-in registry used when no platforms.yaml is
// configured. Mirrors the platforms the extraction collaborators support.
func Defaults() FileConfig {
	return FileConfig{
		Platforms: []Platform{
			{Name: "youtube", Patterns: []string{`youtube\.com`, `youtu\.be`, `youtube-nocookie\.com`}},
			{Name: "bilibili", Patterns: []string{`bilibili\.com`, `bilibili\.tv`, `b23\.tv`}},
			{Name: "reddit", Patterns: []string{`reddit\.com`, `redd\.it`, `v\.redd\.it`}},
			{Name: "soundcloud", Patterns: []string{`soundcloud\.com`}},
			{Name: "twitch", Patterns: []string{`twitch\.tv/\w+/clip`, `clips\.twitch\.tv`}},
			{Name: "bandcamp", Patterns: []string{`bandcamp\.com`}},
			{Name: "weibo", Patterns: []string{`weibo\.com`, `weibo\.cn`}},
			{Name: "pinterest", Patterns: []string{`pinterest\.com`, `pin\.it`}},
			{Name: "facebook", Patterns: []string{`facebook\.com`, `fb\.watch`}, RequiresRelay: true},
			{Name: "pixiv", Patterns: []string{`pixiv\.net`}, RequiresRelay: true},
		},
		HeaderOverrides: []HeaderOverride{
			{HostContains: "pximg.net", Headers: map[string]string{"Referer": "https://www.pixiv.net/"}},
			{HostContains: "pinimg.com", Headers: map[string]string{"Referer": "https://www.pinterest.com/"}},
			{HostContains: "bilivideo", Headers: map[string]string{
				"Referer": "https://www.bilibili.com/",
				"Origin":  "https://www.bilibili.com",
			}},
			{HostContains: "sndcdn.com", Headers: map[string]string{"Origin": "https://soundcloud.com"}},
			{HostContains: "fbcdn.net", Headers: map[string]string{"Referer": "https://www.facebook.com/"}},
		},
		TrustedHosts: []string{
			// Their media URLs carry signed, short-lived expiry of their own.
			"googlevideo.com",
			"ytimg.com",
			"bilivideo.com",
			"bilivideo.cn",
		},
		ShortURLHosts: []string{"pin.it", "b23.tv", "redd.it", "youtu.be", "fb.watch"},
		TrackingParams: []string{
			"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
			"fbclid", "gclid", "ref", "ref_src",
		},
	}
}
