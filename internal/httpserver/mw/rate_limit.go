package mw

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/streamgate/streamgate/internal/httperr"
	"github.com/streamgate/streamgate/internal/metrics"
	"github.com/streamgate/streamgate/internal/utils"
)

type RateLimitConfig struct {
	Requests      int           // allowed requests per window
	Window        time.Duration // window length
	MaxEntries    int
	SweepInterval time.Duration
	TrustProxy    bool // resolve IP from proxy headers when true
}

// window tracks one client's consumption in the current fixed window.
type window struct {
	mu       sync.Mutex
	count    int
	start    time.Time
	lastSeen time.Time
}

type limiter struct {
	cfg       RateLimitConfig
	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.Requests < 1 {
		cfg.Requests = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &limiter{
		cfg:       cfg,
		windows:   make(map[string]*window, 1024),
		lastSweep: time.Now(),
	}
}

func (l *limiter) getWindow(key string, now time.Time) *window {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg.MaxEntries > 0 && len(l.windows) >= l.cfg.MaxEntries {
		l.sweepLocked(now)
	}
	w := l.windows[key]
	if w == nil {
		w = &window{start: now, lastSeen: now}
		l.windows[key] = w
	}
	return w
}

// allow counts one request against the client's current window. The window
// resets in full once it elapses; there is no gradual refill.
func (l *limiter) allow(key string, now time.Time) (ok bool, remaining int, retryAfterSec int) {
	w := l.getWindow(key, now)

	w.mu.Lock()
	defer w.mu.Unlock()

	if now.Sub(w.start) >= l.cfg.Window {
		w.count = 0
		w.start = now
	}
	w.lastSeen = now

	if w.count < l.cfg.Requests {
		w.count++
		return true, l.cfg.Requests - w.count, 0
	}

	sec := int(l.cfg.Window.Seconds()) - int(now.Sub(w.start).Seconds())
	if sec < 1 {
		sec = 1
	}
	return false, 0, sec
}

func (l *limiter) sweepLocked(now time.Time) {
	idle := 2 * l.cfg.Window
	for ip, w := range l.windows {
		if now.Sub(w.lastSeen) > idle {
			delete(l.windows, ip)
		}
	}
	l.lastSweep = now
}

func (l *limiter) sweepMaybe(now time.Time) {
	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweepLocked(now)
	}
	l.mu.Unlock()
}

func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limitStr := strconv.Itoa(l.cfg.Requests)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			l.sweepMaybe(now)

			key := utils.ClientIP(r, l.cfg.TrustProxy)

			ok, remaining, retry := l.allow(key, now)
			if !ok {
				metrics.RateLimitedTotal.Inc()
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				w.Header().Set("X-RateLimit-Limit", limitStr)
				w.Header().Set("X-RateLimit-Remaining", "0")
				httperr.Write(w, httperr.RateLimited(retry))
				return
			}

			w.Header().Set("X-RateLimit-Limit", limitStr)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			next.ServeHTTP(w, r)
		})
	}
}
