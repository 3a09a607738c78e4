package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// URL store
	StoreTTL           time.Duration // lifetime of a stored source URL (default: 5m)
	StoreMaxRecords    int           // live-record ceiling before LRU eviction (default: 4096)
	StoreSweepInterval time.Duration // background expiry sweep interval (default: 1m)

	// Security validator
	MaxURLLength  int  // reject URLs longer than this (default: 2048)
	RequireDomain bool // reject raw IP-literal hostnames (default: true)

	// Rate limiter (rolling window per client IP)
	RateLimitRequests   int           // requests allowed per window (default: 100)
	RateLimitWindow     time.Duration // window length (default: 60s)
	RateLimitMaxEntries int           // bound on tracked client IPs (default: 10000)
	RateLimitSweep      time.Duration // idle-entry sweep interval (default: 1m)

	// Access controller
	APIKeys        []string // valid private-mode API keys
	AllowedOrigins []string // Origin/Referer prefixes granted public mode

	// Platform registry
	PlatformFile   string        // path to platforms.yaml (optional, empty = built-in defaults only)
	ReloadInterval time.Duration // interval to reload platforms.yaml (default: 1h)

	// Upstream HTTP
	MetadataTimeout time.Duration // full-request bound for HEAD/metadata fetches (default: 10s)
	HeaderTimeout   time.Duration // response-header bound for streaming fetches (default: 10s)

	TrustProxy bool // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("STREAMGATE_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("STREAMGATE_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("STREAMGATE_LOG_LEVEL", "info"),
		PrettyLog: mustBool("STREAMGATE_PRETTY_LOG", false),

		// URL store
		StoreTTL:           mustDuration("STREAMGATE_STORE_TTL", 5*time.Minute),
		StoreMaxRecords:    getenvInt("STREAMGATE_STORE_MAX_RECORDS", 4096),
		StoreSweepInterval: mustDuration("STREAMGATE_STORE_SWEEP_INTERVAL", time.Minute),

		// Security validator
		MaxURLLength:  getenvInt("STREAMGATE_MAX_URL_LENGTH", 2048),
		RequireDomain: mustBool("STREAMGATE_REQUIRE_DOMAIN", true),

		// Rate limiter
		RateLimitRequests:   getenvInt("STREAMGATE_RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:     mustDuration("STREAMGATE_RATE_LIMIT_WINDOW", 60*time.Second),
		RateLimitMaxEntries: getenvInt("STREAMGATE_RATE_LIMIT_MAX_ENTRIES", 10000),
		RateLimitSweep:      mustDuration("STREAMGATE_RATE_LIMIT_SWEEP", time.Minute),

		// Access controller
		APIKeys:        getenvSlice("STREAMGATE_API_KEYS", nil),
		AllowedOrigins: getenvSlice("STREAMGATE_ALLOWED_ORIGINS", nil),

		// Platform registry
		PlatformFile:   getenv("STREAMGATE_PLATFORM_FILE", ""),
		ReloadInterval: mustDuration("STREAMGATE_RELOAD_INTERVAL", time.Hour),

		// Upstream HTTP
		MetadataTimeout: mustDuration("STREAMGATE_METADATA_TIMEOUT", 10*time.Second),
		HeaderTimeout:   mustDuration("STREAMGATE_HEADER_TIMEOUT", 10*time.Second),

		TrustProxy: mustBool("STREAMGATE_TRUST_PROXY", false),
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if len(cfg.APIKeys) > 0 {
			cfgCopy.APIKeys = []string{"***REDACTED***"}
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// helpers

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvSlice(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		return splitAndTrim(v)
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
