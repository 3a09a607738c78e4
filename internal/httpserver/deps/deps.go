package deps

import (
	"net/http"
	"time"

	"github.com/streamgate/streamgate/internal/access"
	"github.com/streamgate/streamgate/internal/extract"
	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/platforms"
	"github.com/streamgate/streamgate/internal/relay"
	"github.com/streamgate/streamgate/internal/resolver"
	"github.com/streamgate/streamgate/internal/security"
	"github.com/streamgate/streamgate/internal/urlstore"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	Store      *urlstore.Store     // token -> URL records
	Validator  *security.Validator // URL screening before any outbound fetch
	Access     *access.Controller  // API key / origin classification
	Registry   *platforms.Registry // platform patterns, header overrides, trusted hosts
	Relay      *relay.Relay        // upstream media streaming
	Resolver   *resolver.Resolver  // short-URL expansion and tracking cleanup
	Extractors *extract.Registry   // platform extractor dispatch

	// RateLimit is the shared per-client limiter, built once so all API
	// routes count against the same windows. Nil disables limiting.
	RateLimit func(http.Handler) http.Handler

	PublicBaseURL string
	ReloadTrigger chan struct{} // manual platform registry reload
}
