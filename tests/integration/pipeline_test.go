package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamgate/streamgate/internal/access"
	"github.com/streamgate/streamgate/internal/extract"
	"github.com/streamgate/streamgate/internal/httpserver/deps"
	"github.com/streamgate/streamgate/internal/httpserver/mw"
	"github.com/streamgate/streamgate/internal/httpserver/routes"
	"github.com/streamgate/streamgate/internal/logger"
	"github.com/streamgate/streamgate/internal/media"
	"github.com/streamgate/streamgate/internal/platforms"
	"github.com/streamgate/streamgate/internal/relay"
	"github.com/streamgate/streamgate/internal/resolver"
	"github.com/streamgate/streamgate/internal/security"
	"github.com/streamgate/streamgate/internal/urlstore"
	"github.com/streamgate/streamgate/internal/version"
)

type fixedExtractor struct {
	result *extract.Result
}

func (fixedExtractor) PlatformName() string { return "faketube" }

func (fixedExtractor) Matches(url string) bool {
	return strings.Contains(url, "video.example.com")
}

func (f fixedExtractor) Extract(_ context.Context, _ string, _ extract.Options) (*extract.Result, error) {
	return f.result, nil
}

// newTestServer wires the full router the way the app does, minus the
// schedulers, against an in-memory store and a stub extractor.
func newTestServer(t *testing.T) (*httptest.Server, deps.Deps) {
	t.Helper()

	log := logger.NewNop()
	reg := platforms.NewRegistry(platforms.Defaults())

	exReg := extract.NewRegistry()
	exReg.Register(fixedExtractor{result: &extract.Result{
		Platform: "faketube",
		Title:    "Integration Clip",
		Formats: []media.Format{
			{URL: "https://cdn.example.com/clip.mp4", MIME: "video/mp4", Bitrate: 1_000_000, Duration: 120},
		},
	}})

	store := urlstore.New(5*time.Minute, 100)
	d := deps.Deps{
		Logger:     log,
		StartTime:  time.Now(),
		Version:    version.Version,
		Store:      store,
		Validator:  security.New(2048, true),
		Access:     access.New([]string{"integration-key"}, nil),
		Registry:   reg,
		Relay:      relay.New(reg, store, log, 2*time.Second, 2*time.Second),
		Resolver:   resolver.New(reg, 2*time.Second),
		Extractors: exReg,
		RateLimit: mw.RateLimit(mw.RateLimitConfig{
			Requests: 50,
			Window:   time.Minute,
		}),
		ReloadTrigger: make(chan struct{}, 1),
	}

	r := chi.NewRouter()
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(mw.CORS())
	routes.RegisterAll(r, d)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, d
}

func TestExtractThenRelayAuthorization(t *testing.T) {
	srv, d := newTestServer(t)

	// Extraction requires credentials.
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/extract",
		strings.NewReader(`{"url":"https://video.example.com/watch/1"}`))
	req.Header.Set("X-API-Key", "integration-key")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Formats []struct {
				Token    string `json:"token"`
				RelayURL string `json:"relayUrl"`
			} `json:"formats"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.True(t, body.Success)
	require.Len(t, body.Data.Formats, 1)

	token := body.Data.Formats[0].Token
	assert.Len(t, token, urlstore.TokenLength)
	assert.True(t, d.Store.IsKnown("https://cdn.example.com/clip.mp4"))

	// A token the extraction never minted stays unusable.
	bogus, err := http.Get(srv.URL + "/api/relay?h=ffffffffffffffff")
	require.NoError(t, err)
	defer func() { _ = bogus.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, bogus.StatusCode)
}

func TestExtractAcceptsKeyQueryParam(t *testing.T) {
	// Players that cannot set headers pass the key as ?key= instead.
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/extract?key=integration-key", "application/json",
		strings.NewReader(`{"url":"https://video.example.com/watch/1"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExtractWithoutCredentialsDenied(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/extract", "application/json",
		strings.NewReader(`{"url":"https://video.example.com/watch/1"}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRelayDoesNotRequireCredentials(t *testing.T) {
	// The relay route sits outside the access gate; a bad token must fail on
	// the token, not on credentials.
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/relay?h=0123456789abcdef")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReloadEndpointRequiresCredentials(t *testing.T) {
	srv, d := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/reload", "", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/reload", nil)
	req.Header.Set("X-API-Key", "integration-key")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case <-d.ReloadTrigger:
	default:
		t.Fatal("reload signal was not queued")
	}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		_ = resp.Body.Close()
	}
}

func TestRateLimitHeadersPresent(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/resolve?url=https%3A%2F%2Fvideo.example.com%2Fwatch%3Fv%3D1")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Remaining"))
}
