package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/streamgate/streamgate/internal/urlstore"
)

func TestRelayMissingParameter(t *testing.T) {
	d := testDeps(t)
	req := httptest.NewRequest(http.MethodGet, "/api/relay", nil)
	rec := httptest.NewRecorder()

	Relay(d)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_PARAMETER", decodeError(t, rec).Error.Code)
}

func TestRelayUnknownToken(t *testing.T) {
	d := testDeps(t)
	req := httptest.NewRequest(http.MethodGet, "/api/relay?h=0123456789abcdef", nil)
	rec := httptest.NewRecorder()

	Relay(d)(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "INVALID_HASH", decodeError(t, rec).Error.Code)
}

func TestRelayMalformedToken(t *testing.T) {
	d := testDeps(t)
	for _, token := range []string{"short", "0123456789abcdeZ", "0123456789abcdef00"} {
		req := httptest.NewRequest(http.MethodGet, "/api/relay?h="+token, nil)
		rec := httptest.NewRecorder()

		Relay(d)(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code, token)
		assert.Equal(t, "INVALID_HASH", decodeError(t, rec).Error.Code, token)
	}
}

func TestRelayRawURLRequiresAuthorization(t *testing.T) {
	d := testDeps(t)
	req := httptest.NewRequest(http.MethodGet, "/api/relay?url=https%3A%2F%2Fcdn.example.com%2Fv.mp4", nil)
	rec := httptest.NewRecorder()

	Relay(d)(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED_URL", decodeError(t, rec).Error.Code)
}

func TestRelayRawURLRejectedBeforeFetch(t *testing.T) {
	// Internal URLs fail screening outright; they never reach the known/
	// trusted check, let alone the network.
	d := testDeps(t)
	for _, raw := range []string{
		"http%3A%2F%2F169.254.169.254%2Flatest%2Fmeta-data%2F",
		"http%3A%2F%2Flocalhost%2Fadmin",
		"http%3A%2F%2F0x7f000001%2F",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/relay?url="+raw, nil)
		rec := httptest.NewRecorder()

		Relay(d)(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code, raw)
		assert.Equal(t, "UNAUTHORIZED_URL", decodeError(t, rec).Error.Code, raw)
	}
}

func TestRelayStoredURLUpstreamUnreachable(t *testing.T) {
	// A valid token whose upstream cannot be reached surfaces as a stream
	// failure, not as a hash problem. The .invalid TLD never resolves.
	d := testDeps(t)
	target := "https://media.invalid/clip.mp4"
	d.Store.Put(target)

	req := httptest.NewRequest(http.MethodGet, "/api/relay?h="+urlstore.Token(target), nil)
	rec := httptest.NewRecorder()

	Relay(d)(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "STREAM_FAILED", decodeError(t, rec).Error.Code)
}

func TestRelayExpiredTokenRejected(t *testing.T) {
	d := testDeps(t)
	d.Store = urlstoreWithZeroTTL()
	target := "https://cdn.example.com/v.mp4"
	d.Store.Put(target)

	req := httptest.NewRequest(http.MethodGet, "/api/relay?h="+urlstore.Token(target), nil)
	rec := httptest.NewRecorder()

	Relay(d)(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "INVALID_HASH", decodeError(t, rec).Error.Code)
}

func urlstoreWithZeroTTL() *urlstore.Store {
	return urlstore.New(1, 100) // 1ns TTL: records expire immediately
}
