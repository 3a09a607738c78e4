package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamgate/streamgate/internal/httpserver/deps"
)

func postReload(d deps.Deps) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	Reload(d)(rec, req)
	return rec
}

func TestReloadTriggers(t *testing.T) {
	d := testDeps(t)
	d.ReloadTrigger = make(chan struct{}, 1)

	rec := postReload(d)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Success bool           `json:"success"`
		Data    reloadResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.True(t, body.Data.Triggered)

	select {
	case <-d.ReloadTrigger:
	default:
		t.Fatal("expected a pending reload signal on the trigger channel")
	}
}

func TestReloadAlreadyPending(t *testing.T) {
	d := testDeps(t)
	d.ReloadTrigger = make(chan struct{}, 1)

	require.Equal(t, http.StatusAccepted, postReload(d).Code)

	rec := postReload(d)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Error.Code)
}
