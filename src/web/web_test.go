// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package web

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixmyphone/edge/src/config"
	"github.com/fixmyphone/edge/src/logger"
)

func newTestData(t *testing.T) *Data {
	t.Helper()

	log := logger.New(time.RFC3339)
	log.SetWriters(io.Discard, io.Discard)

	data, err := Load(config.Config{
		Log:         log,
		Version:     "1.0.0",
		ServerTitle: "FixMyPhone Edge",
		AdminName:   "FixMyPhone Administrator",
		AdminMail:   "admin@fixmyphone.app",
	})
	require.NoError(t, err)
	return data
}

func get(data *Data, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	data.Handler(rec, req)
	return rec
}

func TestServiceWorkerHeaders(t *testing.T) {
	data := newTestData(t)

	rec := get(data, "/sw.js")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
	assert.Equal(t, "/", rec.Header().Get("Service-Worker-Allowed"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}

func TestManifest(t *testing.T) {
	data := newTestData(t)

	rec := get(data, "/manifest.json")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/manifest+json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"FixMyPhone"`)
}

func TestOfflinePageETag(t *testing.T) {
	data := newTestData(t)

	rec := get(data, "/offline.html")
	require.Equal(t, 200, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, rec.Body.String(), "You're offline")

	// Conditional request returns 304
	req := httptest.NewRequest("GET", "/offline.html", nil)
	req.Header.Set("If-None-Match", etag)
	rec2 := httptest.NewRecorder()
	data.Handler(rec2, req)
	assert.Equal(t, 304, rec2.Code)
}

func TestPlaceholderSVG(t *testing.T) {
	data := newTestData(t)

	rec := get(data, "/placeholder.svg")
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
}

func TestHealthz(t *testing.T) {
	data := newTestData(t)

	rec := get(data, "/healthz")
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "Status: healthy")
}

func TestRobotsTxt(t *testing.T) {
	data := newTestData(t)

	rec := get(data, "/robots.txt")
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "Disallow: /api/")
}

func TestUnknownPath(t *testing.T) {
	data := newTestData(t)

	rec := get(data, "/nope")
	assert.Equal(t, 404, rec.Code)
}

func TestHandles(t *testing.T) {
	data := newTestData(t)

	assert.True(t, data.Handles("/sw.js"))
	assert.True(t, data.Handles("/offline.html"))
	assert.False(t, data.Handles("/dashboard"))
	assert.False(t, data.Handles("/api/v1/status"))
}
