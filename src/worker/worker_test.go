// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixmyphone/edge/src/cachestore"
	"github.com/fixmyphone/edge/src/logger"
)

var errNetwork = errors.New("dial tcp: connection refused")

// fakeFetcher serves canned responses per path and records every
// network attempt.
type fakeFetcher struct {
	responses map[string]*cachestore.Response
	failAll   bool
	calls     []string
}

func textResponse(status int, contentType, body string) *cachestore.Response {
	header := make(http.Header)
	header.Set("Content-Type", contentType)
	return &cachestore.Response{Status: status, Header: header, Body: []byte(body)}
}

func (f *fakeFetcher) Fetch(ctx context.Context, req *http.Request) (*cachestore.Response, error) {
	return f.FetchPath(ctx, req.URL.RequestURI())
}

func (f *fakeFetcher) FetchPath(ctx context.Context, path string) (*cachestore.Response, error) {
	f.calls = append(f.calls, path)
	if f.failAll {
		return nil, errNetwork
	}
	resp, ok := f.responses[path]
	if !ok {
		return nil, errNetwork
	}
	return resp.Clone(), nil
}

func (f *fakeFetcher) AllowedHost(req *http.Request) bool {
	host := req.URL.Hostname()
	return host == "" || host == "fixmyphone.app" || host == "fonts.gstatic.com"
}

type fakeQueue struct {
	items []struct {
		endpoint string
		payload  []byte
	}
}

func (q *fakeQueue) Enqueue(endpoint string, payload []byte) error {
	q.items = append(q.items, struct {
		endpoint string
		payload  []byte
	}{endpoint, payload})
	return nil
}

func testLogger() logger.Logger {
	log := logger.New("2006/01/02 15:04:05")
	log.SetWriters(io.Discard, io.Discard)
	return log
}

func testConfig() Config {
	return Config{
		CacheNamePrefix: "fixmyphone",
		Version:         "1.0.0",
		Manifest:        []string{"/", "/offline.html", "/manifest.json"},
		OfflinePath:     "/offline.html",
		APIPrefix:       "/api/",
		BackendHost:     "backend.fixmyphone.app",
	}
}

func newTestController(t *testing.T, fetch *fakeFetcher, queue Enqueuer) (*Controller, *cachestore.MemoryManager) {
	t.Helper()
	stores := cachestore.NewMemoryManager()
	return New(testConfig(), stores, fetch, queue, testLogger()), stores
}

func installedFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]*cachestore.Response{
		"/":              textResponse(200, "text/html", "<html>shell</html>"),
		"/offline.html":  textResponse(200, "text/html", "<html>offline page</html>"),
		"/manifest.json": textResponse(200, "application/json", "{}"),
	}}
}

func TestInstallPopulatesStore(t *testing.T) {
	fetch := installedFetcher()
	ctrl, stores := newTestController(t, fetch, nil)

	require.NoError(t, ctrl.Install(context.Background()))
	assert.Equal(t, StateInstalled, ctrl.State())

	store, err := stores.Open("fixmyphone-v1.0.0")
	require.NoError(t, err)
	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	cached, err := store.Match("/offline.html")
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>offline page</html>"), cached.Body)
}

func TestInstallFailureLeavesNoStore(t *testing.T) {
	fetch := installedFetcher()
	delete(fetch.responses, "/offline.html")
	ctrl, stores := newTestController(t, fetch, nil)

	err := ctrl.Install(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/offline.html")
	assert.Equal(t, StateNew, ctrl.State())

	has, err := stores.Has("fixmyphone-v1.0.0")
	require.NoError(t, err)
	assert.False(t, has, "a failed install must not leave a store for this version")
}

func TestInstallRejectsNonOKManifestFetch(t *testing.T) {
	fetch := installedFetcher()
	fetch.responses["/manifest.json"] = textResponse(404, "text/plain", "not found")
	ctrl, stores := newTestController(t, fetch, nil)

	require.Error(t, ctrl.Install(context.Background()))

	has, err := stores.Has("fixmyphone-v1.0.0")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestActivateIsIdempotent(t *testing.T) {
	ctrl, stores := newTestController(t, installedFetcher(), nil)
	ctx := context.Background()

	require.NoError(t, ctrl.Install(ctx))
	require.NoError(t, ctrl.Activate(ctx))
	require.NoError(t, ctrl.Activate(ctx))

	assert.Equal(t, StateActive, ctrl.State())
	names, err := stores.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"fixmyphone-v1.0.0"}, names)
}

func TestActivatePurgesStaleVersions(t *testing.T) {
	stores := cachestore.NewMemoryManager()
	ctx := context.Background()

	v1 := New(testConfig(), stores, installedFetcher(), nil, testLogger())
	require.NoError(t, v1.Install(ctx))
	require.NoError(t, v1.Activate(ctx))

	cfg2 := testConfig()
	cfg2.Version = "1.1.0"
	v2 := New(cfg2, stores, installedFetcher(), nil, testLogger())
	require.NoError(t, v2.Install(ctx))
	require.NoError(t, v2.Activate(ctx))

	names, err := stores.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"fixmyphone-v1.1.0"}, names,
		"after v2 activates only v2's store may remain")
}

func activated(t *testing.T, fetch *fakeFetcher, queue Enqueuer) *Controller {
	t.Helper()
	ctrl, _ := newTestController(t, fetch, queue)
	ctx := context.Background()
	require.NoError(t, ctrl.Install(ctx))
	require.NoError(t, ctrl.Activate(ctx))
	return ctrl
}

func serve(ctrl *Controller, method, target, accept string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	ctrl.ServeHTTP(rec, req)
	return rec
}

func TestNavigationNetworkFirst(t *testing.T) {
	fetch := installedFetcher()
	fetch.responses["/dashboard"] = textResponse(200, "text/html", "<html>dashboard</html>")
	ctrl := activated(t, fetch, nil)

	rec := serve(ctrl, "GET", "/dashboard", "text/html", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "<html>dashboard</html>", rec.Body.String())

	// The live response was written through: take the network away and
	// the same page must still be served
	fetch.failAll = true
	rec = serve(ctrl, "GET", "/dashboard", "text/html", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "<html>dashboard</html>", rec.Body.String())
}

func TestNavigationOfflinePageFallback(t *testing.T) {
	fetch := installedFetcher()
	ctrl := activated(t, fetch, nil)
	fetch.failAll = true

	// Never-seen page, cache miss: the dedicated offline page from the
	// install manifest is served
	rec := serve(ctrl, "GET", "/repairs/new", "text/html", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "<html>offline page</html>", rec.Body.String())
}

func TestNavigationSynthesizedLastResort(t *testing.T) {
	fetch := installedFetcher()
	ctrl, stores := newTestController(t, fetch, nil)
	require.NoError(t, ctrl.Activate(context.Background()))

	// Empty store (no install ran), network down: a navigation still
	// gets 200 text/html
	require.NoError(t, stores.Delete("fixmyphone-v1.0.0"))
	fetch.failAll = true

	rec := serve(ctrl, "GET", "/anything", "text/html", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "offline")
}

func TestStaticCacheFirstSkipsNetwork(t *testing.T) {
	fetch := installedFetcher()
	fetch.responses["/assets/style.css"] = textResponse(200, "text/css", "body{}")
	ctrl := activated(t, fetch, nil)

	rec := serve(ctrl, "GET", "/assets/style.css", "text/css,*/*", nil)
	assert.Equal(t, 200, rec.Code)

	calls := len(fetch.calls)
	rec = serve(ctrl, "GET", "/assets/style.css", "text/css,*/*", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Len(t, fetch.calls, calls, "a cached static asset must not touch the network")
}

func TestStaticImageFailureGetsPlaceholder(t *testing.T) {
	fetch := installedFetcher()
	ctrl := activated(t, fetch, nil)
	fetch.failAll = true

	rec := serve(ctrl, "GET", "/icons/photo.png", "image/webp,*/*", nil)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestStaticScriptFailurePropagates(t *testing.T) {
	fetch := installedFetcher()
	ctrl := activated(t, fetch, nil)
	fetch.failAll = true

	// No placeholder exists for a script: the failure surfaces as 502
	rec := serve(ctrl, "GET", "/assets/app.js", "*/*", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestAPINetworkFailureWithCacheHit(t *testing.T) {
	fetch := installedFetcher()
	fetch.responses["/api/repairs?status=open"] = textResponse(200, "application/json", `[{"id":"r1"}]`)
	ctrl := activated(t, fetch, nil)

	rec := serve(ctrl, "GET", "/api/repairs?status=open", "application/json", nil)
	require.Equal(t, 200, rec.Code)

	fetch.failAll = true
	rec = serve(ctrl, "GET", "/api/repairs?status=open", "application/json", nil)
	assert.Equal(t, 200, rec.Code, "cached API response beats the synthesized 503")
	assert.Equal(t, `[{"id":"r1"}]`, rec.Body.String(), "cached bytes must be returned unchanged")
}

func TestAPINetworkFailureNoCache(t *testing.T) {
	fetch := installedFetcher()
	ctrl := activated(t, fetch, nil)
	fetch.failAll = true

	rec := serve(ctrl, "GET", "/api/shops", "application/json", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Offline", body["error"])
	assert.Equal(t, true, body["offline"])
	assert.NotEmpty(t, body["message"])
}

func TestAPIMutationNeverCached(t *testing.T) {
	fetch := installedFetcher()
	fetch.responses["/api/repairs"] = textResponse(201, "application/json", `{"id":"r9"}`)
	ctrl, stores := newTestController(t, fetch, nil)
	ctx := context.Background()
	require.NoError(t, ctrl.Install(ctx))
	require.NoError(t, ctrl.Activate(ctx))

	rec := serve(ctrl, "POST", "/api/repairs", "application/json", strings.NewReader(`{"device":"pixel"}`))
	assert.Equal(t, 201, rec.Code)

	store, err := stores.Open("fixmyphone-v1.0.0")
	require.NoError(t, err)
	_, err = store.Match("/api/repairs")
	assert.ErrorIs(t, err, cachestore.ErrNotFound)
}

func TestAPIOfflineMutationIsQueued(t *testing.T) {
	fetch := installedFetcher()
	queue := &fakeQueue{}
	ctrl := activated(t, fetch, queue)
	fetch.failAll = true

	payload := `{"device":"iphone-13","issue":"screen"}`
	rec := serve(ctrl, "POST", "/api/repairs", "application/json", strings.NewReader(payload))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Len(t, queue.items, 1)
	assert.Equal(t, "/api/repairs", queue.items[0].endpoint)
	assert.Equal(t, payload, string(queue.items[0].payload))
}

func TestGenericNoWriteThrough(t *testing.T) {
	fetch := installedFetcher()
	fetch.responses["/robots.txt"] = textResponse(200, "text/plain", "User-agent: *")
	ctrl, stores := newTestController(t, fetch, nil)
	ctx := context.Background()
	require.NoError(t, ctrl.Install(ctx))
	require.NoError(t, ctrl.Activate(ctx))

	rec := serve(ctrl, "GET", "/robots.txt", "", nil)
	assert.Equal(t, 200, rec.Code)

	store, err := stores.Open("fixmyphone-v1.0.0")
	require.NoError(t, err)
	_, err = store.Match("/robots.txt")
	assert.ErrorIs(t, err, cachestore.ErrNotFound,
		"generic responses are never written to cache")

	// And with no cache entry, a network failure propagates
	fetch.failAll = true
	rec = serve(ctrl, "GET", "/robots.txt", "", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRoutePrecedence(t *testing.T) {
	tests := []struct {
		method string
		target string
		accept string
		want   Strategy
	}{
		{"GET", "/dashboard", "text/html", StrategyNavigation},
		{"GET", "/api/page", "text/html", StrategyNavigation},
		{"GET", "/assets/style.css", "*/*", StrategyCacheFirst},
		{"GET", "/api/repairs", "application/json", StrategyAPI},
		{"GET", "/manifest.json", "*/*", StrategyGeneric},
		{"POST", "/api/repairs", "application/json", StrategyAPI},
		{"POST", "/form", "", StrategyPassthrough},
		{"DELETE", "/something", "", StrategyPassthrough},
	}

	cfg := testConfig()
	rules := cfg.rules()
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.target), func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, Route(req, rules))
		})
	}
}
