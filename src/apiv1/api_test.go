// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package apiv1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixmyphone/edge/src/appstate"
	"github.com/fixmyphone/edge/src/cachestore"
	"github.com/fixmyphone/edge/src/config"
	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/netshare"
	"github.com/fixmyphone/edge/src/notify"
	"github.com/fixmyphone/edge/src/syncqueue"
	"github.com/fixmyphone/edge/src/worker"
)

type manifestFetcher struct{}

func (f manifestFetcher) Fetch(ctx context.Context, req *http.Request) (*cachestore.Response, error) {
	return &cachestore.Response{
		Status: 200,
		Header: http.Header{"Content-Type": []string{"text/html"}},
		Body:   []byte("<html>ok</html>"),
	}, nil
}

func (f manifestFetcher) FetchPath(ctx context.Context, path string) (*cachestore.Response, error) {
	return f.Fetch(ctx, nil)
}

func (f manifestFetcher) AllowedHost(req *http.Request) bool { return true }

type nopSink struct{}

func (nopSink) Display(n notify.Notification) error { return nil }
func (nopSink) Dismiss(tag string)                  {}

func newTestData(t *testing.T) *Data {
	t.Helper()

	log := logger.New(time.RFC3339)
	log.SetWriters(io.Discard, io.Discard)

	stores := cachestore.NewMemoryManager()
	queue := syncqueue.NewMemoryQueue()
	drainer := syncqueue.NewDrainer(queue, "https://fixmyphone.app", 5*time.Second, 5, log)

	wrk := worker.New(worker.Config{
		CacheNamePrefix: "fixmyphone",
		Version:         "1.0.0",
		Manifest:        []string{"/", "/offline.html"},
		OfflinePath:     "/offline.html",
		APIPrefix:       "/api/",
	}, stores, manifestFetcher{}, queue, log)
	require.NoError(t, wrk.Install(context.Background()))
	require.NoError(t, wrk.Activate(context.Background()))

	notifier := notify.New(notify.PermissionGranted, nopSink{}, nil, 0, log)
	app := appstate.New(appstate.Options{Notifier: notifier}, log)

	cfg := config.Config{
		Log:          log,
		RateLimitAPI: netshare.NewRateLimitSystem(100, 200, 500),
		Version:      "1.0.0",
		AdminName:    "FixMyPhone Administrator",
		AdminMail:    "admin@fixmyphone.app",
		OriginURL:    "https://fixmyphone.app",
		CacheVersion: "1.0.0",
		Manifest:     []string{"/", "/offline.html"},
	}

	return Load(stores, queue, drainer, wrk, app, notifier, cfg)
}

func doRequest(data *Data, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.10:4242"
	// A browser-like User-Agent keeps GetAPIResponseFormat on the JSON
	// path; an empty UA is treated as an HTTP tool and rendered as text
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) TestBrowser/1.0")
	rec := httptest.NewRecorder()
	data.Hand(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "GET", "/api/v1/healthz", "")
	require.Equal(t, 200, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
}

func TestHealthzPlainText(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "GET", "/api/v1/healthz.txt", "")
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "OK: healthy")
	assert.Contains(t, rec.Body.String(), "worker: active")
}

func TestStatus(t *testing.T) {
	data := newTestData(t)
	require.NoError(t, data.Queue.Enqueue("/api/repairs", []byte(`{"device":"phone"}`)))

	rec := doRequest(data, "GET", "/api/v1/status", "")
	require.Equal(t, 200, rec.Code)

	var resp struct {
		OK   bool           `json:"ok"`
		Data statusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "active", resp.Data.Worker)
	assert.Equal(t, "fixmyphone-v1.0.0", resp.Data.CacheName)
	assert.Equal(t, 1, resp.Data.QueueDepth)
	require.Len(t, resp.Data.Stores, 1)
	assert.Equal(t, 2, resp.Data.Stores[0].Entries)
}

func TestStatusPlainText(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "GET", "/api/v1/status.txt", "")
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "worker: active")
	assert.Contains(t, rec.Body.String(), "cacheName: fixmyphone-v1.0.0")
}

func TestSyncList(t *testing.T) {
	data := newTestData(t)
	require.NoError(t, data.Queue.Enqueue("/api/repairs", []byte(`{"device":"phone"}`)))

	rec := doRequest(data, "GET", "/api/v1/sync", "")
	require.Equal(t, 200, rec.Code)

	var resp struct {
		OK   bool              `json:"ok"`
		Data []queueItemAnswer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "/api/repairs", resp.Data[0].Endpoint)
}

func TestSyncDrain(t *testing.T) {
	data := newTestData(t)
	require.NoError(t, data.Queue.Enqueue("/api/repairs", []byte(`{"device":"phone"}`)))

	httpmock.ActivateNonDefault(data.Drainer.Client())
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("POST", "https://fixmyphone.app/api/repairs",
		httpmock.NewStringResponder(201, `{"id":1}`))

	rec := doRequest(data, "POST", "/api/v1/sync/drain", "")
	require.Equal(t, 200, rec.Code)

	var resp struct {
		OK   bool        `json:"ok"`
		Data drainAnswer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Synced)
	assert.Equal(t, 0, resp.Data.Failed)
	assert.Equal(t, 0, resp.Data.Depth)
}

func TestSyncDrainRequiresPost(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "GET", "/api/v1/sync/drain", "")
	assert.Equal(t, 405, rec.Code)
}

func TestNotify(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "POST", "/api/v1/notify", `{"title":"Repair Ready","body":"Come pick it up"}`)
	require.Equal(t, 200, rec.Code)

	var resp struct {
		OK   bool         `json:"ok"`
		Data notifyAnswer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Shown)
	assert.Equal(t, "granted", resp.Data.Permission)
	assert.Equal(t, "/", resp.Data.ClickPrimary)
	assert.Equal(t, "/dashboard", resp.Data.ClickExplore)
}

func TestNotifyBadJSON(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "POST", "/api/v1/notify", `{not json`)
	assert.Equal(t, 400, rec.Code)
}

func TestNotifyPayloadTooLarge(t *testing.T) {
	data := newTestData(t)

	big := `{"title":"Repair Ready","body":"` + strings.Repeat("x", notifyBodyMax) + `"}`
	rec := doRequest(data, "POST", "/api/v1/notify", big)
	assert.Equal(t, 413, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	assert.Equal(t, "Payload Too Large", resp.Error)
}

func TestNotifyMissingTitle(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "POST", "/api/v1/notify", `{"body":"no title"}`)
	assert.Equal(t, 400, rec.Code)
}

func TestGetServerInfo(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "GET", "/api/v1/getServerInfo", "")
	require.Equal(t, 200, rec.Code)

	var info serverInfoType
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "FixMyPhone Edge", info.Software)
	assert.Equal(t, "https://fixmyphone.app", info.OriginURL)
	assert.Contains(t, info.Manifest, "/offline.html")
}

func TestUnknownEndpoint(t *testing.T) {
	data := newTestData(t)

	rec := doRequest(data, "GET", "/api/v1/nope", "")
	assert.Equal(t, 404, rec.Code)
}
