// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package main

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixmyphone/edge/src/cachestore"
	"github.com/fixmyphone/edge/src/config"
	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/syncqueue"
	"github.com/fixmyphone/edge/src/web"
	"github.com/fixmyphone/edge/src/worker"
)

// originStub stands in for the upstream origin. It serves app routes
// and icons but, like the real origin, knows nothing about the shell
// documents the edge hosts itself.
type originStub struct{}

func (originStub) Fetch(ctx context.Context, req *http.Request) (*cachestore.Response, error) {
	return originStub{}.FetchPath(ctx, req.URL.Path)
}

func (originStub) FetchPath(ctx context.Context, path string) (*cachestore.Response, error) {
	switch path {
	case "/", "/icons/icon-192x192.png", "/icons/icon-512x512.png":
		return &cachestore.Response{
			Status: 200,
			Header: http.Header{"Content-Type": []string{"text/html"}},
			Body:   []byte("origin content"),
		}, nil
	}
	return &cachestore.Response{Status: 404, Header: http.Header{}, Body: nil}, nil
}

func (originStub) AllowedHost(req *http.Request) bool { return true }

func testWebData(t *testing.T) *web.Data {
	t.Helper()
	log := logger.New(time.RFC3339)
	log.SetWriters(io.Discard, io.Discard)
	data, err := web.Load(config.Config{Log: log, Version: "1.0.0"})
	require.NoError(t, err)
	return data
}

func TestShellFetcherServesEmbeddedAssets(t *testing.T) {
	f := shellFetcher{shell: testWebData(t), upstream: originStub{}}

	resp, err := f.FetchPath(context.Background(), "/offline.html")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Body)

	// Unknown paths still go upstream
	resp, err = f.FetchPath(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, []byte("origin content"), resp.Body)
}

func TestInstallSucceedsWithDefaultManifest(t *testing.T) {
	log := logger.New(time.RFC3339)
	log.SetWriters(io.Discard, io.Discard)

	// The shipped default manifest mixes origin routes with documents
	// only the edge serves; install must resolve both.
	manifest := []string{
		"/",
		"/offline.html",
		"/manifest.json",
		"/icons/icon-192x192.png",
		"/icons/icon-512x512.png",
	}

	stores := cachestore.NewMemoryManager()
	f := shellFetcher{shell: testWebData(t), upstream: originStub{}}
	wrk := worker.New(worker.Config{
		CacheNamePrefix: "fixmyphone",
		Version:         "1.0.0",
		Manifest:        manifest,
		OfflinePath:     "/offline.html",
		APIPrefix:       "/api/",
	}, stores, f, syncqueue.NewMemoryQueue(), log)

	require.NoError(t, wrk.Install(context.Background()))

	store, err := stores.Open("fixmyphone-v1.0.0")
	require.NoError(t, err)
	n, err := store.Len()
	require.NoError(t, err)
	assert.Equal(t, len(manifest), n)

	offline, err := store.Match("/offline.html")
	require.NoError(t, err)
	assert.Equal(t, 200, offline.Status)
}
