// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package worker implements the offline cache controller: the
// request-intercepting layer that keeps the app shell and previously
// seen resources usable when the origin is unreachable.
//
// Lifecycle mirrors the installable-app model: Install populates a
// freshly named cache store from the critical resource manifest
// (all-or-nothing), Activate purges every store belonging to another
// version and takes over traffic, and the active controller routes
// each request through exactly one caching strategy.
package worker

import (
	"context"
	"net/http"

	"github.com/fixmyphone/edge/src/cachestore"
	"github.com/fixmyphone/edge/src/httputil"
)

// Fetcher is the network side of a strategy.
type Fetcher interface {
	// Fetch performs the upstream request and captures the response.
	Fetch(ctx context.Context, req *http.Request) (*cachestore.Response, error)
	// FetchPath fetches an absolute origin path (install manifest).
	FetchPath(ctx context.Context, path string) (*cachestore.Response, error)
	// AllowedHost reports whether the request's host is intercepted.
	AllowedHost(req *http.Request) bool
}

// Enqueuer receives mutating API requests that failed offline, so a
// later background sync can retry them. May be nil.
type Enqueuer interface {
	Enqueue(endpoint string, payload []byte) error
}

// Config is the injected controller configuration. The version is
// passed in rather than hardcoded so multiple versions can coexist in
// tests and during rollout.
type Config struct {
	// CacheNamePrefix is the app identity, e.g. "fixmyphone"
	CacheNamePrefix string
	// Version of the deployed app, e.g. "1.0.0"
	Version string
	// Manifest is the ordered critical resource list cached at install
	Manifest []string
	// OfflinePath is the dedicated offline page path (part of Manifest)
	OfflinePath string
	// APIPrefix marks API calls by path
	APIPrefix string
	// BackendHost marks API calls by hostname
	BackendHost string
}

// CacheName returns the versioned store name, e.g. "fixmyphone-v1.0.0".
func (c Config) CacheName() string {
	return c.CacheNamePrefix + "-v" + c.Version
}

func (c Config) rules() httputil.ClassifyRules {
	return httputil.ClassifyRules{
		APIPrefix:   c.APIPrefix,
		BackendHost: c.BackendHost,
	}
}
