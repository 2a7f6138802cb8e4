// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package worker

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/fixmyphone/edge/src/cachestore"
	"github.com/fixmyphone/edge/src/httputil"
)

// Source records where a strategy's response came from.
type Source string

const (
	// SourceNetwork - live response from the origin
	SourceNetwork Source = "network"
	// SourceCache - served from the current cache store
	SourceCache Source = "cache"
	// SourceOfflinePage - the dedicated offline page from cache
	SourceOfflinePage Source = "offline-page"
	// SourceSynthesized - inline fallback built by the controller
	SourceSynthesized Source = "synthesized"
	// SourceError - no response; error propagated to the transport
	SourceError Source = "error"
)

// statusOK reports whether an upstream status counts as a success for
// write-through caching.
func statusOK(status int) bool {
	return status >= 200 && status < 300
}

// cacheKey derives the store key for a request. Same-origin requests
// key by path+query; allow-listed cross-origin requests keep the full
// URL so two hosts never collide on a path.
func cacheKey(req *http.Request) string {
	if req.URL.Host == "" {
		return req.URL.RequestURI()
	}
	return req.URL.String()
}

// handleNavigation is network-first-with-offline-fallback. An HTML
// request always produces something renderable: live page, cached
// page, cached offline page, or the inline offline document.
func (c *Controller) handleNavigation(ctx context.Context, req *http.Request) (*cachestore.Response, Source, error) {
	key := cacheKey(req)
	store := c.currentStore()

	resp, err := c.fetch.Fetch(ctx, req)
	if err == nil && statusOK(resp.Status) {
		if store != nil {
			if putErr := store.Put(key, resp); putErr != nil {
				c.log.Error(putErr)
			}
		}
		return resp, SourceNetwork, nil
	}

	if store != nil {
		if cached, matchErr := store.Match(key); matchErr == nil {
			return cached, SourceCache, nil
		}
		if offline, matchErr := store.Match(c.cfg.OfflinePath); matchErr == nil {
			return offline, SourceOfflinePage, nil
		}
	}

	return synthOfflineHTML(), SourceSynthesized, nil
}

// handleStatic is cache-first: a cached asset is served without any
// network round-trip. On a miss the asset is fetched and written
// through; a failed image fetch degrades to an inline SVG placeholder,
// anything else propagates the error - there is no safe placeholder
// for a script or stylesheet.
func (c *Controller) handleStatic(ctx context.Context, req *http.Request) (*cachestore.Response, Source, error) {
	key := cacheKey(req)
	store := c.currentStore()

	if store != nil {
		if cached, matchErr := store.Match(key); matchErr == nil {
			return cached, SourceCache, nil
		}
	}

	resp, err := c.fetch.Fetch(ctx, req)
	if err == nil {
		if statusOK(resp.Status) && store != nil {
			if putErr := store.Put(key, resp); putErr != nil {
				c.log.Error(putErr)
			}
		}
		return resp, SourceNetwork, nil
	}

	if httputil.IsImageAsset(req.URL.Path) {
		return synthPlaceholderSVG(), SourceSynthesized, nil
	}
	return nil, SourceError, err
}

// handleAPI is network-first-with-cache-fallback. Only successful GET
// responses are written through - mutating methods are never cached.
// When the network fails: a GET with a cache hit returns the cached
// bytes unchanged; a mutating request with a body is queued for
// background sync; everything else gets the synthesized 503 envelope.
func (c *Controller) handleAPI(ctx context.Context, req *http.Request) (*cachestore.Response, Source, error) {
	key := cacheKey(req)
	store := c.currentStore()

	// Buffer mutating payloads up front so the request can still be
	// queued after the network attempt consumed the body
	var payload []byte
	if req.Method != http.MethodGet && req.Body != nil {
		var err error
		payload, err = io.ReadAll(req.Body)
		if err == nil {
			req.Body = io.NopCloser(bytes.NewReader(payload))
		}
	}

	resp, err := c.fetch.Fetch(ctx, req)
	if err == nil {
		if req.Method == http.MethodGet && statusOK(resp.Status) && store != nil {
			if putErr := store.Put(key, resp); putErr != nil {
				c.log.Error(putErr)
			}
		}
		return resp, SourceNetwork, nil
	}

	if req.Method == http.MethodGet {
		if store != nil {
			if cached, matchErr := store.Match(key); matchErr == nil {
				return cached, SourceCache, nil
			}
		}
	} else if c.queue != nil && len(payload) > 0 {
		if qErr := c.queue.Enqueue(req.URL.RequestURI(), payload); qErr != nil {
			c.log.Error(qErr)
		} else {
			c.log.Info("worker: queued offline submission for " + req.URL.RequestURI())
		}
	}

	return synthOfflineAPI(), SourceSynthesized, nil
}

// handleGeneric is network-with-cache-fallback without write-through:
// unclassified content is never written to the cache by this path.
func (c *Controller) handleGeneric(ctx context.Context, req *http.Request) (*cachestore.Response, Source, error) {
	resp, err := c.fetch.Fetch(ctx, req)
	if err == nil {
		return resp, SourceNetwork, nil
	}

	if store := c.currentStore(); store != nil {
		if cached, matchErr := store.Match(cacheKey(req)); matchErr == nil {
			return cached, SourceCache, nil
		}
	}

	return nil, SourceError, err
}
