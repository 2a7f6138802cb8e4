
// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package web

import (
	"net/http"
)

// Pattern: /manifest.json
func (data *Data) handleManifest(rw http.ResponseWriter, req *http.Request) error {
	rw.Header().Set("Content-Type", "application/manifest+json")
	rw.Header().Set("Cache-Control", "public, max-age=3600")
	rw.Write(data.ManifestJSON)
	return nil
}

// Pattern: /sw.js
func (data *Data) handleServiceWorker(rw http.ResponseWriter, req *http.Request) error {
	rw.Header().Set("Content-Type", "application/javascript")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Service-Worker-Allowed", "/")
	rw.Write(data.SWJS)
	return nil
}

// Pattern: /offline.html
// The install manifest fetches this; it must stay cacheable.
func (data *Data) handleOfflinePage(rw http.ResponseWriter, req *http.Request) error {
	ServeWithETag(rw, req, data.OfflineHTML, "text/html; charset=utf-8", "static")
	return nil
}

// Pattern: /placeholder.svg
func (data *Data) handlePlaceholder(rw http.ResponseWriter, req *http.Request) error {
	ServeWithETag(rw, req, data.PlaceholderSVG, "image/svg+xml", "static")
	return nil
}
