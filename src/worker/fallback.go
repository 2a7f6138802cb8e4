// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package worker

import (
	"encoding/json"
	"net/http"

	"github.com/fixmyphone/edge/src/cachestore"
)

// offlineHTML is the last-resort inline document for navigations when
// both network and cache miss. Always 200 so the client renders it.
const offlineHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>FixMyPhone - Offline</title>
<style>
body { font-family: sans-serif; text-align: center; padding: 3rem 1rem; color: #333; }
h1 { font-size: 1.5rem; }
</style>
</head>
<body>
<h1>You are offline</h1>
<p>FixMyPhone needs a connection for this page. Your booked repairs are still tracked and will update once you are back online.</p>
</body>
</html>
`

// placeholderSVG stands in for images that fail while offline.
const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="200" height="150" viewBox="0 0 200 150">
<rect width="200" height="150" fill="#e5e7eb"/>
<text x="100" y="75" text-anchor="middle" dominant-baseline="middle" fill="#9ca3af" font-family="sans-serif" font-size="14">offline</text>
</svg>
`

// offlineAPIMessage is the message field of the synthesized API error.
const offlineAPIMessage = "Network unavailable. Request will be retried when connection is restored."

type offlineAPIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Offline bool   `json:"offline"`
}

func synthOfflineHTML() *cachestore.Response {
	header := make(http.Header)
	header.Set("Content-Type", "text/html; charset=utf-8")
	return &cachestore.Response{
		Status: http.StatusOK,
		Header: header,
		Body:   []byte(offlineHTML),
	}
}

func synthPlaceholderSVG() *cachestore.Response {
	header := make(http.Header)
	header.Set("Content-Type", "image/svg+xml")
	return &cachestore.Response{
		Status: http.StatusOK,
		Header: header,
		Body:   []byte(placeholderSVG),
	}
}

// synthOfflineAPI builds the JSON body callers must treat as "retry
// when online", never as a server-side fault.
func synthOfflineAPI() *cachestore.Response {
	body, _ := json.Marshal(offlineAPIError{
		Error:   "Offline",
		Message: offlineAPIMessage,
		Offline: true,
	})

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &cachestore.Response{
		Status: http.StatusServiceUnavailable,
		Header: header,
		Body:   body,
	}
}
