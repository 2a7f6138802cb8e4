// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package httputil provides HTTP utility functions:
// request classification for the offline cache controller and
// content negotiation for the operational API.
package httputil

import (
	"net/http"
	"path"
	"strings"
)

// RequestClass is the routing class of an intercepted request.
// Classification is stateless: a pure function of the request,
// recomputed per request.
type RequestClass string

const (
	// ClassNavigation is an HTML page navigation
	ClassNavigation RequestClass = "navigation"
	// ClassStatic is a static asset (style, script, image, font)
	ClassStatic RequestClass = "static"
	// ClassAPI is a backend API call
	ClassAPI RequestClass = "api"
	// ClassGeneric is everything else
	ClassGeneric RequestClass = "generic"
)

// staticExtensions is the fixed set of asset extensions treated as
// static. Keep in sync with imageExtensions below.
var staticExtensions = map[string]bool{
	".css": true, ".js": true, ".mjs": true, ".map": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
}

// imageExtensions is the subset of static extensions that get an SVG
// placeholder when the network fails and the cache misses.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".svg": true, ".webp": true, ".ico": true,
}

// ClassifyRules holds the configuration the classifier needs.
type ClassifyRules struct {
	// APIPrefix marks requests whose path starts with it as API calls
	APIPrefix string
	// BackendHost marks requests to this hostname as API calls
	BackendHost string
}

// Classify maps a request to exactly one class. Precedence order,
// first match wins:
//  1. HTML navigation - Accept header indicates text/html
//  2. Static asset    - path matches the fixed extension set
//  3. API call        - path prefix or backend hostname match
//  4. Generic         - none of the above
func Classify(r *http.Request, rules ClassifyRules) RequestClass {
	if IsNavigation(r) {
		return ClassNavigation
	}
	if IsStaticAsset(r.URL.Path) {
		return ClassStatic
	}
	if isAPI(r, rules) {
		return ClassAPI
	}
	return ClassGeneric
}

// IsNavigation reports whether the request is an HTML page navigation.
func IsNavigation(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// IsStaticAsset reports whether the path names a static asset.
func IsStaticAsset(p string) bool {
	return staticExtensions[strings.ToLower(path.Ext(p))]
}

// IsImageAsset reports whether the path names an image asset.
func IsImageAsset(p string) bool {
	return imageExtensions[strings.ToLower(path.Ext(p))]
}

func isAPI(r *http.Request, rules ClassifyRules) bool {
	if rules.APIPrefix != "" && strings.HasPrefix(r.URL.Path, rules.APIPrefix) {
		return true
	}
	if rules.BackendHost != "" && strings.EqualFold(r.URL.Hostname(), rules.BackendHost) {
		return true
	}
	return false
}

// ResponseFormat represents the type of response to send
type ResponseFormat string

const (
	FormatJSON ResponseFormat = "application/json"
	FormatText ResponseFormat = "text/plain"
	FormatHTML ResponseFormat = "text/html"
)

// IsHttpTool detects HTTP tools (curl, wget, httpie, etc.)
// HTTP tools are NON-INTERACTIVE - they just dump output
func IsHttpTool(r *http.Request) bool {
	ua := strings.ToLower(r.Header.Get("User-Agent"))

	httpTools := []string{
		"curl/", "wget/", "httpie/",
		"libcurl/", "python-requests/",
		"go-http-client/", "axios/", "node-fetch/",
	}
	for _, tool := range httpTools {
		if strings.Contains(ua, tool) {
			return true
		}
	}

	// No User-Agent = likely HTTP tool (non-interactive)
	return ua == ""
}

// GetAPIResponseFormat determines format for /api/** routes
func GetAPIResponseFormat(r *http.Request) ResponseFormat {
	// 1. Check .txt extension
	if strings.HasSuffix(r.URL.Path, ".txt") {
		return FormatText
	}

	// 2. Check Accept header
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "text/plain") {
		return FormatText
	}

	// 3. HTTP tools get pre-formatted text
	if IsHttpTool(r) {
		return FormatText
	}

	// 4. Default to JSON
	return FormatJSON
}

// StripTxtExtension removes .txt extension from path if present
func StripTxtExtension(p string) string {
	return strings.TrimSuffix(p, ".txt")
}
