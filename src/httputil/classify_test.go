// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testRules = ClassifyRules{
	APIPrefix:   "/api/",
	BackendHost: "backend.fixmyphone.app",
}

func TestClassifyPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		target string
		accept string
		want   RequestClass
	}{
		{"navigation", "/dashboard", "text/html,application/xhtml+xml", ClassNavigation},
		{"navigation wins over api prefix", "/api/page", "text/html", ClassNavigation},
		{"stylesheet", "/assets/style.css", "text/css,*/*", ClassStatic},
		{"script", "/assets/app.js", "*/*", ClassStatic},
		{"font", "/fonts/inter.woff2", "*/*", ClassStatic},
		{"image", "/icons/photo.png", "image/avif,image/webp", ClassStatic},
		{"api by prefix", "/api/repairs", "application/json", ClassAPI},
		{"api by prefix no accept", "/api/shops", "", ClassAPI},
		{"generic", "/manifest.json", "*/*", ClassGeneric},
		{"generic no extension", "/some/thing", "", ClassGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, Classify(req, testRules))
		})
	}
}

func TestClassifyBackendHost(t *testing.T) {
	req := httptest.NewRequest("GET", "https://backend.fixmyphone.app/rest/v1/repairs", nil)
	req.Header.Set("Accept", "application/json")
	assert.Equal(t, ClassAPI, Classify(req, testRules))

	// Case-insensitive hostname match
	req = httptest.NewRequest("GET", "https://Backend.FixMyPhone.app/rest/v1/repairs", nil)
	assert.Equal(t, ClassAPI, Classify(req, testRules))
}

func TestIsImageAsset(t *testing.T) {
	assert.True(t, IsImageAsset("/icons/photo.png"))
	assert.True(t, IsImageAsset("/icons/LOGO.SVG"))
	assert.False(t, IsImageAsset("/assets/app.js"))
	assert.False(t, IsImageAsset("/dashboard"))
}

func TestGetAPIResponseFormat(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/healthz", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	assert.Equal(t, FormatJSON, GetAPIResponseFormat(req))

	req = httptest.NewRequest("GET", "/api/healthz.txt", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	assert.Equal(t, FormatText, GetAPIResponseFormat(req))

	req = httptest.NewRequest("GET", "/api/healthz", nil)
	req.Header.Set("User-Agent", "curl/8.0.1")
	assert.Equal(t, FormatText, GetAPIResponseFormat(req))
}
