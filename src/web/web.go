// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package web serves the app shell assets the edge hosts itself: the
// PWA manifest, the page worker stub, the offline fallback page and
// the image placeholder. These are the same documents the cache
// controller's install manifest points at.
package web

import (
	"embed"
	"net/http"

	"github.com/fixmyphone/edge/src/config"
	"github.com/fixmyphone/edge/src/logger"
)

//go:embed data/*
var embFS embed.FS

type Data struct {
	Log logger.Logger

	OfflineHTML    []byte
	ManifestJSON   []byte
	SWJS           []byte
	PlaceholderSVG []byte

	Version string

	// Server info
	FQDN        string
	ServerTitle string
	AdminName   string
	AdminMail   string
}

func Load(cfg config.Config) (*Data, error) {
	var data Data
	var err error

	// Setup base info
	data.Log = cfg.Log
	data.Version = cfg.Version
	data.FQDN = cfg.FQDN
	data.ServerTitle = cfg.ServerTitle
	data.AdminName = cfg.AdminName
	data.AdminMail = cfg.AdminMail

	// offline.html
	data.OfflineHTML, err = embFS.ReadFile("data/offline.html")
	if err != nil {
		return nil, err
	}

	// manifest.json
	data.ManifestJSON, err = embFS.ReadFile("data/manifest.json")
	if err != nil {
		return nil, err
	}

	// sw.js
	data.SWJS, err = embFS.ReadFile("data/sw.js")
	if err != nil {
		return nil, err
	}

	// placeholder.svg
	data.PlaceholderSVG, err = embFS.ReadFile("data/placeholder.svg")
	if err != nil {
		return nil, err
	}

	return &data, nil
}

func (data *Data) Handler(rw http.ResponseWriter, req *http.Request) {
	// Process request
	var err error

	rw.Header().Set("Server", config.Software+"/"+data.Version)

	switch req.URL.Path {
	// Health check, HTML frontend; /api/v1/healthz serves JSON
	case "/healthz":
		err = data.handleHealthz(rw, req)
	// Search engines
	case "/robots.txt":
		err = data.handleRobotsTxt(rw, req)
	case "/favicon.ico":
		err = data.handleFavicon(rw, req)
	// PWA support
	case "/manifest.json":
		err = data.handleManifest(rw, req)
	case "/sw.js":
		err = data.handleServiceWorker(rw, req)
	case "/offline.html":
		err = data.handleOfflinePage(rw, req)
	case "/placeholder.svg":
		err = data.handlePlaceholder(rw, req)
	default:
		err = errNotFound
	}

	// Log
	if err == nil {
		data.Log.HttpRequest(req, 200)

	} else {
		// Log the original error before writing HTTP response
		data.Log.HttpError(req, err)

		code, writeErr := data.writeError(rw, req, err)
		if writeErr != nil {
			data.Log.HttpError(req, writeErr)
		}
		data.Log.HttpRequest(req, code)
	}
}

// Handles reports whether the path is one of the self-hosted assets,
// so the server can route them here instead of the cache layer.
func (data *Data) Handles(path string) bool {
	switch path {
	case "/healthz", "/robots.txt", "/favicon.ico",
		"/manifest.json", "/sw.js", "/offline.html", "/placeholder.svg":
		return true
	}
	return false
}

// Asset returns the raw body and content type of a self-hosted shell
// document. The cache controller's install step uses this to fill the
// store without a network round trip: these documents live here, not
// at the origin.
func (data *Data) Asset(path string) ([]byte, string, bool) {
	switch path {
	case "/offline.html":
		return data.OfflineHTML, "text/html; charset=utf-8", true
	case "/manifest.json":
		return data.ManifestJSON, "application/manifest+json", true
	case "/sw.js":
		return data.SWJS, "application/javascript", true
	case "/placeholder.svg":
		return data.PlaceholderSVG, "image/svg+xml", true
	}
	return nil, "", false
}
