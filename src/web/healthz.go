// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fixmyphone/edge/src/netshare"
)

var startTime = time.Now()

// Pattern: /healthz
// HTML frontend; /api/v1/healthz serves the JSON variant.
func (data *Data) handleHealthz(rw http.ResponseWriter, req *http.Request) error {
	if req.Method != "GET" {
		return netshare.ErrMethodNotAllowed
	}

	uptime := int64(time.Since(startTime).Seconds())

	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.Header().Set("Cache-Control", "no-store")

	_, err := fmt.Fprintf(rw,
		"<!DOCTYPE html>\n<html><head><title>%s - Health</title></head>\n"+
			"<body><h1>%s</h1>\n"+
			"<p>Status: healthy</p>\n"+
			"<p>Version: %s</p>\n"+
			"<p>Uptime: %ds</p>\n"+
			"</body></html>\n",
		data.ServerTitle, data.ServerTitle, data.Version, uptime)
	return err
}

// Pattern: /robots.txt
// The edge is an app shell, not a content site; crawlers get the root
// and nothing under the API namespace.
func (data *Data) handleRobotsTxt(rw http.ResponseWriter, req *http.Request) error {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")

	_, err := fmt.Fprint(rw, "User-agent: *\nAllow: /\nDisallow: /api/\n")
	return err
}
