// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package netshare

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fixmyphone/edge/src/cachestore"
)

// Upstream fetches intercepted requests from the app origin or from an
// allow-listed cross-origin host (font/CDN providers). The per-request
// timeout is the gateway's answer to a stalled origin: a timeout is
// reported as a plain fetch error so the caller's fallback logic runs.
type Upstream struct {
	origin       *url.URL
	client       *http.Client
	allowedHosts map[string]bool
}

// NewUpstream builds an upstream client for the given origin base URL.
func NewUpstream(origin string, timeout time.Duration, allowedHosts []string) (*Upstream, error) {
	base, err := url.Parse(origin)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(allowedHosts))
	for _, host := range allowedHosts {
		allowed[strings.ToLower(host)] = true
	}

	return &Upstream{
		origin: base,
		client: &http.Client{
			Timeout: timeout,
			// The gateway relays redirects to the client untouched
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		allowedHosts: allowed,
	}, nil
}

// OriginHost returns the hostname of the configured origin.
func (u *Upstream) OriginHost() string {
	return u.origin.Hostname()
}

// AllowedHost reports whether the request targets the origin or an
// allow-listed cross-origin host. Requests to any other host bypass
// the cache controller entirely.
func (u *Upstream) AllowedHost(req *http.Request) bool {
	host := strings.ToLower(req.URL.Hostname())
	if host == "" || strings.EqualFold(host, u.origin.Hostname()) {
		// Relative request URL means same-origin
		return true
	}
	return u.allowedHosts[host]
}

// Fetch performs the network leg of a strategy: the request is
// re-targeted at the origin (or kept on its own allow-listed host) and
// the response is captured whole.
func (u *Upstream) Fetch(ctx context.Context, req *http.Request) (*cachestore.Response, error) {
	target := *req.URL
	if target.Host == "" || strings.EqualFold(target.Hostname(), u.origin.Hostname()) {
		target.Scheme = u.origin.Scheme
		target.Host = u.origin.Host
	}

	var body io.Reader
	if req.Body != nil {
		body = req.Body
	}

	outReq, err := http.NewRequestWithContext(ctx, req.Method, target.String(), body)
	if err != nil {
		return nil, err
	}

	// Forward the original headers; drop hop-by-hop ones
	outReq.Header = req.Header.Clone()
	outReq.Header.Del("Connection")
	outReq.Header.Del("Keep-Alive")
	outReq.Header.Del("Transfer-Encoding")
	outReq.Header.Del("Upgrade")

	resp, err := u.client.Do(outReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &cachestore.Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   respBody,
	}, nil
}

// FetchPath fetches an absolute path from the origin. Used by the
// install step to populate the critical resource manifest.
func (u *Upstream) FetchPath(ctx context.Context, path string) (*cachestore.Response, error) {
	req, err := http.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return u.Fetch(ctx, req)
}
