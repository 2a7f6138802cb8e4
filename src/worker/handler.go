// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package worker

import (
	"net/http"
	"strconv"

	"github.com/fixmyphone/edge/src/cachestore"
	"github.com/fixmyphone/edge/src/metrics"
	"github.com/fixmyphone/edge/src/netshare"
)

// ServeHTTP routes one intercepted request through its strategy. Every
// code path ends in a real response, a synthesized response, or an
// explicit error status - a handled request is never left unanswered.
func (c *Controller) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if !c.fetch.AllowedHost(req) {
		c.passthrough(rw, req)
		return
	}

	strategy := Route(req, c.cfg.rules())

	var resp *cachestore.Response
	var source Source
	var err error

	switch strategy {
	case StrategyNavigation:
		resp, source, err = c.handleNavigation(ctx, req)
	case StrategyCacheFirst:
		resp, source, err = c.handleStatic(ctx, req)
	case StrategyAPI:
		resp, source, err = c.handleAPI(ctx, req)
	case StrategyGeneric:
		resp, source, err = c.handleGeneric(ctx, req)
	default:
		c.passthrough(rw, req)
		return
	}

	metrics.WorkerRequestsTotal.WithLabelValues(string(strategy), string(source)).Inc()
	if source == SourceSynthesized || source == SourceOfflinePage {
		metrics.WorkerOfflineFallbacksTotal.WithLabelValues(string(strategy)).Inc()
	}

	if err != nil {
		c.log.HttpError(req, err)
		http.Error(rw, netshare.ErrBadGateway.Error(), http.StatusBadGateway)
		c.log.HttpRequest(req, http.StatusBadGateway)
		return
	}

	writeResponse(rw, resp)
	c.log.HttpRequest(req, resp.Status)
}

// passthrough relays a request the controller does not intercept.
func (c *Controller) passthrough(rw http.ResponseWriter, req *http.Request) {
	resp, err := c.fetch.Fetch(req.Context(), req)
	if err != nil {
		c.log.HttpError(req, err)
		http.Error(rw, netshare.ErrBadGateway.Error(), http.StatusBadGateway)
		c.log.HttpRequest(req, http.StatusBadGateway)
		return
	}

	metrics.WorkerRequestsTotal.WithLabelValues(string(StrategyPassthrough), string(SourceNetwork)).Inc()
	writeResponse(rw, resp)
	c.log.HttpRequest(req, resp.Status)
}

func writeResponse(rw http.ResponseWriter, resp *cachestore.Response) {
	for key, vals := range resp.Header {
		for _, val := range vals {
			rw.Header().Add(key, val)
		}
	}
	rw.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	rw.WriteHeader(resp.Status)
	rw.Write(resp.Body)
}
