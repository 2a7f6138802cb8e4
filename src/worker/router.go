// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package worker

import (
	"net/http"

	"github.com/fixmyphone/edge/src/httputil"
)

// Strategy names the caching behavior applied to a request.
type Strategy string

const (
	// StrategyNavigation - network first, offline page as fallback,
	// synthesized HTML as last resort
	StrategyNavigation Strategy = "navigation"
	// StrategyCacheFirst - cache first, network on miss, SVG
	// placeholder for failed images
	StrategyCacheFirst Strategy = "cache-first"
	// StrategyAPI - network first, cache fallback for GET, synthesized
	// 503 JSON otherwise
	StrategyAPI Strategy = "api"
	// StrategyGeneric - network with cache fallback, no write-through
	StrategyGeneric Strategy = "generic"
	// StrategyPassthrough - not intercepted, relayed untouched
	StrategyPassthrough Strategy = "passthrough"
)

// Route maps a request to its strategy. It is a pure function so the
// precedence rules can be tested without any cache or network in play.
//
// Non-GET requests are only intercepted when they are API calls (the
// API strategy owns the offline queueing of mutations); every other
// non-GET request passes through.
func Route(req *http.Request, rules httputil.ClassifyRules) Strategy {
	class := httputil.Classify(req, rules)

	if req.Method != http.MethodGet {
		if class == httputil.ClassAPI {
			return StrategyAPI
		}
		return StrategyPassthrough
	}

	switch class {
	case httputil.ClassNavigation:
		return StrategyNavigation
	case httputil.ClassStatic:
		return StrategyCacheFirst
	case httputil.ClassAPI:
		return StrategyAPI
	default:
		return StrategyGeneric
	}
}
