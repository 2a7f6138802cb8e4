
// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package apiv1

import (
	"net/http"

	"github.com/fixmyphone/edge/src/appstate"
	"github.com/fixmyphone/edge/src/cachestore"
	"github.com/fixmyphone/edge/src/config"
	"github.com/fixmyphone/edge/src/httputil"
	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/netshare"
	"github.com/fixmyphone/edge/src/notify"
	"github.com/fixmyphone/edge/src/syncqueue"
	"github.com/fixmyphone/edge/src/worker"
)

type Data struct {
	Log logger.Logger

	Stores  cachestore.Manager
	Queue   syncqueue.Queue
	Drainer *syncqueue.Drainer

	Worker   *worker.Controller
	App      *appstate.Controller
	Notifier *notify.Notifier

	RateLimitAPI *netshare.RateLimitSystem

	Version string

	AdminName string
	AdminMail string

	OriginURL    string
	CacheVersion string
	Manifest     []string
}

func Load(stores cachestore.Manager, queue syncqueue.Queue, drainer *syncqueue.Drainer,
	wrk *worker.Controller, app *appstate.Controller, notifier *notify.Notifier, cfg config.Config) *Data {
	return &Data{
		Log:          cfg.Log,
		Stores:       stores,
		Queue:        queue,
		Drainer:      drainer,
		Worker:       wrk,
		App:          app,
		Notifier:     notifier,
		RateLimitAPI: cfg.RateLimitAPI,
		Version:      cfg.Version,
		AdminName:    cfg.AdminName,
		AdminMail:    cfg.AdminMail,
		OriginURL:    cfg.OriginURL,
		CacheVersion: cfg.CacheVersion,
		Manifest:     cfg.Manifest,
	}
}

func (data *Data) Hand(rw http.ResponseWriter, req *http.Request) {
	// Process request
	var err error

	rw.Header().Set("Server", config.Software+"/"+data.Version)

	// A .txt suffix on any endpoint requests the plain text rendering;
	// the format itself is negotiated per handler
	switch httputil.StripTxtExtension(req.URL.Path) {
	case "/api/v1/healthz":
		err = data.handleHealthz(rw, req)
	case "/api/v1/status":
		err = data.handleStatus(rw, req)
	case "/api/v1/sync":
		err = data.handleSync(rw, req)
	case "/api/v1/sync/drain":
		err = data.handleSyncDrain(rw, req)
	case "/api/v1/notify":
		err = data.handleNotify(rw, req)
	case "/api/v1/getServerInfo":
		err = data.getServerInfoHand(rw, req)
	default:
		err = netshare.ErrNotFound
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
