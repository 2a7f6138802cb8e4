// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package apiv1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fixmyphone/edge/src/appstate"
	"github.com/fixmyphone/edge/src/netshare"
)

type storeStatus struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

type statusResponse struct {
	Worker     string                `json:"worker"`
	CacheName  string                `json:"cacheName"`
	Stores     []storeStatus         `json:"stores"`
	QueueDepth int                   `json:"queueDepth"`
	App        appstate.RuntimeState `json:"app"`
}

// GET /api/v1/status
func (data *Data) handleStatus(rw http.ResponseWriter, req *http.Request) error {
	if req.Method != "GET" {
		return netshare.ErrMethodNotAllowed
	}

	names, err := data.Stores.Names()
	if err != nil {
		return err
	}

	stores := make([]storeStatus, 0, len(names))
	for _, name := range names {
		store, err := data.Stores.Open(name)
		if err != nil {
			continue
		}
		n, err := store.Len()
		if err != nil {
			continue
		}
		stores = append(stores, storeStatus{Name: name, Entries: n})
	}

	depth, err := data.Queue.Depth()
	if err != nil {
		return err
	}

	resp := statusResponse{
		Worker:     data.Worker.State().String(),
		CacheName:  data.Worker.CacheName(),
		Stores:     stores,
		QueueDepth: depth,
		App:        data.App.State(),
	}

	var text strings.Builder
	fmt.Fprintf(&text, "worker: %s\n", resp.Worker)
	fmt.Fprintf(&text, "cacheName: %s\n", resp.CacheName)
	fmt.Fprintf(&text, "queueDepth: %d\n", resp.QueueDepth)
	fmt.Fprintf(&text, "offline: %t\n", resp.App.IsOffline)
	for _, s := range resp.Stores {
		fmt.Fprintf(&text, "store %s: %d entries\n", s.Name, s.Entries)
	}

	return writeSuccess(rw, req, resp, "Status", text.String())
}
