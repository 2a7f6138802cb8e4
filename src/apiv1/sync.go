// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package apiv1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/fixmyphone/edge/src/netshare"
)

type queueItemAnswer struct {
	ID       string `json:"id"`
	Endpoint string `json:"endpoint"`
	QueuedAt int64  `json:"queuedAt"`
	Attempts int    `json:"attempts"`
}

type drainAnswer struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
	Depth  int `json:"depth"`
}

// GET /api/v1/sync - list queued offline submissions
func (data *Data) handleSync(rw http.ResponseWriter, req *http.Request) error {
	if req.Method != "GET" {
		return netshare.ErrMethodNotAllowed
	}

	items, err := data.Queue.List()
	if err != nil {
		return err
	}

	answer := make([]queueItemAnswer, 0, len(items))
	for _, item := range items {
		answer = append(answer, queueItemAnswer{
			ID:       item.ID,
			Endpoint: item.Endpoint,
			QueuedAt: item.QueuedAt.Unix(),
			Attempts: item.Attempts,
		})
	}

	var text strings.Builder
	fmt.Fprintf(&text, "queued: %d\n", len(answer))
	for _, a := range answer {
		fmt.Fprintf(&text, "%s %s attempts=%d\n", a.ID, a.Endpoint, a.Attempts)
	}

	return writeSuccess(rw, req, answer, "Sync queue", text.String())
}

// POST /api/v1/sync/drain - trigger a drain pass now
func (data *Data) handleSyncDrain(rw http.ResponseWriter, req *http.Request) error {
	if req.Method != "POST" {
		return netshare.ErrMethodNotAllowed
	}

	err := data.RateLimitAPI.CheckAndUse(netshare.GetClientAddr(req))
	if err != nil {
		return err
	}

	synced, failed := data.Drainer.Drain(req.Context())

	depth, err := data.Queue.Depth()
	if err != nil {
		return err
	}

	answer := drainAnswer{Synced: synced, Failed: failed, Depth: depth}

	text := fmt.Sprintf("synced: %d\nfailed: %d\ndepth: %d\n", synced, failed, depth)
	return writeSuccess(rw, req, answer, "Drain complete", text)
}
