// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package syncqueue

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/metrics"
)

// Drainer replays queued submissions against the origin. One item's
// failure never blocks the rest of the batch; only confirmed successes
// leave the queue.
type Drainer struct {
	queue       Queue
	originBase  string
	client      *http.Client
	maxAttempts int
	log         logger.Logger
}

// NewDrainer builds a drainer posting to originBase + item endpoint.
func NewDrainer(queue Queue, originBase string, timeout time.Duration, maxAttempts int, log logger.Logger) *Drainer {
	return &Drainer{
		queue:       queue,
		originBase:  strings.TrimSuffix(originBase, "/"),
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Client exposes the HTTP client for test transports.
func (d *Drainer) Client() *http.Client {
	return d.client
}

// Drain posts every queued item once. Returns how many synced and how
// many failed this round.
func (d *Drainer) Drain(ctx context.Context) (synced, failed int) {
	items, err := d.queue.List()
	if err != nil {
		d.log.Error(fmt.Errorf("syncqueue: list: %w", err))
		return 0, 0
	}

	for _, item := range items {
		if err := d.post(ctx, item); err != nil {
			failed++
			metrics.SyncDrainTotal.WithLabelValues("failed").Inc()
			d.log.Warn("syncqueue: retry failed for " + item.Endpoint + ": " + err.Error())
			if markErr := d.queue.MarkFailed(item.ID, d.maxAttempts); markErr != nil {
				d.log.Error(markErr)
			}
			continue
		}

		synced++
		metrics.SyncDrainTotal.WithLabelValues("synced").Inc()
		if err := d.queue.Remove(item.ID); err != nil {
			d.log.Error(err)
		}
	}

	if depth, err := d.queue.Depth(); err == nil {
		metrics.SyncQueueDepth.Set(float64(depth))
	}

	if synced > 0 || failed > 0 {
		d.log.Info(fmt.Sprintf("syncqueue: drained %d, failed %d", synced, failed))
	}
	return synced, failed
}

func (d *Drainer) post(ctx context.Context, item Item) error {
	url := d.originBase + item.Endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(item.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
