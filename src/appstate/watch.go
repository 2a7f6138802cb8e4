// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package appstate

import (
	"context"
	"time"
)

// Prober checks whether the origin is reachable.
type Prober interface {
	Probe(ctx context.Context) bool
}

// Watcher polls connectivity and feeds transitions into a controller.
// On an offline-to-online transition it nudges the sync drain through
// the onReconnect callback.
type Watcher struct {
	ctl         *Controller
	prober      Prober
	interval    time.Duration
	onReconnect func(ctx context.Context)
}

// NewWatcher builds a connectivity watcher. onReconnect may be nil.
func NewWatcher(ctl *Controller, prober Prober, interval time.Duration, onReconnect func(ctx context.Context)) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Watcher{
		ctl:         ctl,
		prober:      prober,
		interval:    interval,
		onReconnect: onReconnect,
	}
}

// Run polls until ctx is done. It probes once immediately so the
// controller state reflects reality before the first tick.
func (w *Watcher) Run(ctx context.Context) {
	w.step(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.step(ctx)
		}
	}
}

// Step runs a single probe cycle. Exposed so an external scheduler can
// drive the watcher instead of Run's own ticker.
func (w *Watcher) Step(ctx context.Context) {
	w.step(ctx)
}

func (w *Watcher) step(ctx context.Context) {
	wasOffline := w.ctl.State().IsOffline
	online := w.prober.Probe(ctx)
	w.ctl.SetOffline(!online)

	if online && wasOffline && w.onReconnect != nil {
		w.onReconnect(ctx)
	}
}
