// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package scheduler

import (
	"context"
	"strconv"

	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/syncqueue"
)

// RegisterSyncDrain schedules the background sync drain. Each run
// POSTs queued offline submissions to the origin; per-item failures
// never abort the run.
func (s *Scheduler) RegisterSyncDrain(drainer *syncqueue.Drainer, period string, log logger.Logger) error {
	if period == "" {
		period = "1m"
	}
	return s.AddTask(&Task{
		ID:          "sync-drain",
		Name:        "Sync queue drain",
		Description: "Replays queued offline repair submissions to the origin",
		Schedule:    "@every " + period,
		Enabled:     true,
		Skippable:   true,
		Handler: func(ctx context.Context) error {
			synced, failed := drainer.Drain(ctx)
			if synced > 0 || failed > 0 {
				log.Info("sync drain: " + strconv.Itoa(synced) + " synced, " + strconv.Itoa(failed) + " failed")
			}
			return nil
		},
	})
}

// RegisterCacheMaintenance schedules a periodic pass that refreshes
// the cache store entry gauges.
func (s *Scheduler) RegisterCacheMaintenance(report func(ctx context.Context) error, period string) error {
	if period == "" {
		period = "5m"
	}
	return s.AddTask(&Task{
		ID:          "cache-maintenance",
		Name:        "Cache store maintenance",
		Description: "Refreshes cache store entry counts",
		Schedule:    "@every " + period,
		Enabled:     true,
		Skippable:   true,
		Handler:     report,
	})
}

// RegisterConnectivityProbe runs the connectivity step on the
// scheduler so transitions are observed even when the watcher
// goroutine is not used.
func (s *Scheduler) RegisterConnectivityProbe(step func(ctx context.Context), period string) error {
	if period == "" {
		period = "30s"
	}
	return s.AddTask(&Task{
		ID:          "connectivity-probe",
		Name:        "Connectivity probe",
		Description: "Probes the origin and updates the offline state",
		Schedule:    "@every " + period,
		Enabled:     true,
		Skippable:   true,
		Handler: func(ctx context.Context) error {
			step(ctx)
			return nil
		},
	})
}
