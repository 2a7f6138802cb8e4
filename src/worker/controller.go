// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/fixmyphone/edge/src/cachestore"
	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/metrics"
)

// State of the controller lifecycle.
type State int

const (
	// StateNew - constructed, nothing cached yet
	StateNew State = iota
	// StateInstalled - critical manifest cached, ready to activate
	StateInstalled
	// StateActive - owns traffic, stale version stores purged
	StateActive
)

func (s State) String() string {
	switch s {
	case StateInstalled:
		return "installed"
	case StateActive:
		return "active"
	default:
		return "new"
	}
}

// Controller is the offline cache controller.
type Controller struct {
	cfg    Config
	stores cachestore.Manager
	fetch  Fetcher
	queue  Enqueuer
	log    logger.Logger

	mu    sync.Mutex
	state State
	store cachestore.Store
}

// New constructs a controller. queue may be nil if offline mutations
// should not be queued for retry.
func New(cfg Config, stores cachestore.Manager, fetch Fetcher, queue Enqueuer, log logger.Logger) *Controller {
	return &Controller{
		cfg:    cfg,
		stores: stores,
		fetch:  fetch,
		queue:  queue,
		log:    log,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CacheName returns the store name this controller serves from.
func (c *Controller) CacheName() string {
	return c.cfg.CacheName()
}

// Install fetches the whole critical resource manifest and writes it
// into this version's store. All-or-nothing: if any resource cannot be
// fetched, no store for this version is left behind and the error is
// returned so the previous version keeps serving.
//
// A successful install is the skip-waiting signal: callers should
// Activate immediately instead of waiting for in-flight traffic to
// drain.
func (c *Controller) Install(ctx context.Context) error {
	name := c.cfg.CacheName()

	// Fetch everything before touching the store so a partial critical
	// cache never exists under the current version's name
	fetched := make(map[string]*cachestore.Response, len(c.cfg.Manifest))
	for _, path := range c.cfg.Manifest {
		resp, err := c.fetch.FetchPath(ctx, path)
		if err != nil {
			return fmt.Errorf("worker: install %s: fetch %s: %w", name, path, err)
		}
		if resp.Status < 200 || resp.Status >= 300 {
			return fmt.Errorf("worker: install %s: fetch %s: status %d", name, path, resp.Status)
		}
		fetched[path] = resp
	}

	store, err := c.stores.Open(name)
	if err != nil {
		return fmt.Errorf("worker: install %s: %w", name, err)
	}

	for _, path := range c.cfg.Manifest {
		if err := store.Put(path, fetched[path]); err != nil {
			// Roll back: a partially written store must never be
			// treated as this version's active cache
			if delErr := c.stores.Delete(name); delErr != nil {
				c.log.Error(fmt.Errorf("worker: install rollback of %s: %w", name, delErr))
			}
			return fmt.Errorf("worker: install %s: store %s: %w", name, path, err)
		}
	}

	c.mu.Lock()
	c.store = store
	if c.state == StateNew {
		c.state = StateInstalled
	}
	c.mu.Unlock()

	c.log.Info("worker: installed cache " + name)
	return nil
}

// Activate deletes every store that does not belong to this version
// and takes over traffic. Idempotent: activating twice leaves exactly
// one store. Cleanup failures are logged, not fatal - serving with a
// stale sibling store present beats refusing to serve.
func (c *Controller) Activate(ctx context.Context) error {
	name := c.cfg.CacheName()

	names, err := c.stores.Names()
	if err != nil {
		c.log.Error(fmt.Errorf("worker: activate %s: list stores: %w", name, err))
	} else {
		for _, stale := range names {
			if stale == name {
				continue
			}
			if err := c.stores.Delete(stale); err != nil {
				c.log.Error(fmt.Errorf("worker: activate %s: purge %s: %w", name, stale, err))
			} else {
				metrics.CacheStoresPurgedTotal.Inc()
				c.log.Info("worker: purged stale cache " + stale)
			}
		}
	}

	// Make sure this version's store exists even if Install was never
	// run in this process (e.g. durable store from a previous run)
	store, err := c.stores.Open(name)
	if err != nil {
		return fmt.Errorf("worker: activate %s: %w", name, err)
	}

	c.mu.Lock()
	c.store = store
	c.state = StateActive
	c.mu.Unlock()

	c.log.Info("worker: activated, serving from " + name)
	return nil
}

func (c *Controller) currentStore() cachestore.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}
