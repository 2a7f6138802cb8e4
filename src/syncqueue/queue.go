// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package syncqueue holds repair submissions that failed while the
// origin was unreachable, and replays them once connectivity returns.
// The queue is durable (SQL) or in-memory, FIFO by enqueue time, and
// items leave it only on confirmed success or when parked after too
// many attempts.
package syncqueue

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Item is one deferred submission.
type Item struct {
	ID       string
	Endpoint string
	Payload  []byte
	QueuedAt time.Time
	Attempts int
	Parked   bool
}

// Queue is the collaborator contract the background sync drains:
// list queued items, remove confirmed successes, keep the rest.
type Queue interface {
	// Enqueue adds a submission for later retry.
	Enqueue(endpoint string, payload []byte) error
	// List returns all unparked items, oldest first.
	List() ([]Item, error)
	// Remove deletes an item. Removing an absent item is a no-op.
	Remove(id string) error
	// MarkFailed increments the attempt count and parks the item once
	// maxAttempts is reached (0 = never park).
	MarkFailed(id string, maxAttempts int) error
	// Depth returns the number of unparked items.
	Depth() (int, error)
}

// MemoryQueue is the in-process queue used with the memory cache
// backend and in tests.
type MemoryQueue struct {
	mu    sync.Mutex
	items []Item
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(endpoint string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, Item{
		ID:       uuid.New().String(),
		Endpoint: endpoint,
		Payload:  append([]byte(nil), payload...),
		QueuedAt: time.Now(),
	})
	return nil
}

func (q *MemoryQueue) List() ([]Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Item, 0, len(q.items))
	for _, item := range q.items {
		if !item.Parked {
			out = append(out, item)
		}
	}
	return out, nil
}

func (q *MemoryQueue) Remove(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *MemoryQueue) MarkFailed(id string, maxAttempts int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Attempts++
			if maxAttempts > 0 && q.items[i].Attempts >= maxAttempts {
				q.items[i].Parked = true
			}
			return nil
		}
	}
	return nil
}

func (q *MemoryQueue) Depth() (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	depth := 0
	for _, item := range q.items {
		if !item.Parked {
			depth++
		}
	}
	return depth, nil
}
