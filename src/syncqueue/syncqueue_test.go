// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package syncqueue

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixmyphone/edge/src/logger"

	_ "modernc.org/sqlite"
)

func testLogger() logger.Logger {
	log := logger.New("2006/01/02 15:04:05")
	log.SetWriters(io.Discard, io.Discard)
	return log
}

func sqliteQueue(t *testing.T) *SQLQueue {
	t.Helper()
	pool, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	queue, err := NewSQLQueue(pool, "sqlite")
	require.NoError(t, err)
	return queue
}

func queues(t *testing.T) map[string]Queue {
	return map[string]Queue{
		"memory": NewMemoryQueue(),
		"sqlite": sqliteQueue(t),
	}
}

func TestEnqueueListRemove(t *testing.T) {
	for name, queue := range queues(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, queue.Enqueue("/api/repairs", []byte(`{"a":1}`)))
			require.NoError(t, queue.Enqueue("/api/repairs", []byte(`{"b":2}`)))

			items, err := queue.List()
			require.NoError(t, err)
			require.Len(t, items, 2)
			assert.Equal(t, "/api/repairs", items[0].Endpoint)
			assert.NotEqual(t, items[0].ID, items[1].ID)

			require.NoError(t, queue.Remove(items[0].ID))
			depth, err := queue.Depth()
			require.NoError(t, err)
			assert.Equal(t, 1, depth)

			// Removing twice is a no-op
			assert.NoError(t, queue.Remove(items[0].ID))
		})
	}
}

func TestMarkFailedParksAtMaxAttempts(t *testing.T) {
	for name, queue := range queues(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, queue.Enqueue("/api/repairs", []byte(`{}`)))
			items, err := queue.List()
			require.NoError(t, err)
			id := items[0].ID

			require.NoError(t, queue.MarkFailed(id, 2))
			depth, err := queue.Depth()
			require.NoError(t, err)
			assert.Equal(t, 1, depth, "one failure does not park")

			require.NoError(t, queue.MarkFailed(id, 2))
			depth, err = queue.Depth()
			require.NoError(t, err)
			assert.Zero(t, depth, "item parked after max attempts")

			items, err = queue.List()
			require.NoError(t, err)
			assert.Empty(t, items, "parked items are not listed")
		})
	}
}

func TestDrainRemovesOnlySuccesses(t *testing.T) {
	queue := NewMemoryQueue()
	require.NoError(t, queue.Enqueue("/api/repairs/ok", []byte(`{"ok":1}`)))
	require.NoError(t, queue.Enqueue("/api/repairs/bad", []byte(`{"bad":1}`)))
	require.NoError(t, queue.Enqueue("/api/repairs/ok2", []byte(`{"ok":2}`)))

	drainer := NewDrainer(queue, "https://fixmyphone.app", 5*time.Second, 0, testLogger())

	httpmock.ActivateNonDefault(drainer.Client())
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder("POST", "https://fixmyphone.app/api/repairs/ok",
		httpmock.NewStringResponder(201, `{"id":"r1"}`))
	httpmock.RegisterResponder("POST", "https://fixmyphone.app/api/repairs/bad",
		httpmock.NewStringResponder(500, "boom"))
	httpmock.RegisterResponder("POST", "https://fixmyphone.app/api/repairs/ok2",
		httpmock.NewStringResponder(200, `{"id":"r2"}`))

	synced, failed := drainer.Drain(context.Background())
	assert.Equal(t, 2, synced)
	assert.Equal(t, 1, failed, "one bad item must not block the rest")

	items, err := queue.List()
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "/api/repairs/bad", items[0].Endpoint)
	assert.Equal(t, 1, items[0].Attempts)
}

func TestDrainNetworkDownKeepsEverything(t *testing.T) {
	queue := NewMemoryQueue()
	require.NoError(t, queue.Enqueue("/api/repairs", []byte(`{}`)))

	drainer := NewDrainer(queue, "https://fixmyphone.app", 5*time.Second, 0, testLogger())

	httpmock.ActivateNonDefault(drainer.Client())
	defer httpmock.DeactivateAndReset()
	// No responder registered: every POST errors

	synced, failed := drainer.Drain(context.Background())
	assert.Zero(t, synced)
	assert.Equal(t, 1, failed)

	depth, err := queue.Depth()
	require.NoError(t, err)
	assert.Equal(t, 1, depth, "nothing leaves the queue except confirmed successes")
}

func TestQueueSchemaPerDriver(t *testing.T) {
	assert.NotContains(t, queueSchema("postgres"), "BLOB", "postgres has no BLOB type")
	assert.Contains(t, queueSchema("mysql"), "MEDIUMBLOB")
	assert.Contains(t, queueSchema("mysql"), "VARCHAR(36) PRIMARY KEY")
	assert.Contains(t, queueSchema("sqlite"), "BLOB")
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	q := rebind("postgres", `UPDATE sync_queue SET parked = true WHERE id = ? AND attempts >= ?`)
	assert.Equal(t, `UPDATE sync_queue SET parked = true WHERE id = $1 AND attempts >= $2`, q)
	assert.Equal(t, `DELETE FROM sync_queue WHERE id = ?`, rebind("sqlite", `DELETE FROM sync_queue WHERE id = ?`))
}
