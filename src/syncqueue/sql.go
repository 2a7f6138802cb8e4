// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package syncqueue

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultQueryTimeout = 5 * time.Second

// SQLQueue persists items in the same database as the durable cache
// store, so queued submissions survive restarts.
type SQLQueue struct {
	pool   *sql.DB
	driver string
}

// rebind converts ? placeholders to the $N form postgres requires.
// sqlite and mysql take ? as-is.
func rebind(driver, query string) string {
	if driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

// queueSchema returns the DDL for the configured driver.
// postgres has no BLOB (BYTEA); mysql BLOB caps at 64KB so payloads
// go in a MEDIUMBLOB.
func queueSchema(driver string) string {
	switch driver {
	case "mysql", "mariadb":
		return `
			CREATE TABLE IF NOT EXISTS sync_queue (
				id        VARCHAR(36) PRIMARY KEY,
				endpoint  TEXT       NOT NULL,
				payload   MEDIUMBLOB NOT NULL,
				queued_at BIGINT     NOT NULL,
				attempts  INT        NOT NULL DEFAULT 0,
				parked    BOOLEAN    NOT NULL DEFAULT false
			)`

	case "postgres":
		return `
			CREATE TABLE IF NOT EXISTS sync_queue (
				id        TEXT    PRIMARY KEY,
				endpoint  TEXT    NOT NULL,
				payload   BYTEA   NOT NULL,
				queued_at BIGINT  NOT NULL,
				attempts  INTEGER NOT NULL DEFAULT 0,
				parked    BOOLEAN NOT NULL DEFAULT false
			)`

	// SQLite
	default:
		return `
			CREATE TABLE IF NOT EXISTS sync_queue (
				id        TEXT    PRIMARY KEY,
				endpoint  TEXT    NOT NULL,
				payload   BLOB    NOT NULL,
				queued_at INTEGER NOT NULL,
				attempts  INTEGER NOT NULL DEFAULT 0,
				parked    BOOL    NOT NULL DEFAULT 0
			)`
	}
}

// NewSQLQueue creates the schema if needed. The pool is shared with
// the cache store manager and closed by it; driver is the manager's
// normalized driver name.
func NewSQLQueue(pool *sql.DB, driver string) (*SQLQueue, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	if _, err := pool.ExecContext(ctx, queueSchema(driver)); err != nil {
		return nil, fmt.Errorf("syncqueue: create schema: %w", err)
	}

	return &SQLQueue{pool: pool, driver: driver}, nil
}

func (q *SQLQueue) Enqueue(endpoint string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	_, err := q.pool.ExecContext(ctx,
		rebind(q.driver, `INSERT INTO sync_queue (id, endpoint, payload, queued_at, attempts, parked)
		VALUES (?, ?, ?, ?, 0, false)`),
		uuid.New().String(), endpoint, payload, time.Now().Unix(),
	)
	return err
}

func (q *SQLQueue) List() ([]Item, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	rows, err := q.pool.QueryContext(ctx,
		`SELECT id, endpoint, payload, queued_at, attempts FROM sync_queue
		WHERE parked = false ORDER BY queued_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var queuedAt int64
		if err := rows.Scan(&item.ID, &item.Endpoint, &item.Payload, &queuedAt, &item.Attempts); err != nil {
			return nil, err
		}
		item.QueuedAt = time.Unix(queuedAt, 0)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (q *SQLQueue) Remove(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	_, err := q.pool.ExecContext(ctx,
		rebind(q.driver, `DELETE FROM sync_queue WHERE id = ?`), id)
	return err
}

func (q *SQLQueue) MarkFailed(id string, maxAttempts int) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	if _, err := q.pool.ExecContext(ctx,
		rebind(q.driver, `UPDATE sync_queue SET attempts = attempts + 1 WHERE id = ?`), id); err != nil {
		return err
	}

	if maxAttempts > 0 {
		_, err := q.pool.ExecContext(ctx,
			rebind(q.driver, `UPDATE sync_queue SET parked = true WHERE id = ? AND attempts >= ?`),
			id, maxAttempts)
		return err
	}
	return nil
}

func (q *SQLQueue) Depth() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	var depth int
	err := q.pool.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sync_queue WHERE parked = false`).Scan(&depth)
	return depth, err
}
