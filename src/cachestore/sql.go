// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package cachestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Default query timeouts
const (
	defaultQueryTimeout = 5 * time.Second
	defaultListTimeout  = 10 * time.Second
)

// SQLManager persists stores in a relational database so cached
// responses survive restarts. sqlite is the usual backend; postgres
// and mysql are supported for deployments that already run one.
type SQLManager struct {
	pool   *sql.DB
	driver string
}

// driverName maps config driver names to registered sql drivers.
func driverName(driver string) string {
	switch driver {
	case "postgres":
		return "pgx"
	case "sqlite3":
		return "sqlite"
	default:
		return driver
	}
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

// schemaStatements returns the DDL for the configured driver.
// Column types differ: postgres has no BLOB (BYTEA), and mysql
// cannot index unsized TEXT so key columns use VARCHAR.
func schemaStatements(driver string) []string {
	switch driver {
	case "mysql", "mariadb":
		return []string{`
			CREATE TABLE IF NOT EXISTS cache_stores (
				name        VARCHAR(255) PRIMARY KEY,
				create_time BIGINT NOT NULL
			)`, `
			CREATE TABLE IF NOT EXISTS cache_entries (
				store_name VARCHAR(255) NOT NULL,
				url_key    VARCHAR(500) NOT NULL,
				status     INT        NOT NULL,
				headers    TEXT       NOT NULL,
				body       MEDIUMBLOB NOT NULL,
				put_time   BIGINT     NOT NULL,
				PRIMARY KEY (store_name, url_key)
			)`,
		}

	case "postgres":
		return []string{`
			CREATE TABLE IF NOT EXISTS cache_stores (
				name        TEXT   PRIMARY KEY,
				create_time BIGINT NOT NULL
			)`, `
			CREATE TABLE IF NOT EXISTS cache_entries (
				store_name TEXT    NOT NULL,
				url_key    TEXT    NOT NULL,
				status     INTEGER NOT NULL,
				headers    TEXT    NOT NULL,
				body       BYTEA   NOT NULL,
				put_time   BIGINT  NOT NULL,
				PRIMARY KEY (store_name, url_key)
			)`,
		}

	// SQLite
	default:
		return []string{`
			CREATE TABLE IF NOT EXISTS cache_stores (
				name        TEXT    PRIMARY KEY,
				create_time INTEGER NOT NULL
			)`, `
			CREATE TABLE IF NOT EXISTS cache_entries (
				store_name TEXT    NOT NULL,
				url_key    TEXT    NOT NULL,
				status     INTEGER NOT NULL,
				headers    TEXT    NOT NULL,
				body       BLOB    NOT NULL,
				put_time   INTEGER NOT NULL,
				PRIMARY KEY (store_name, url_key)
			)`,
		}
	}
}

// NewSQLManager opens the backing database and creates the schema if
// it does not exist yet.
func NewSQLManager(driver, source string, maxOpenConns, maxIdleConns int) (*SQLManager, error) {
	pool, err := sql.Open(driverName(driver), source)
	if err != nil {
		return nil, err
	}

	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxIdleConns)

	// Prevent stale connections
	pool.SetConnMaxLifetime(time.Hour)
	pool.SetConnMaxIdleTime(10 * time.Minute)

	m := &SQLManager{pool: pool, driver: driver}
	if err := m.initSchema(); err != nil {
		pool.Close()
		return nil, err
	}
	return m, nil
}

func (m *SQLManager) initSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultListTimeout)
	defer cancel()

	// cache_stores tracks store existence independent of entries so an
	// empty store created by Open still shows up in Names
	for _, stmt := range schemaStatements(m.driver) {
		if _, err := m.pool.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("cachestore: create schema: %w", err)
		}
	}
	return nil
}

func (m *SQLManager) Open(name string) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	// Register the store; the existence check keeps Open idempotent
	// without INSERT ... ON CONFLICT syntax differences.
	exists, err := m.Has(name)
	if err != nil {
		return nil, err
	}
	if !exists {
		_, err = m.pool.ExecContext(ctx,
			rebind(m.driver, `INSERT INTO cache_stores (name, create_time) VALUES (?, ?)`),
			name, time.Now().Unix(),
		)
		if err != nil {
			return nil, err
		}
	}

	return &sqlStore{pool: m.pool, driver: m.driver, name: name}, nil
}

func (m *SQLManager) Names() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultListTimeout)
	defer cancel()

	rows, err := m.pool.QueryContext(ctx, `SELECT name FROM cache_stores`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (m *SQLManager) Delete(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultListTimeout)
	defer cancel()

	// Entries first, then the store row; both statements are no-ops
	// for an absent store
	if _, err := m.pool.ExecContext(ctx,
		rebind(m.driver, `DELETE FROM cache_entries WHERE store_name = ?`), name); err != nil {
		return err
	}
	_, err := m.pool.ExecContext(ctx,
		rebind(m.driver, `DELETE FROM cache_stores WHERE name = ?`), name)
	return err
}

func (m *SQLManager) Has(name string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	var found string
	err := m.pool.QueryRowContext(ctx,
		rebind(m.driver, `SELECT name FROM cache_stores WHERE name = ?`), name).Scan(&found)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *SQLManager) Close() error {
	return m.pool.Close()
}

// Pool exposes the underlying connection pool so collaborators (the
// sync queue) can share the same database.
func (m *SQLManager) Pool() *sql.DB {
	return m.pool
}

// Driver returns the normalized driver name the pool was opened with.
func (m *SQLManager) Driver() string {
	return m.driver
}

type sqlStore struct {
	pool   *sql.DB
	driver string
	name   string
}

func (s *sqlStore) Match(key string) (*Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	var status int
	var headersJSON string
	var body []byte
	err := s.pool.QueryRowContext(ctx,
		rebind(s.driver, `SELECT status, headers, body FROM cache_entries
		WHERE store_name = ? AND url_key = ?`),
		s.name, key).Scan(&status, &headersJSON, &body)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	if err := json.Unmarshal([]byte(headersJSON), &header); err != nil {
		return nil, fmt.Errorf("cachestore: corrupt headers for %s: %w", key, err)
	}

	return &Response{Status: status, Header: header, Body: body}, nil
}

func (s *sqlStore) Put(key string, resp *Response) error {
	headersJSON, err := json.Marshal(resp.Header)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	// Overwrite semantics: delete-then-insert keeps the statement
	// portable across sqlite, postgres and mysql
	if _, err := s.pool.ExecContext(ctx,
		rebind(s.driver, `DELETE FROM cache_entries WHERE store_name = ? AND url_key = ?`),
		s.name, key); err != nil {
		return err
	}
	_, err = s.pool.ExecContext(ctx,
		rebind(s.driver, `INSERT INTO cache_entries (store_name, url_key, status, headers, body, put_time)
		VALUES (?, ?, ?, ?, ?, ?)`),
		s.name, key, resp.Status, string(headersJSON), resp.Body, time.Now().Unix(),
	)
	return err
}

func (s *sqlStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	_, err := s.pool.ExecContext(ctx,
		rebind(s.driver, `DELETE FROM cache_entries WHERE store_name = ? AND url_key = ?`),
		s.name, key)
	return err
}

func (s *sqlStore) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultListTimeout)
	defer cancel()

	rows, err := s.pool.QueryContext(ctx,
		rebind(s.driver, `SELECT url_key FROM cache_entries WHERE store_name = ?`), s.name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *sqlStore) Len() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultQueryTimeout)
	defer cancel()

	var count int
	err := s.pool.QueryRowContext(ctx,
		rebind(s.driver, `SELECT COUNT(*) FROM cache_entries WHERE store_name = ?`), s.name).Scan(&count)
	return count, err
}
