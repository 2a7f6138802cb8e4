// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package cachestore

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResponse() *Response {
	header := make(http.Header)
	header.Set("Content-Type", "text/css")
	header.Set("ETag", `"abc123"`)
	return &Response{
		Status: http.StatusOK,
		Header: header,
		Body:   []byte("body { margin: 0 }"),
	}
}

func managers(t *testing.T) map[string]Manager {
	t.Helper()

	sqlMgr, err := NewSQLManager("sqlite", filepath.Join(t.TempDir(), "cache.db"), 1, 1)
	require.NoError(t, err)
	t.Cleanup(func() { sqlMgr.Close() })

	return map[string]Manager{
		"memory": NewMemoryManager(),
		"sqlite": sqlMgr,
	}
}

func TestRoundTrip(t *testing.T) {
	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			store, err := mgr.Open("fixmyphone-v1.0.0")
			require.NoError(t, err)

			want := sampleResponse()
			require.NoError(t, store.Put("/style.css", want))

			got, err := store.Match("/style.css")
			require.NoError(t, err)
			assert.Equal(t, want.Status, got.Status)
			assert.Equal(t, want.Body, got.Body)
			assert.Equal(t, "text/css", got.Header.Get("Content-Type"))
			assert.Equal(t, `"abc123"`, got.Header.Get("ETag"))
		})
	}
}

func TestMatchMiss(t *testing.T) {
	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			store, err := mgr.Open("fixmyphone-v1.0.0")
			require.NoError(t, err)

			_, err = store.Match("/missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			store, err := mgr.Open("fixmyphone-v1.0.0")
			require.NoError(t, err)

			require.NoError(t, store.Put("/index.html", sampleResponse()))

			updated := sampleResponse()
			updated.Body = []byte("updated")
			require.NoError(t, store.Put("/index.html", updated))

			got, err := store.Match("/index.html")
			require.NoError(t, err)
			assert.Equal(t, []byte("updated"), got.Body)

			n, err := store.Len()
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStoredEntryIsIsolated(t *testing.T) {
	mgr := NewMemoryManager()
	store, err := mgr.Open("fixmyphone-v1.0.0")
	require.NoError(t, err)

	original := sampleResponse()
	require.NoError(t, store.Put("/app.js", original))

	// Mutating the caller's copy must not affect the stored entry
	original.Body[0] = 'X'
	original.Header.Set("Content-Type", "mutated")

	got, err := store.Match("/app.js")
	require.NoError(t, err)
	assert.Equal(t, byte('b'), got.Body[0])
	assert.Equal(t, "text/css", got.Header.Get("Content-Type"))

	// Mutating a matched copy must not affect later matches
	got.Body[0] = 'Y'
	again, err := store.Match("/app.js")
	require.NoError(t, err)
	assert.Equal(t, byte('b'), again.Body[0])
}

func TestManagerNamesAndDelete(t *testing.T) {
	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := mgr.Open("fixmyphone-v1.0.0")
			require.NoError(t, err)
			_, err = mgr.Open("fixmyphone-v1.0.1")
			require.NoError(t, err)

			names, err := mgr.Names()
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"fixmyphone-v1.0.0", "fixmyphone-v1.0.1"}, names)

			require.NoError(t, mgr.Delete("fixmyphone-v1.0.0"))

			names, err = mgr.Names()
			require.NoError(t, err)
			assert.Equal(t, []string{"fixmyphone-v1.0.1"}, names)

			has, err := mgr.Has("fixmyphone-v1.0.0")
			require.NoError(t, err)
			assert.False(t, has)
		})
	}
}

func TestDeleteAbsentStoreIsNoOp(t *testing.T) {
	for name, mgr := range managers(t) {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, mgr.Delete("never-existed"))
		})
	}
}

func TestDeleteRemovesEntries(t *testing.T) {
	sqlMgr, err := NewSQLManager("sqlite", filepath.Join(t.TempDir(), "cache.db"), 1, 1)
	require.NoError(t, err)
	defer sqlMgr.Close()

	store, err := sqlMgr.Open("fixmyphone-v1.0.0")
	require.NoError(t, err)
	require.NoError(t, store.Put("/", sampleResponse()))

	require.NoError(t, sqlMgr.Delete("fixmyphone-v1.0.0"))

	// Re-opening the same name yields a fresh, empty store
	store, err = sqlMgr.Open("fixmyphone-v1.0.0")
	require.NoError(t, err)
	n, err := store.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	q := rebind("postgres", `INSERT INTO cache_stores (name, create_time) VALUES (?, ?)`)
	assert.Equal(t, `INSERT INTO cache_stores (name, create_time) VALUES ($1, $2)`, q)

	// sqlite and mysql keep ? as-is
	q = `DELETE FROM cache_entries WHERE store_name = ? AND url_key = ?`
	assert.Equal(t, q, rebind("sqlite", q))
	assert.Equal(t, q, rebind("mysql", q))
}

func TestSchemaStatementsPerDriver(t *testing.T) {
	for _, stmt := range schemaStatements("postgres") {
		assert.NotContains(t, stmt, "BLOB", "postgres has no BLOB type")
	}

	mysql := schemaStatements("mysql")
	for _, stmt := range mysql {
		assert.NotContains(t, stmt, "TEXT    PRIMARY", "mysql cannot index unsized TEXT")
	}
	assert.Contains(t, mysql[0], "VARCHAR(255) PRIMARY KEY")
	assert.Contains(t, mysql[1], "MEDIUMBLOB")

	assert.Contains(t, schemaStatements("sqlite")[1], "BLOB")
}
