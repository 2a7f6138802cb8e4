// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package cachestore provides named, versioned response stores.
// A store maps request URLs to captured responses. One store exists per
// deployed version (e.g. "fixmyphone-v1.0.0"); activation logic in the
// worker package purges every store whose name is not current.
package cachestore

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound is returned when a key has no entry in a store.
	ErrNotFound = errors.New("cachestore: key not found")
	// ErrNoStore is returned when a named store does not exist.
	ErrNoStore = errors.New("cachestore: store not found")
)

// Response is a captured HTTP response. Header and Body are deep-copied
// on Put and on Match so callers can never mutate a stored entry.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Clone returns an independent copy of the response.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}

	clone := &Response{
		Status: r.Status,
		Header: make(http.Header, len(r.Header)),
		Body:   make([]byte, len(r.Body)),
	}
	for k, vals := range r.Header {
		clone.Header[k] = append([]string(nil), vals...)
	}
	copy(clone.Body, r.Body)
	return clone
}

// Store is a single named key-response mapping. Put overwrites an
// existing key; per-key operations are atomic.
type Store interface {
	// Match returns the entry for key, or ErrNotFound.
	Match(key string) (*Response, error)
	// Put stores a response under key, overwriting any previous entry.
	Put(key string, resp *Response) error
	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string) error
	// Keys returns all keys currently in the store.
	Keys() ([]string, error)
	// Len returns the number of entries.
	Len() (int, error)
}

// Manager owns the set of named stores.
type Manager interface {
	// Open returns the named store, creating it if it does not exist.
	Open(name string) (Store, error)
	// Names returns the names of all existing stores.
	Names() ([]string, error)
	// Delete removes a named store and all its entries.
	// Deleting an absent store is a no-op.
	Delete(name string) error
	// Has reports whether a named store exists.
	Has(name string) (bool, error)
	// Close releases the manager's resources.
	Close() error
}
