// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package ssl

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinVersionFromString(t *testing.T) {
	assert.Equal(t, uint16(tls.VersionTLS13), MinVersionFromString("1.3"))
	assert.Equal(t, uint16(tls.VersionTLS12), MinVersionFromString("1.2"))
	assert.Equal(t, uint16(tls.VersionTLS11), MinVersionFromString("1.1"))
	assert.Equal(t, uint16(tls.VersionTLS10), MinVersionFromString("1.0"))

	// Unknown values fall back to 1.2
	assert.Equal(t, uint16(tls.VersionTLS12), MinVersionFromString(""))
	assert.Equal(t, uint16(tls.VersionTLS12), MinVersionFromString("bogus"))
}

func TestLoadCertificateMissingFiles(t *testing.T) {
	m := NewManager()

	_, err := m.LoadCertificate("/nonexistent/cert.pem", "/nonexistent/key.pem", "edge.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate file not found")

	_, ok := m.GetCertificate("edge.example.com")
	assert.False(t, ok)
}

func TestNeedsRenewal(t *testing.T) {
	fresh := &Certificate{ExpiresAt: time.Now().Add(90 * 24 * time.Hour)}
	assert.False(t, fresh.NeedsRenewal())

	expiring := &Certificate{ExpiresAt: time.Now().Add(10 * 24 * time.Hour)}
	assert.True(t, expiring.NeedsRenewal())

	// Unknown expiry never triggers renewal
	unknown := &Certificate{}
	assert.False(t, unknown.NeedsRenewal())
}

func TestACMEManagerDisabled(t *testing.T) {
	m, err := NewACMEManager(nil)
	require.NoError(t, err)
	assert.False(t, m.IsEnabled())
	assert.Nil(t, m.TLSConfig("1.2"))

	// Disabled manager passes requests straight to the fallback
	called := false
	fallback := http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		called = true
		rw.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/.well-known/acme-challenge/token", nil)
	m.HTTPHandler(fallback).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestACMEManagerEnabled(t *testing.T) {
	dir := t.TempDir()
	m, err := NewACMEManager(&ACMEConfig{
		Enabled:  true,
		Email:    "admin@fixmyphone.app",
		CacheDir: dir,
		Staging:  true,
		Domains:  []string{"edge.fixmyphone.app"},
	})
	require.NoError(t, err)
	assert.True(t, m.IsEnabled())

	cfg := m.TLSConfig("1.3")
	require.NotNil(t, cfg)
	assert.Equal(t, uint16(tls.VersionTLS13), cfg.MinVersion)
	assert.NotNil(t, cfg.GetCertificate)
	assert.Contains(t, cfg.NextProtos, "h2")
}
