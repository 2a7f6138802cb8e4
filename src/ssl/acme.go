// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package ssl

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"
)

// ACMEConfig holds automatic certificate issuance settings
type ACMEConfig struct {
	Enabled  bool
	Email    string
	CacheDir string
	Staging  bool
	Domains  []string
}

// ACMEManager obtains and renews certificates through an ACME
// directory using the HTTP-01 and TLS-ALPN-01 challenges.
type ACMEManager struct {
	config   *ACMEConfig
	autocert *autocert.Manager
	enabled  bool
}

// NewACMEManager creates a new ACME manager.
// A nil or disabled config returns a no-op manager.
func NewACMEManager(cfg *ACMEConfig) (*ACMEManager, error) {
	if cfg == nil || !cfg.Enabled {
		return &ACMEManager{enabled: false}, nil
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "acme-certs")
	}
	if err := os.MkdirAll(cacheDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create ACME cache directory: %w", err)
	}

	m := &autocert.Manager{
		Prompt:      autocert.AcceptTOS,
		Cache:       autocert.DirCache(cacheDir),
		Email:       cfg.Email,
		HostPolicy:  hostWhitelist(cfg.Domains),
		RenewBefore: 30 * 24 * time.Hour,
	}

	// The staging directory issues untrusted certificates without
	// hitting production rate limits
	if cfg.Staging {
		m.Client = &acme.Client{
			DirectoryURL: "https://acme-staging-v02.api.letsencrypt.org/directory",
		}
	}

	return &ACMEManager{
		config:   cfg,
		autocert: m,
		enabled:  true,
	}, nil
}

// hostWhitelist creates a host policy allowing the specified domains.
// An empty list allows any host.
func hostWhitelist(domains []string) autocert.HostPolicy {
	allowed := make(map[string]bool)
	for _, d := range domains {
		allowed[d] = true
	}
	return func(ctx context.Context, host string) error {
		if len(allowed) == 0 {
			return nil
		}
		if allowed[host] {
			return nil
		}
		return fmt.Errorf("host %q not allowed", host)
	}
}

// IsEnabled returns true if automatic issuance is active
func (m *ACMEManager) IsEnabled() bool {
	return m.enabled
}

// TLSConfig returns a TLS config with automatic certificate management
func (m *ACMEManager) TLSConfig(minVersion string) *tls.Config {
	if !m.enabled || m.autocert == nil {
		return nil
	}

	return &tls.Config{
		GetCertificate: m.autocert.GetCertificate,
		NextProtos:     []string{"h2", "http/1.1", acme.ALPNProto},
		MinVersion:     MinVersionFromString(minVersion),
	}
}

// HTTPHandler wraps a handler with the HTTP-01 challenge responder.
// Requests to /.well-known/acme-challenge/ are answered by the
// manager; everything else falls through.
func (m *ACMEManager) HTTPHandler(fallback http.Handler) http.Handler {
	if !m.enabled || m.autocert == nil {
		return fallback
	}
	return m.autocert.HTTPHandler(fallback)
}
