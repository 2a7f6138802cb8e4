// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package ssl manages TLS certificates for the edge gateway.
// Certificates come from manual configuration, Let's Encrypt
// discovery, or automatic ACME issuance.
package ssl

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fixmyphone/edge/src/path"
)

// CertSource indicates where a certificate came from
type CertSource string

const (
	// SourceManual is a manually configured certificate
	SourceManual CertSource = "manual"
	// SourceLetsEncrypt is a certificate discovered under /etc/letsencrypt
	SourceLetsEncrypt CertSource = "letsencrypt"
	// SourceACME is an auto-obtained ACME certificate
	SourceACME CertSource = "acme"
)

// Certificate holds certificate information
type Certificate struct {
	CertFile  string
	KeyFile   string
	Domain    string
	Source    CertSource
	ExpiresAt time.Time
	mu        sync.RWMutex
}

// Manager handles TLS certificate discovery and loading
type Manager struct {
	sslDir string
	certs  map[string]*Certificate
	mu     sync.RWMutex
}

// NewManager creates a new certificate manager
func NewManager() *Manager {
	return &Manager{
		sslDir: path.SSLDir(),
		certs:  make(map[string]*Certificate),
	}
}

// LoadCertificate loads a certificate pair from files
func (m *Manager) LoadCertificate(certFile, keyFile, domain string) (*Certificate, error) {
	if _, err := os.Stat(certFile); err != nil {
		return nil, fmt.Errorf("certificate file not found: %s", certFile)
	}
	if _, err := os.Stat(keyFile); err != nil {
		return nil, fmt.Errorf("key file not found: %s", keyFile)
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("invalid TLS certificate/key pair: %w", err)
	}

	// Parse the leaf to get the expiration date
	var expiresAt time.Time
	if len(cert.Certificate) > 0 {
		if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			expiresAt = leaf.NotAfter
		}
	}

	certificate := &Certificate{
		CertFile:  certFile,
		KeyFile:   keyFile,
		Domain:    domain,
		Source:    SourceManual,
		ExpiresAt: expiresAt,
	}

	m.mu.Lock()
	m.certs[domain] = certificate
	m.mu.Unlock()

	return certificate, nil
}

// FindLetsEncryptCert searches for Let's Encrypt certificates
func (m *Manager) FindLetsEncryptCert(fqdn string) (*Certificate, error) {
	letsencryptDir := "/etc/letsencrypt/live"

	if _, err := os.Stat(letsencryptDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("Let's Encrypt directory not found: %s", letsencryptDir)
	}

	entries, err := os.ReadDir(letsencryptDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read Let's Encrypt directory: %w", err)
	}

	// First try to find exact domain match
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() != fqdn && entry.Name() != strings.TrimPrefix(fqdn, "www.") {
			continue
		}

		cert, err := m.loadLiveDir(letsencryptDir, entry.Name(), fqdn)
		if err == nil {
			return cert, nil
		}
	}

	// If no exact match, return first valid cert found
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		cert, err := m.loadLiveDir(letsencryptDir, entry.Name(), fqdn)
		if err == nil {
			return cert, nil
		}
	}

	return nil, fmt.Errorf("no valid Let's Encrypt certificates found in %s", letsencryptDir)
}

func (m *Manager) loadLiveDir(liveDir, domain, fqdn string) (*Certificate, error) {
	certFile := filepath.Join(liveDir, domain, "fullchain.pem")
	keyFile := filepath.Join(liveDir, domain, "privkey.pem")

	if _, err := tls.LoadX509KeyPair(certFile, keyFile); err != nil {
		return nil, err
	}

	cert := &Certificate{
		CertFile: certFile,
		KeyFile:  keyFile,
		Domain:   domain,
		Source:   SourceLetsEncrypt,
	}
	m.mu.Lock()
	m.certs[fqdn] = cert
	m.mu.Unlock()
	return cert, nil
}

// GetCertificate returns a previously loaded certificate for a domain
func (m *Manager) GetCertificate(domain string) (*Certificate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cert, ok := m.certs[domain]
	return cert, ok
}

// AutoDiscover attempts to find certificates automatically.
// Priority: manual config > Let's Encrypt > local SSL directory
func (m *Manager) AutoDiscover(certFile, keyFile, domain string) (*Certificate, error) {
	if certFile != "" && keyFile != "" {
		cert, err := m.LoadCertificate(certFile, keyFile, domain)
		if err == nil {
			return cert, nil
		}
	}

	cert, err := m.FindLetsEncryptCert(domain)
	if err == nil {
		return cert, nil
	}

	localCertFile := filepath.Join(m.sslDir, "local", "cert.pem")
	localKeyFile := filepath.Join(m.sslDir, "local", "key.pem")
	if _, err := os.Stat(localCertFile); err == nil {
		if _, err := os.Stat(localKeyFile); err == nil {
			return m.LoadCertificate(localCertFile, localKeyFile, domain)
		}
	}

	return nil, fmt.Errorf("no TLS certificate found for domain: %s", domain)
}

// MinVersionFromString maps a config version string to a tls constant.
// Unknown values fall back to TLS 1.2.
func MinVersionFromString(v string) uint16 {
	switch v {
	case "1.3":
		return tls.VersionTLS13
	case "1.1":
		return tls.VersionTLS11
	case "1.0":
		return tls.VersionTLS10
	default:
		return tls.VersionTLS12
	}
}

// TLSConfig returns a TLS configuration serving the given certificate
func (m *Manager) TLSConfig(cert *Certificate, minVersion string) (*tls.Config, error) {
	tlsCert, err := tls.LoadX509KeyPair(cert.CertFile, cert.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{tlsCert},
		MinVersion:   MinVersionFromString(minVersion),
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
	}, nil
}

// NeedsRenewal checks if a certificate needs renewal.
// Certificates are renewed 30 days before expiry.
func (c *Certificate) NeedsRenewal() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Until(c.ExpiresAt) < 30*24*time.Hour
}
