// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		addr   string
		fqdn   string
		listen string
		port   string
	}{
		{":8080", "", "", "8080"},
		{"edge.example.com:80", "edge.example.com", "", "80"},
		{"127.0.0.1", "", "127.0.0.1", ""},
		{"172.17.0.1:8091", "", "172.17.0.1", "8091"},
		{"example.com", "example.com", "", ""},
		{"localhost", "", "localhost", ""},
		{"[::1]:8080", "", "::1", "8080"},
		{"", "", "", ""},
	}

	for _, tt := range tests {
		fqdn, listen, port := parseAddress(tt.addr)
		assert.Equal(t, tt.fqdn, fqdn, "fqdn for %q", tt.addr)
		assert.Equal(t, tt.listen, listen, "listen for %q", tt.addr)
		assert.Equal(t, tt.port, port, "port for %q", tt.addr)
	}
}

func TestGenerateAndLoadDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edge.yml")
	require.NoError(t, GenerateDefaultYAMLConfig(path))

	cfg, err := LoadYAMLConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://fixmyphone.app", cfg.Origin.URL)
	assert.Equal(t, "api.fixmyphone.app", cfg.Origin.BackendHost)
	assert.Equal(t, 10, cfg.Origin.FetchTimeout)
	assert.Equal(t, "fixmyphone", cfg.Cache.NamePrefix)
	assert.Equal(t, "/offline.html", cfg.Cache.OfflinePath)
	assert.Contains(t, cfg.Cache.Manifest, "/offline.html")
	assert.Equal(t, "/api/", cfg.Cache.APIPrefix)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FIXMYPHONE_ADDRESS", "edge.example.com:8443")
	t.Setenv("FIXMYPHONE_ORIGIN_URL", "https://staging.fixmyphone.app")
	t.Setenv("FIXMYPHONE_ALLOWED_HOSTS", "fonts.gstatic.com, cdn.example.com")
	t.Setenv("FIXMYPHONE_CACHE_VERSION", "2.1.0")
	t.Setenv("FIXMYPHONE_SYNC_MAX_ATTEMPTS", "3")

	cfg := &YAMLConfig{}
	ApplyEnvironmentOverrides(cfg)

	assert.Equal(t, "edge.example.com", cfg.Server.FQDN)
	assert.Equal(t, "8443", cfg.Server.Port)
	assert.Equal(t, "https://staging.fixmyphone.app", cfg.Origin.URL)
	assert.Equal(t, []string{"fonts.gstatic.com", "cdn.example.com"}, cfg.Origin.AllowedHosts)
	assert.Equal(t, "2.1.0", cfg.Cache.Version)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
}

func TestResolvePlaceholders(t *testing.T) {
	cfg := &YAMLConfig{}
	cfg.Server.Administrator.Email = "administrator@{fqdn}"
	cfg.Database.Source = "{data_dir}/edge.db"

	ResolvePlaceholders(cfg, "edge.example.com", "/var/lib/fixmyphone/edge", "/etc/fixmyphone/edge")

	assert.Equal(t, "administrator@edge.example.com", cfg.Server.Administrator.Email)
	assert.Equal(t, "/var/lib/fixmyphone/edge/edge.db", cfg.Database.Source)
}

func TestIsValidDomain(t *testing.T) {
	assert.True(t, isValidDomain("fixmyphone.app"))
	assert.True(t, isValidDomain("edge.example.co.uk"))
	assert.False(t, isValidDomain("localhost"))
	assert.False(t, isValidDomain("127.0.0.1"))
	assert.False(t, isValidDomain(""))
}
