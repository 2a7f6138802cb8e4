
// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the YAML configuration file structure
// All configuration is organized into logical top-level sections
type YAMLConfig struct {
	Server struct {
		// Public FQDN for building URLs (empty=auto-detect from headers/hostname, set to override)
		FQDN string `yaml:"fqdn"`
		// Listen address (all, ::, 0.0.0.0, specific IP)
		Listen string `yaml:"listen"`
		// Port number (empty=auto-detect available port)
		Port string `yaml:"port"`
		// Server title
		Title string `yaml:"title"`
		// Server tagline (short description)
		TagLine string `yaml:"tagline"`

		Proxy struct {
			// Additional trusted proxy IPs/CIDRs (appended to default private ranges)
			Allowed []string `yaml:"allowed"`
		} `yaml:"proxy"`

		Administrator struct {
			// Admin name
			Name string `yaml:"name"`
			// Admin email
			Email string `yaml:"email"`
		} `yaml:"administrator"`

		Timeouts struct {
			// Read timeout in seconds (default: 15)
			Read int `yaml:"read"`
			// Write timeout in seconds (default: 15)
			Write int `yaml:"write"`
			// Idle timeout in seconds (default: 60)
			Idle int `yaml:"idle"`
		} `yaml:"timeouts"`

		Metrics struct {
			// Enable Prometheus metrics endpoint (default: false)
			Enabled bool `yaml:"enabled"`
			// Endpoint path (default: /metrics)
			Endpoint string `yaml:"endpoint"`
			// Include Go runtime metrics
			IncludeRuntime bool `yaml:"include_runtime"`
			// Optional bearer token for authentication
			Token string `yaml:"token"`
		} `yaml:"metrics"`
	} `yaml:"server"`

	Origin struct {
		// Upstream origin base URL, e.g. "https://fixmyphone.app"
		URL string `yaml:"url"`
		// Backend API hostname; requests to it classify as API calls
		BackendHost string `yaml:"backend_host"`
		// Per-request upstream fetch timeout in seconds (default: 10)
		FetchTimeout int `yaml:"fetch_timeout"`
		// Cross-origin hosts still served through the cache layer
		AllowedHosts []string `yaml:"allowed_hosts"`
	} `yaml:"origin"`

	Cache struct {
		// Cache store name prefix (default: "fixmyphone")
		NamePrefix string `yaml:"name_prefix"`
		// Cache version; a bump triggers install/activate of a new store
		Version string `yaml:"version"`
		// Critical resource manifest fetched atomically at install
		Manifest []string `yaml:"manifest"`
		// Offline fallback page path (must appear in the manifest)
		OfflinePath string `yaml:"offline_path"`
		// API namespace prefix (default: "/api/")
		APIPrefix string `yaml:"api_prefix"`
	} `yaml:"cache"`

	Sync struct {
		// Attempts before a queued submission is parked (default: 5)
		MaxAttempts int `yaml:"max_attempts"`
		// Drain schedule period (e.g. "1m", "5m")
		Period string `yaml:"period"`
		// Connectivity probe period (e.g. "30s")
		ProbePeriod string `yaml:"probe_period"`
	} `yaml:"sync"`

	Notifications struct {
		// Self-dismiss delay in seconds (default: 10)
		DismissAfter int `yaml:"dismiss_after"`
		// Route opened by the explore action
		DashboardRoute string `yaml:"dashboard_route"`
	} `yaml:"notifications"`

	Database struct {
		// sqlite, postgres, mysql
		Driver string `yaml:"driver"`
		// Connection string
		Source string `yaml:"source"`
		// Max open connections
		MaxOpenConns int `yaml:"max_open_conns"`
		// Max idle connections
		MaxIdleConns int `yaml:"max_idle_conns"`
	} `yaml:"database"`

	Security struct {
		TLS struct {
			// Minimum TLS version: 1.0, 1.1, 1.2, 1.3
			MinVersion string `yaml:"min_version"`
			// TLS certificate file path (optional, auto-detected)
			CertFile string `yaml:"cert_file"`
			// TLS key file path (optional, auto-detected)
			KeyFile string `yaml:"key_file"`
			// ACME automatic certificate issuance (Let's Encrypt)
			ACME struct {
				// Enable automatic certificate issuance
				Enabled bool `yaml:"enabled"`
				// Contact email for the ACME account
				Email string `yaml:"email"`
				// Certificate cache directory (default: {data_dir}/acme)
				CacheDir string `yaml:"cache_dir"`
				// Use the Let's Encrypt staging directory
				Staging bool `yaml:"staging"`
			} `yaml:"acme"`
		} `yaml:"tls"`
	} `yaml:"security"`

	Limits struct {
		RateLimit struct {
			API struct {
				// API requests per 5 minutes
				Per5Min uint `yaml:"per_5min"`
				// API requests per 15 minutes
				Per15Min uint `yaml:"per_15min"`
				// API requests per 1 hour
				Per1Hour uint `yaml:"per_1hour"`
			} `yaml:"api"`

			Navigation struct {
				// Navigation requests per 5 minutes
				Per5Min uint `yaml:"per_5min"`
				// Navigation requests per 15 minutes
				Per15Min uint `yaml:"per_15min"`
				// Navigation requests per 1 hour
				Per1Hour uint `yaml:"per_1hour"`
			} `yaml:"navigation"`
		} `yaml:"rate_limit"`
	} `yaml:"limits"`

	Directories struct {
		// Data directory
		Data string `yaml:"data"`
		// Config directory
		Config string `yaml:"config"`
		// Database directory
		Db string `yaml:"db"`
		// Logs directory
		Logs string `yaml:"logs"`
	} `yaml:"directories"`

	Logging struct {
		// Log level: info, warn, error (default: info)
		Level string `yaml:"level"`

		Access struct {
			// Enable access log to stdout (default: false)
			Stdout bool `yaml:"stdout"`
			// Enable access log to stderr (default: false)
			Stderr bool `yaml:"stderr"`
			// apache, nginx, text, json (default: apache)
			Format string `yaml:"format"`
			// Access log file (default: access.log)
			File string `yaml:"file"`
		} `yaml:"access"`

		Error struct {
			// Enable error log to stdout (default: false)
			Stdout bool `yaml:"stdout"`
			// Enable error log to stderr (default: true)
			Stderr bool `yaml:"stderr"`
			// text, json (default: text)
			Format string `yaml:"format"`
			// Error log file (default: error.log)
			File string `yaml:"file"`
		} `yaml:"error"`

		Server struct {
			// Enable server log to stdout (default: true)
			Stdout bool `yaml:"stdout"`
			// Enable server log to stderr (default: false)
			Stderr bool `yaml:"stderr"`
			// text, json (default: text)
			Format string `yaml:"format"`
			// Server log file (default: edge.log)
			File string `yaml:"file"`
		} `yaml:"server"`

		Debug struct {
			// Enable debug log to stdout (default: true)
			Stdout bool `yaml:"stdout"`
			// Enable debug log to stderr (default: false)
			Stderr bool `yaml:"stderr"`
			// text, json (default: text)
			Format string `yaml:"format"`
			// Debug log file (default: debug.log)
			File string `yaml:"file"`
		} `yaml:"debug"`
	} `yaml:"logging"`
}

// LoadYAMLConfig loads configuration from YAML file
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg YAMLConfig
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveYAMLConfig saves configuration to YAML file
func SaveYAMLConfig(path string, cfg *YAMLConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolvePlaceholders replaces placeholder values in the config with actual values
// Placeholders: {fqdn}, {data_dir}, {config_dir}
func ResolvePlaceholders(cfg *YAMLConfig, fqdn, dataDir, configDir string) {
	replace := func(s string) string {
		s = strings.ReplaceAll(s, "{fqdn}", fqdn)
		s = strings.ReplaceAll(s, "{data_dir}", dataDir)
		s = strings.ReplaceAll(s, "{config_dir}", configDir)
		return s
	}

	cfg.Server.Administrator.Email = replace(cfg.Server.Administrator.Email)
	cfg.Origin.URL = replace(cfg.Origin.URL)
	cfg.Origin.BackendHost = replace(cfg.Origin.BackendHost)
	cfg.Security.TLS.CertFile = replace(cfg.Security.TLS.CertFile)
	cfg.Security.TLS.KeyFile = replace(cfg.Security.TLS.KeyFile)
	cfg.Security.TLS.ACME.CacheDir = replace(cfg.Security.TLS.ACME.CacheDir)
	cfg.Database.Source = replace(cfg.Database.Source)
}

// GetDefaultPrivateProxies returns the default trusted proxy CIDR ranges
// These are always trusted for X-Forwarded-* headers
func GetDefaultPrivateProxies() []string {
	return []string{
		"10.0.0.0/8",     // Private Class A
		"172.16.0.0/12",  // Private Class B
		"192.168.0.0/16", // Private Class C
		"127.0.0.0/8",    // Loopback IPv4
		"::1",            // Loopback IPv6
		"fc00::/7",       // Unique Local IPv6
		"fe80::/10",      // Link-Local IPv6
	}
}

// GetAllTrustedProxies returns all trusted proxies (defaults + configured)
func GetAllTrustedProxies(cfg *YAMLConfig) []string {
	proxies := GetDefaultPrivateProxies()
	proxies = append(proxies, cfg.Server.Proxy.Allowed...)
	return proxies
}

// GenerateDefaultYAMLConfig generates a default configuration file with sane defaults
func GenerateDefaultYAMLConfig(path string) error {
	defaultConfig := YAMLConfig{}

	// ============================================================================
	// SERVER CONFIGURATION
	// ============================================================================
	defaultConfig.Server.FQDN = ""      // Empty = auto-detect from X-Forwarded-Host (trusted proxies) or hostname; Set to override
	defaultConfig.Server.Listen = "all" // Listen on all interfaces (IPv4 + IPv6)
	defaultConfig.Server.Port = ""      // Empty = auto-detect available port at runtime
	defaultConfig.Server.Title = "FixMyPhone Edge"
	defaultConfig.Server.TagLine = "Offline-first edge for the FixMyPhone repair booking app"

	// Additional trusted proxy IPs/CIDRs to append to default private ranges
	defaultConfig.Server.Proxy.Allowed = []string{}

	defaultConfig.Server.Administrator.Name = "FixMyPhone Administrator"
	defaultConfig.Server.Administrator.Email = "administrator@{fqdn}"

	defaultConfig.Server.Timeouts.Read = 15
	defaultConfig.Server.Timeouts.Write = 15
	defaultConfig.Server.Timeouts.Idle = 60

	// Prometheus metrics (INTERNAL ONLY - firewall /metrics)
	defaultConfig.Server.Metrics.Enabled = false
	defaultConfig.Server.Metrics.Endpoint = "/metrics"
	defaultConfig.Server.Metrics.IncludeRuntime = true
	defaultConfig.Server.Metrics.Token = "" // Empty = no auth (use firewall instead)

	// ============================================================================
	// ORIGIN CONFIGURATION
	// ============================================================================
	defaultConfig.Origin.URL = "https://fixmyphone.app"
	defaultConfig.Origin.BackendHost = "api.fixmyphone.app"
	defaultConfig.Origin.FetchTimeout = 10
	defaultConfig.Origin.AllowedHosts = []string{
		"fonts.googleapis.com",
		"fonts.gstatic.com",
		"cdn.jsdelivr.net",
	}

	// ============================================================================
	// CACHE CONFIGURATION
	// ============================================================================
	defaultConfig.Cache.NamePrefix = "fixmyphone"
	defaultConfig.Cache.Version = "1.0.0"
	defaultConfig.Cache.Manifest = []string{
		"/",
		"/offline.html",
		"/manifest.json",
		"/icons/icon-192x192.png",
		"/icons/icon-512x512.png",
	}
	defaultConfig.Cache.OfflinePath = "/offline.html"
	defaultConfig.Cache.APIPrefix = "/api/"

	// ============================================================================
	// BACKGROUND SYNC
	// ============================================================================
	defaultConfig.Sync.MaxAttempts = 5
	defaultConfig.Sync.Period = "1m"
	defaultConfig.Sync.ProbePeriod = "30s"

	// ============================================================================
	// NOTIFICATIONS
	// ============================================================================
	defaultConfig.Notifications.DismissAfter = 10
	defaultConfig.Notifications.DashboardRoute = "/dashboard"

	// ============================================================================
	// DATABASE CONFIGURATION
	// ============================================================================
	// Using modernc.org/sqlite (pure Go, no CGo)
	// Source path is relative - converted to absolute at runtime
	defaultConfig.Database.Driver = "sqlite"
	defaultConfig.Database.Source = "edge.db"
	defaultConfig.Database.MaxOpenConns = 25
	defaultConfig.Database.MaxIdleConns = 5

	// ============================================================================
	// SECURITY CONFIGURATION
	// ============================================================================
	defaultConfig.Security.TLS.MinVersion = "1.2"
	defaultConfig.Security.TLS.CertFile = "/etc/fixmyphone/edge/tls/cert.pem" // Auto-detected from Let's Encrypt
	defaultConfig.Security.TLS.KeyFile = "/etc/fixmyphone/edge/tls/key.pem"  // Auto-detected from Let's Encrypt
	defaultConfig.Security.TLS.ACME.Enabled = false
	defaultConfig.Security.TLS.ACME.CacheDir = "{data_dir}/acme"

	// ============================================================================
	// LIMITS & RATE LIMITING
	// ============================================================================
	defaultConfig.Limits.RateLimit.API.Per5Min = 100
	defaultConfig.Limits.RateLimit.API.Per15Min = 250
	defaultConfig.Limits.RateLimit.API.Per1Hour = 800

	defaultConfig.Limits.RateLimit.Navigation.Per5Min = 200
	defaultConfig.Limits.RateLimit.Navigation.Per15Min = 500
	defaultConfig.Limits.RateLimit.Navigation.Per1Hour = 2000

	// ============================================================================
	// DIRECTORIES
	// ============================================================================
	defaultConfig.Directories.Data = "/var/lib/fixmyphone/edge"
	defaultConfig.Directories.Config = "/etc/fixmyphone/edge"
	defaultConfig.Directories.Db = "/var/lib/fixmyphone/edge/db"
	defaultConfig.Directories.Logs = "/var/log/fixmyphone/edge"

	// ============================================================================
	// LOGGING
	// ============================================================================
	defaultConfig.Logging.Level = "info" // info, warn, error (default: info)

	// Access Log (HTTP requests)
	defaultConfig.Logging.Access.Stdout = false // Don't clutter console with every request
	defaultConfig.Logging.Access.Stderr = false
	defaultConfig.Logging.Access.Format = "apache" // apache (combined), nginx, text, json
	defaultConfig.Logging.Access.File = "access.log"

	// Error Log (ERROR messages)
	defaultConfig.Logging.Error.Stdout = false
	defaultConfig.Logging.Error.Stderr = true   // Errors to stderr by default
	defaultConfig.Logging.Error.Format = "text" // text, json
	defaultConfig.Logging.Error.File = "error.log"

	// Server Log (INFO messages)
	defaultConfig.Logging.Server.Stdout = true // Show info messages on console
	defaultConfig.Logging.Server.Stderr = false
	defaultConfig.Logging.Server.Format = "text" // text, json
	defaultConfig.Logging.Server.File = "edge.log"

	// Debug Log (DEBUG messages, only with --debug flag)
	defaultConfig.Logging.Debug.Stdout = true
	defaultConfig.Logging.Debug.Stderr = false
	defaultConfig.Logging.Debug.Format = "text" // text, json
	defaultConfig.Logging.Debug.File = "debug.log"

	// Write to file
	data, err := yaml.Marshal(defaultConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}
