// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package config

import (
	"net"
	"os"
	"strconv"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// isValidDomain checks if a string is a valid domain name using the Public Suffix List
// This validates against all known TLDs (com, org, co.uk, com.au, etc.)
func isValidDomain(s string) bool {
	// Must not be empty
	if s == "" {
		return false
	}
	// Must not be an IP address
	if net.ParseIP(s) != nil {
		return false
	}
	// Must contain at least one dot
	if !strings.Contains(s, ".") {
		return false
	}
	// Use publicsuffix to get the eTLD+1 (effective TLD plus one label)
	// If this succeeds, it's a valid domain with a known TLD
	_, err := publicsuffix.EffectiveTLDPlusOne(s)
	return err == nil
}

// parseAddress intelligently parses FIXMYPHONE_ADDRESS to extract FQDN, listen, and port
// Examples:
//   - ":8080"                 → port=8080
//   - "edge.example.com:80"   → fqdn=edge.example.com, port=80
//   - "127.0.0.1"             → listen=127.0.0.1
//   - "172.17.0.1:8091"       → listen=172.17.0.1, port=8091
//   - "example.com"           → fqdn=example.com
func parseAddress(addr string) (fqdn, listen, port string) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}

	// Handle IPv6 addresses in brackets like [::1]:8080
	if strings.HasPrefix(addr, "[") {
		// IPv6 format: [ip]:port or [ip]
		closeBracket := strings.Index(addr, "]")
		if closeBracket == -1 {
			return // Invalid format
		}
		ipv6 := addr[1:closeBracket]
		rest := addr[closeBracket+1:]

		// Check if there's a port after the bracket
		if strings.HasPrefix(rest, ":") {
			port = rest[1:]
		}
		listen = ipv6
		return
	}

	// Check if it starts with ":" (just port)
	if strings.HasPrefix(addr, ":") {
		port = addr[1:]
		return
	}

	// Try to split host:port
	// Use net.SplitHostPort for proper parsing
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		// No port specified, the whole string is the host
		host = addr
		p = ""
	}

	// Set port if found
	port = p

	// Determine if host is an IP or domain
	if host != "" {
		if net.ParseIP(host) != nil {
			// It's an IP address → listen address
			listen = host
		} else if isValidDomain(host) {
			// It's a valid domain → FQDN
			fqdn = host
		} else if host == "localhost" {
			// Special case: localhost is a listen address
			listen = host
		}
		// If neither IP nor valid domain, ignore it
	}

	return
}

// getEnv gets FIXMYPHONE_* environment variables
func getEnv(name string) string {
	return os.Getenv("FIXMYPHONE_" + name)
}

// ApplyEnvironmentOverrides applies environment variables to config
// Environment variables override config file values
func ApplyEnvironmentOverrides(cfg *YAMLConfig) {
	// Smart ADDRESS parsing - single env var to set fqdn, listen, and/or port
	if val := getEnv("ADDRESS"); val != "" {
		fqdn, listen, port := parseAddress(val)
		if fqdn != "" {
			cfg.Server.FQDN = fqdn
		}
		if listen != "" {
			cfg.Server.Listen = listen
		}
		if port != "" {
			cfg.Server.Port = port
		}
	}

	// Individual settings (override ADDRESS parsing if both set)
	if val := getEnv("FQDN"); val != "" {
		cfg.Server.FQDN = val
	}
	if val := getEnv("LISTEN"); val != "" {
		cfg.Server.Listen = val
	}
	if val := getEnv("PORT"); val != "" {
		cfg.Server.Port = val
	}
	if val := getEnv("SERVER_TITLE"); val != "" {
		cfg.Server.Title = val
	}
	// Alternative
	if val := getEnv("TITLE"); val != "" {
		cfg.Server.Title = val
	}

	// Server administrator
	if val := getEnv("ADMIN_NAME"); val != "" {
		cfg.Server.Administrator.Name = val
	}
	if val := getEnv("ADMIN_EMAIL"); val != "" {
		cfg.Server.Administrator.Email = val
	}
	// Alternative
	if val := getEnv("ADMIN_MAIL"); val != "" {
		cfg.Server.Administrator.Email = val
	}

	// Origin settings
	if val := getEnv("ORIGIN_URL"); val != "" {
		cfg.Origin.URL = val
	}
	if val := getEnv("BACKEND_HOST"); val != "" {
		cfg.Origin.BackendHost = val
	}
	if val := getEnv("FETCH_TIMEOUT"); val != "" {
		if num, err := strconv.Atoi(val); err == nil {
			cfg.Origin.FetchTimeout = num
		}
	}
	// Comma-separated list of cross-origin hosts
	if val := getEnv("ALLOWED_HOSTS"); val != "" {
		hosts := []string{}
		for _, h := range strings.Split(val, ",") {
			h = strings.TrimSpace(h)
			if h != "" {
				hosts = append(hosts, h)
			}
		}
		cfg.Origin.AllowedHosts = hosts
	}

	// Cache settings
	if val := getEnv("CACHE_NAME_PREFIX"); val != "" {
		cfg.Cache.NamePrefix = val
	}
	if val := getEnv("CACHE_VERSION"); val != "" {
		cfg.Cache.Version = val
	}
	if val := getEnv("OFFLINE_PATH"); val != "" {
		cfg.Cache.OfflinePath = val
	}
	if val := getEnv("API_PREFIX"); val != "" {
		cfg.Cache.APIPrefix = val
	}

	// Sync settings
	if val := getEnv("SYNC_MAX_ATTEMPTS"); val != "" {
		if num, err := strconv.Atoi(val); err == nil {
			cfg.Sync.MaxAttempts = num
		}
	}
	if val := getEnv("SYNC_PERIOD"); val != "" {
		cfg.Sync.Period = val
	}
	if val := getEnv("SYNC_PROBE_PERIOD"); val != "" {
		cfg.Sync.ProbePeriod = val
	}

	// Notification settings
	if val := getEnv("NOTIFY_DISMISS_AFTER"); val != "" {
		if num, err := strconv.Atoi(val); err == nil {
			cfg.Notifications.DismissAfter = num
		}
	}
	if val := getEnv("DASHBOARD_ROUTE"); val != "" {
		cfg.Notifications.DashboardRoute = val
	}

	// Database settings
	if val := getEnv("DB_DRIVER"); val != "" {
		cfg.Database.Driver = val
	}
	if val := getEnv("DB_SOURCE"); val != "" {
		cfg.Database.Source = val
	}
	if val := getEnv("DB_MAX_OPEN_CONNS"); val != "" {
		if num, err := strconv.Atoi(val); err == nil {
			cfg.Database.MaxOpenConns = num
		}
	}
	if val := getEnv("DB_MAX_IDLE_CONNS"); val != "" {
		if num, err := strconv.Atoi(val); err == nil {
			cfg.Database.MaxIdleConns = num
		}
	}

	// Rate limits - API requests
	if val := getEnv("API_PER_5MIN"); val != "" {
		if num, err := strconv.ParseUint(val, 10, 32); err == nil {
			cfg.Limits.RateLimit.API.Per5Min = uint(num)
		}
	}
	if val := getEnv("API_PER_15MIN"); val != "" {
		if num, err := strconv.ParseUint(val, 10, 32); err == nil {
			cfg.Limits.RateLimit.API.Per15Min = uint(num)
		}
	}
	if val := getEnv("API_PER_1HOUR"); val != "" {
		if num, err := strconv.ParseUint(val, 10, 32); err == nil {
			cfg.Limits.RateLimit.API.Per1Hour = uint(num)
		}
	}

	// Rate limits - navigation requests
	if val := getEnv("NAV_PER_5MIN"); val != "" {
		if num, err := strconv.ParseUint(val, 10, 32); err == nil {
			cfg.Limits.RateLimit.Navigation.Per5Min = uint(num)
		}
	}
	if val := getEnv("NAV_PER_15MIN"); val != "" {
		if num, err := strconv.ParseUint(val, 10, 32); err == nil {
			cfg.Limits.RateLimit.Navigation.Per15Min = uint(num)
		}
	}
	if val := getEnv("NAV_PER_1HOUR"); val != "" {
		if num, err := strconv.ParseUint(val, 10, 32); err == nil {
			cfg.Limits.RateLimit.Navigation.Per1Hour = uint(num)
		}
	}

	// Directory settings
	if val := getEnv("LOGS_DIR"); val != "" {
		cfg.Directories.Logs = val
	}
}

// ApplyCriticalOverrides applies security-critical environment variables on EVERY run
// Unlike ApplyEnvironmentOverrides which only runs on first config generation,
// this function runs on every startup to ensure security settings can be changed
// via environment variables in containerized deployments without deleting config
func ApplyCriticalOverrides(cfg *YAMLConfig) {
	// TLS settings - critical for HTTPS security
	if val := getEnv("TLS_MIN_VERSION"); val != "" {
		cfg.Security.TLS.MinVersion = val
	}

	// Upstream origin - critical in containerized deployments where the
	// backend address changes between environments
	if val := getEnv("ORIGIN_URL"); val != "" {
		cfg.Origin.URL = val
	}
	if val := getEnv("BACKEND_HOST"); val != "" {
		cfg.Origin.BackendHost = val
	}
}

// isTruthy checks if a string value represents true
func isTruthy(val string) bool {
	val = strings.ToLower(strings.TrimSpace(val))
	return val == "true" || val == "1" || val == "yes" || val == "on" || val == "enabled"
}
