
// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package config

import (
	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/netshare"
)

const Software = "FixMyPhone Edge"

type Config struct {
	Log logger.Logger

	RateLimitAPI *netshare.RateLimitSystem
	RateLimitNav *netshare.RateLimitSystem

	Version string

	// Server info
	FQDN        string
	ServerTitle string
	AdminName   string
	AdminMail   string

	// Upstream origin
	OriginURL    string
	BackendHost  string
	FetchTimeout int

	// Worker
	CacheNamePrefix string
	CacheVersion    string
	Manifest        []string
	OfflinePath     string
	APIPrefix       string
	AllowedHosts    []string

	// Background sync
	SyncMaxAttempts int
	SyncPeriod      string

	// Notifications
	NotifyDismissAfter int
	DashboardRoute     string

	// Trusted proxy configuration (for X-Forwarded-* headers)
	TrustedProxies []string
}
