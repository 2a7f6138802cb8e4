// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fixmyphone/edge/src/display"
	"github.com/fixmyphone/edge/src/tui"
)

// Build info - set via -ldflags at build time
var (
	Version   = "unknown"
	CommitID  = "unknown"
	BuildDate = "unknown"
)

// Config represents the CLI configuration file
type Config struct {
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// APIResponse is the unified response wrapper
type APIResponse struct {
	OK      bool            `json:"ok"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// API response types (data payloads)
type StatusResponse struct {
	Worker     string        `json:"worker"`
	CacheName  string        `json:"cacheName"`
	Stores     []StoreStatus `json:"stores"`
	QueueDepth int           `json:"queueDepth"`
	App        AppState      `json:"app"`
}

type StoreStatus struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

type AppState struct {
	IsInstallable bool `json:"isInstallable"`
	IsInstalled   bool `json:"isInstalled"`
	IsOffline     bool `json:"isOffline"`
}

type QueueItem struct {
	ID       string `json:"id"`
	Endpoint string `json:"endpoint"`
	QueuedAt int64  `json:"queuedAt"`
	Attempts int    `json:"attempts"`
}

type DrainResponse struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
	Depth  int `json:"depth"`
}

type NotifyResponse struct {
	Shown        bool   `json:"shown"`
	Permission   string `json:"permission"`
	ClickPrimary string `json:"clickPrimary"`
	ClickExplore string `json:"clickExplore"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Time    int64  `json:"timestamp"`
	Version string `json:"version"`
	Stores  string `json:"stores"`
	Worker  string `json:"worker"`
	Uptime  int64  `json:"uptime"`
}

type ServerInfoResponse struct {
	Software     string   `json:"software"`
	Version      string   `json:"version"`
	OriginURL    string   `json:"originUrl"`
	CacheVersion string   `json:"cacheVersion"`
	Manifest     []string `json:"manifest"`
	AdminName    string   `json:"adminName"`
	AdminMail    string   `json:"adminMail"`
}

// parseAPIResponse parses the unified API response format
// Returns the data field if successful, or an error message if not
func parseAPIResponse(body []byte) (json.RawMessage, error) {
	var resp APIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Not a wrapped response, return raw body as data (for backwards compatibility)
		return body, nil
	}

	if !resp.OK {
		if resp.Message != "" {
			return nil, fmt.Errorf("%s: %s", resp.Error, resp.Message)
		}
		return nil, fmt.Errorf("%s", resp.Error)
	}

	// If no data field, return the whole body (for backwards compatibility)
	if resp.Data == nil || len(resp.Data) == 0 {
		return body, nil
	}

	return resp.Data, nil
}

func main() {
	// Detect display mode
	mode := display.DetectForCLI()

	// No args - launch TUI if in TUI mode, otherwise show usage
	if len(os.Args) < 2 {
		if mode == display.ModeTUI {
			launchTUI()
			return
		}
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "help", "--help", "-h":
		printUsage()
	case "version", "--version", "-v":
		fmt.Printf("fixmyphone-edge-cli v%s\n", Version)
	case "config":
		handleConfig()
	case "status":
		handleStatus()
	case "sync":
		handleSyncList()
	case "drain":
		handleDrain()
	case "notify":
		handleNotify()
	case "info", "server-info":
		handleServerInfo()
	case "health", "healthz":
		handleHealth()
	case "login":
		// If TUI mode available, use TUI setup wizard
		if mode == display.ModeTUI {
			launchSetupWizard()
			return
		}
		handleLogin()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// launchTUI launches the main TUI application
func launchTUI() {
	cfg := loadConfig()

	// If no server configured, run setup wizard first
	if cfg.Server == "" {
		result, err := tui.RunSetupWizard()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Setup cancelled: %v\n", err)
			os.Exit(1)
		}

		// Save the configured values
		cfg.Server = result.ServerURL
		if result.APIToken != "" {
			cfg.Password = result.APIToken
		}
		if err := saveConfig(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save config: %v\n", err)
		}
	}

	// Launch main TUI app
	if err := tui.RunApp(cfg.Server, cfg.Password); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}

// launchSetupWizard launches the TUI setup wizard
func launchSetupWizard() {
	result, err := tui.RunSetupWizard()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Setup cancelled: %v\n", err)
		os.Exit(1)
	}

	// Save the configured values
	cfg := loadConfig()
	cfg.Server = result.ServerURL
	if result.APIToken != "" {
		cfg.Password = result.APIToken
	}

	if err := saveConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save config: %v\n", err)
	} else {
		fmt.Printf("Configuration saved to %s\n", getConfigPath())
	}
}

func printUsage() {
	fmt.Printf(`FixMyPhone Edge CLI v%s
A command-line client for FixMyPhone Edge servers.

Usage: fixmyphone-edge-cli <command> [options]

Commands:
  config              Show or edit configuration
  login               Configure server and credentials interactively
  status              Show worker, cache and connectivity status
  sync                List queued offline submissions
  drain               Trigger a sync drain pass now
  notify              Send a notification through the edge
  info, server-info   Get server information
  health, healthz     Check server health
  help                Show this help message
  version             Show version

Examples:
  # Configure server and credentials
  fixmyphone-edge-cli login

  # Show edge status
  fixmyphone-edge-cli status

  # List deferred requests and drain them
  fixmyphone-edge-cli sync
  fixmyphone-edge-cli drain

  # Send a test notification
  fixmyphone-edge-cli notify -t "Repair update" -b "Your screen repair is done"

Configuration:
  Config file: ~/.config/fixmyphone/edge/cli.yml

  Or use environment variables:
    FIXMYPHONE_SERVER=https://edge.fixmyphone.app
    FIXMYPHONE_USERNAME=admin
    FIXMYPHONE_PASSWORD=secret

`, Version)
}

// getConfigPath returns the path to the config file
func getConfigPath() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "fixmyphone", "edge", "cli.yml")
	}
	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fixmyphone", "edge", "cli.yml")
}

// loadConfig loads configuration from file and environment
func loadConfig() Config {
	var cfg Config

	// Load from file first
	configPath := getConfigPath()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err == nil {
			yaml.Unmarshal(data, &cfg)
		}
	}

	// Environment variables override file config
	if server := os.Getenv("FIXMYPHONE_SERVER"); server != "" {
		cfg.Server = server
	}
	if username := os.Getenv("FIXMYPHONE_USERNAME"); username != "" {
		cfg.Username = username
	}
	if password := os.Getenv("FIXMYPHONE_PASSWORD"); password != "" {
		cfg.Password = password
	}

	return cfg
}

// saveConfig saves configuration to file
func saveConfig(cfg Config) error {
	configPath := getConfigPath()
	if configPath == "" {
		return fmt.Errorf("could not determine config path")
	}

	// Create directory if needed
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with restricted permissions (contains password)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// makeRequest makes an HTTP request with optional basic auth
func makeRequest(method, endpoint string, body io.Reader, contentType string, cfg Config) (*http.Response, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("server not configured. Run 'fixmyphone-edge-cli login' first")
	}

	url := strings.TrimSuffix(cfg.Server, "/") + endpoint

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", "fixmyphone-edge-cli/"+Version)

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// Add basic auth if credentials are configured
	if cfg.Username != "" && cfg.Password != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	return client.Do(req)
}

// fetchData performs a request and unwraps the API response envelope.
func fetchData(method, endpoint string, body io.Reader, contentType string, cfg Config) (json.RawMessage, error) {
	resp, err := makeRequest(method, endpoint, body, contentType, cfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode == 401 {
		return nil, fmt.Errorf("authentication required. Run 'fixmyphone-edge-cli login' to configure credentials")
	}

	if resp.StatusCode == 429 {
		retryAfter := resp.Header.Get("Retry-After")
		return nil, fmt.Errorf("too many requests. Try again in %s seconds", retryAfter)
	}

	data, parseErr := parseAPIResponse(raw)
	if parseErr != nil {
		return nil, parseErr
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	return data, nil
}

func handleConfig() {
	cfg := loadConfig()
	configPath := getConfigPath()

	fmt.Printf("Config file: %s\n\n", configPath)
	fmt.Printf("Server:   %s\n", cfg.Server)
	fmt.Printf("Username: %s\n", cfg.Username)
	if cfg.Password != "" {
		fmt.Printf("Password: ******* (set)\n")
	} else {
		fmt.Printf("Password: (not set)\n")
	}
}

func handleLogin() {
	cfg := loadConfig()
	reader := bufio.NewReader(os.Stdin)

	// Server URL
	fmt.Printf("Server URL [%s]: ", cfg.Server)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input != "" {
		cfg.Server = input
	}

	// Username
	fmt.Printf("Username [%s]: ", cfg.Username)
	input, _ = reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input != "" {
		cfg.Username = input
	}

	// Password
	fmt.Print("Password: ")
	input, _ = reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input != "" {
		cfg.Password = input
	}

	// Test connection
	fmt.Print("\nTesting connection... ")
	resp, err := makeRequest("GET", "/api/v1/healthz", nil, "", cfg)
	if err != nil {
		fmt.Printf("FAILED\nError: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		fmt.Printf("FAILED\nServer returned: %s\n", resp.Status)
		os.Exit(1)
	}
	fmt.Println("OK")

	// Save config
	if err := saveConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save config: %v\n", err)
	} else {
		fmt.Printf("\nConfiguration saved to %s\n", getConfigPath())
	}
}

func handleStatus() {
	cfg := loadConfig()

	data, err := fetchData("GET", "/api/v1/status", nil, "", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var result StatusResponse
	if err := json.Unmarshal(data, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing response: %v\n", err)
		os.Exit(1)
	}

	connectivity := "online"
	if result.App.IsOffline {
		connectivity = "offline"
	}

	fmt.Printf("Worker:       %s\n", result.Worker)
	fmt.Printf("Cache:        %s\n", result.CacheName)
	fmt.Printf("Connectivity: %s\n", connectivity)
	fmt.Printf("Installed:    %v\n", result.App.IsInstalled)
	fmt.Printf("Queue depth:  %d\n", result.QueueDepth)

	if len(result.Stores) > 0 {
		fmt.Println("\nStores:")
		for _, s := range result.Stores {
			fmt.Printf("  %-30s %d entries\n", s.Name, s.Entries)
		}
	}
}

func handleSyncList() {
	cfg := loadConfig()

	data, err := fetchData("GET", "/api/v1/sync", nil, "", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var items []QueueItem
	if err := json.Unmarshal(data, &items); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing response: %v\n", err)
		os.Exit(1)
	}

	if len(items) == 0 {
		fmt.Println("Sync queue is empty")
		return
	}

	fmt.Printf("%-14s %-34s %-8s %s\n", "ID", "ENDPOINT", "TRIES", "QUEUED")
	fmt.Println(strings.Repeat("-", 72))

	for _, item := range items {
		endpoint := item.Endpoint
		if len(endpoint) > 32 {
			endpoint = endpoint[:29] + "..."
		}
		queued := time.Unix(item.QueuedAt, 0).Format("2006-01-02 15:04")
		fmt.Printf("%-14s %-34s %-8d %s\n", item.ID, endpoint, item.Attempts, queued)
	}
}

func handleDrain() {
	cfg := loadConfig()

	data, err := fetchData("POST", "/api/v1/sync/drain", nil, "", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var result DrainResponse
	if err := json.Unmarshal(data, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Synced: %d\n", result.Synced)
	fmt.Printf("Failed: %d\n", result.Failed)
	fmt.Printf("Remaining: %d\n", result.Depth)
}

func handleNotify() {
	cfg := loadConfig()

	// Parse flags
	var title, body, tag string
	var push bool

	args := os.Args[2:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-t", "--title":
			if i+1 < len(args) {
				title = args[i+1]
				i++
			}
		case "-b", "--body":
			if i+1 < len(args) {
				body = args[i+1]
				i++
			}
		case "--tag":
			if i+1 < len(args) {
				tag = args[i+1]
				i++
			}
		case "--push":
			push = true
		case "-h", "--help":
			fmt.Println(`Send a notification through the edge

Usage: fixmyphone-edge-cli notify [options]

Options:
  -t, --title TITLE  Notification title (required unless --push)
  -b, --body BODY    Notification body
  --tag TAG          Replace any notification carrying the same tag
  --push             Deliver as a push event (bypasses the permission gate)

Examples:
  fixmyphone-edge-cli notify -t "Repair update" -b "Your screen repair is done"
  fixmyphone-edge-cli notify --push`)
			return
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": title,
		"body":  body,
		"tag":   tag,
		"push":  push,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := fetchData("POST", "/api/v1/notify", bytes.NewReader(payload), "application/json", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var result NotifyResponse
	if err := json.Unmarshal(data, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing response: %v\n", err)
		os.Exit(1)
	}

	if result.Shown {
		fmt.Println("Notification shown")
	} else {
		fmt.Printf("Notification not shown (permission: %s)\n", result.Permission)
	}
}

func handleServerInfo() {
	cfg := loadConfig()

	data, err := fetchData("GET", "/api/v1/getServerInfo", nil, "", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var result ServerInfoResponse
	if err := json.Unmarshal(data, &result); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Server: %s\n", cfg.Server)
	fmt.Printf("Software: %s\n", result.Software)
	fmt.Printf("Version: %s\n", result.Version)
	fmt.Printf("Origin: %s\n", result.OriginURL)
	fmt.Printf("Cache Version: %s\n", result.CacheVersion)
	fmt.Printf("Precache Manifest: %d routes\n", len(result.Manifest))
	fmt.Printf("Admin: %s <%s>\n", result.AdminName, result.AdminMail)
}

func handleHealth() {
	cfg := loadConfig()

	resp, err := makeRequest("GET", "/api/v1/healthz", nil, "", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 200 {
		fmt.Printf("Server %s is healthy\n", cfg.Server)
	} else {
		fmt.Printf("Server %s returned: %s\n", cfg.Server, resp.Status)
		os.Exit(1)
	}
}
