// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Main TUI application
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// View represents different screens in the TUI
type View int

const (
	ViewDashboard View = iota
	ViewStatus
	ViewSyncQueue
	ViewSettings
	ViewHelp
)

// AppModel represents the main TUI application state
type AppModel struct {
	serverURL    string
	apiToken     string
	currentView  View
	width        int
	height       int
	menuItems    []MenuItem
	selectedMenu int
	statusMsg    string
	errorMsg     string

	// View-specific data
	queueItems  []QueueItem
	workerState string
	cacheName   string
	queueDepth  int
	offline     bool
}

// MenuItem represents a menu item
type MenuItem struct {
	Label string
	View  View
	Key   string
}

// QueueItem represents a deferred request in the sync queue
type QueueItem struct {
	ID       string
	Endpoint string
	Attempts int
	QueuedAt string
}

// NewAppModel creates a new TUI application model
func NewAppModel(serverURL, apiToken string) AppModel {
	return AppModel{
		serverURL:   serverURL,
		apiToken:    apiToken,
		currentView: ViewDashboard,
		menuItems: []MenuItem{
			{Label: "Dashboard", View: ViewDashboard, Key: "d"},
			{Label: "Edge Status", View: ViewStatus, Key: "t"},
			{Label: "Sync Queue", View: ViewSyncQueue, Key: "y"},
			{Label: "Settings", View: ViewSettings, Key: "s"},
			{Label: "Help", View: ViewHelp, Key: "?"},
		},
		workerState: "unknown",
	}
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		// Global keys
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "d":
			m.currentView = ViewDashboard
		case "t":
			m.currentView = ViewStatus
		case "y":
			m.currentView = ViewSyncQueue
		case "s":
			m.currentView = ViewSettings
		case "?":
			m.currentView = ViewHelp

		case "up", "k":
			if m.selectedMenu > 0 {
				m.selectedMenu--
			}
		case "down", "j":
			if m.selectedMenu < len(m.menuItems)-1 {
				m.selectedMenu++
			}
		case "enter":
			if m.currentView == ViewDashboard {
				m.currentView = m.menuItems[m.selectedMenu].View
			}
		}
	}

	return m, nil
}

// View renders the application
func (m AppModel) View() string {
	// Build the main layout
	var content string

	switch m.currentView {
	case ViewDashboard:
		content = m.dashboardView()
	case ViewStatus:
		content = m.statusView()
	case ViewSyncQueue:
		content = m.syncQueueView()
	case ViewSettings:
		content = m.settingsView()
	case ViewHelp:
		content = m.helpView()
	default:
		content = m.dashboardView()
	}

	// Header
	header := m.headerView()

	// Footer with help
	footer := m.footerView()

	return header + "\n" + content + "\n" + footer
}

func (m AppModel) headerView() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		Render("FIXMYPHONE EDGE")

	server := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Render(" • " + m.serverURL)

	return boxStyle.Width(m.width - 4).Render(title + server)
}

func (m AppModel) footerView() string {
	help := "q: quit • d: dashboard • t: status • y: sync queue • s: settings • ?: help"
	return helpStyle.Render(help)
}

func (m AppModel) dashboardView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Dashboard") + "\n\n")

	// Menu
	for i, item := range m.menuItems {
		cursor := "  "
		style := blurredStyle
		if i == m.selectedMenu {
			cursor = "> "
			style = focusedStyle
		}
		b.WriteString(cursor + style.Render(fmt.Sprintf("[%s] %s", item.Key, item.Label)) + "\n")
	}

	b.WriteString("\n" + subtitleStyle.Render("Press enter to select, or use keyboard shortcuts"))

	return b.String()
}

func (m AppModel) statusView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Edge Status") + "\n\n")

	connectivity := "online"
	connStyle := successStyle
	if m.offline {
		connectivity = "offline"
		connStyle = errorStyle
	}

	b.WriteString(fmt.Sprintf("Worker:       %s\n", m.workerState))
	if m.cacheName != "" {
		b.WriteString(fmt.Sprintf("Cache:        %s\n", m.cacheName))
	}
	b.WriteString(fmt.Sprintf("Connectivity: %s\n", connStyle.Render(connectivity)))
	b.WriteString(fmt.Sprintf("Queue depth:  %d\n", m.queueDepth))

	if m.statusMsg != "" {
		b.WriteString("\n" + successStyle.Render(m.statusMsg))
	}
	if m.errorMsg != "" {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.errorMsg))
	}

	return b.String()
}

func (m AppModel) syncQueueView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Sync Queue") + "\n\n")

	if len(m.queueItems) == 0 {
		b.WriteString(subtitleStyle.Render("Queue is empty. Deferred requests appear here while offline."))
	} else {
		// Header
		b.WriteString(fmt.Sprintf("%-12s %-34s %-8s %s\n", "ID", "ENDPOINT", "TRIES", "QUEUED"))
		b.WriteString(strings.Repeat("-", 70) + "\n")

		for _, q := range m.queueItems {
			endpoint := q.Endpoint
			if len(endpoint) > 32 {
				endpoint = endpoint[:29] + "..."
			}
			b.WriteString(fmt.Sprintf("%-12s %-34s %-8d %s\n", q.ID, endpoint, q.Attempts, q.QueuedAt))
		}
	}

	return b.String()
}

func (m AppModel) settingsView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Settings") + "\n\n")

	b.WriteString(fmt.Sprintf("Server: %s\n", m.serverURL))
	if m.apiToken != "" {
		b.WriteString("API Token: ******** (configured)\n")
	} else {
		b.WriteString("API Token: (not configured)\n")
	}

	b.WriteString("\n" + subtitleStyle.Render("Edit ~/.config/fixmyphone/edge/cli.yml to change settings"))

	return b.String()
}

func (m AppModel) helpView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Help") + "\n\n")

	help := []struct {
		key  string
		desc string
	}{
		{"d", "Go to dashboard"},
		{"t", "Show edge status"},
		{"y", "Show sync queue"},
		{"s", "Settings"},
		{"?", "Show this help"},
		{"q", "Quit"},
		{"", ""},
		{"up/k", "Move up"},
		{"down/j", "Move down"},
		{"enter", "Select"},
		{"tab", "Next field"},
		{"esc", "Cancel/back"},
	}

	for _, h := range help {
		if h.key == "" {
			b.WriteString("\n")
		} else {
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.key, h.desc))
		}
	}

	return b.String()
}

// RunApp launches the main TUI application
func RunApp(serverURL, apiToken string) error {
	model := NewAppModel(serverURL, apiToken)
	p := tea.NewProgram(model, tea.WithAltScreen())

	_, err := p.Run()
	return err
}
