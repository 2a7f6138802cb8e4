// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package notify displays app notifications: push-triggered repair
// updates and notifications requested through the app-state actions.
// Platform capability absence (no sink, no prompter) is an expected
// condition, never an error surfaced to callers.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/metrics"
)

// Default display contract: asset paths, vibration pattern and the two
// named actions merged under caller/payload-supplied overrides.
const (
	DefaultIcon    = "/icons/icon-192x192.png"
	DefaultBadge   = "/icons/badge-72x72.png"
	DefaultMessage = "You have an update on your repair."
	// AppRootRoute opens on a primary notification click
	AppRootRoute = "/"
	// DashboardRoute opens on the explore action
	DashboardRoute = "/dashboard"
	// ActionExplore opens the dashboard
	ActionExplore = "explore"
	// ActionClose dismisses the notification
	ActionClose = "close"
)

// DefaultVibration is the vibration pattern applied unless overridden.
var DefaultVibration = []int{100, 50, 100}

// Action is a named button on a notification.
type Action struct {
	ID    string `json:"action"`
	Title string `json:"title"`
}

// Notification is a fully resolved notification ready for display.
type Notification struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Icon      string   `json:"icon"`
	Badge     string   `json:"badge"`
	Vibration []int    `json:"vibrate"`
	Actions   []Action `json:"actions"`
	Tag       string   `json:"tag"`
}

// Options are caller-supplied overrides merged over the defaults.
type Options struct {
	Body      string
	Icon      string
	Badge     string
	Vibration []int
	Actions   []Action
	Tag       string
}

// Sink is where resolved notifications are delivered.
type Sink interface {
	Display(n Notification) error
	Dismiss(tag string)
}

// Prompter asks the user for notification permission. A nil Prompter
// models a platform without a notification API.
type Prompter interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// Notifier owns the permission state machine and the display defaults.
type Notifier struct {
	mu         sync.Mutex
	permission Permission

	sink         Sink
	prompter     Prompter
	dismissAfter time.Duration
	log          logger.Logger
}

// New builds a notifier starting from the given permission state.
func New(initial Permission, sink Sink, prompter Prompter, dismissAfter time.Duration, log logger.Logger) *Notifier {
	if initial == "" {
		initial = PermissionDefault
	}
	return &Notifier{
		permission:   initial,
		sink:         sink,
		prompter:     prompter,
		dismissAfter: dismissAfter,
		log:          log,
	}
}

// resolve merges defaults under overrides.
func resolve(title string, opts *Options) Notification {
	n := Notification{
		Title:     title,
		Body:      DefaultMessage,
		Icon:      DefaultIcon,
		Badge:     DefaultBadge,
		Vibration: DefaultVibration,
		Actions: []Action{
			{ID: ActionExplore, Title: "View Details"},
			{ID: ActionClose, Title: "Close"},
		},
	}
	if opts == nil {
		return n
	}

	if opts.Body != "" {
		n.Body = opts.Body
	}
	if opts.Icon != "" {
		n.Icon = opts.Icon
	}
	if opts.Badge != "" {
		n.Badge = opts.Badge
	}
	if opts.Vibration != nil {
		n.Vibration = opts.Vibration
	}
	if opts.Actions != nil {
		n.Actions = opts.Actions
	}
	n.Tag = opts.Tag
	return n
}

// Show displays a notification if permission is granted, returning the
// resolved notification or nil. It never returns an error: a missing
// permission or sink is normal and yields nil.
func (nf *Notifier) Show(title string, opts *Options) *Notification {
	if nf.Permission() != PermissionGranted || nf.sink == nil {
		metrics.NotificationsShownTotal.WithLabelValues("no-permission").Inc()
		return nil
	}

	n := resolve(title, opts)
	if err := nf.sink.Display(n); err != nil {
		metrics.NotificationsShownTotal.WithLabelValues("sink-error").Inc()
		nf.log.Error(err)
		return nil
	}
	metrics.NotificationsShownTotal.WithLabelValues("shown").Inc()

	// Self-dismiss after a fixed delay
	if nf.dismissAfter > 0 {
		tag := n.Tag
		time.AfterFunc(nf.dismissAfter, func() {
			nf.sink.Dismiss(tag)
		})
	}
	return &n
}

// HandlePush displays a push-event payload with the fixed defaults.
// Push display bypasses the page permission gate: holding a push
// subscription already implies granted permission.
func (nf *Notifier) HandlePush(payload []byte) *Notification {
	if nf.sink == nil {
		metrics.NotificationsShownTotal.WithLabelValues("no-sink").Inc()
		return nil
	}

	body := DefaultMessage
	if len(payload) > 0 {
		body = string(payload)
	}

	n := resolve("FixMyPhone", &Options{Body: body})
	if err := nf.sink.Display(n); err != nil {
		metrics.NotificationsShownTotal.WithLabelValues("sink-error").Inc()
		nf.log.Error(err)
		return nil
	}
	metrics.NotificationsShownTotal.WithLabelValues("shown").Inc()
	return &n
}

// ClickTarget maps a notification click to the route to open.
// Primary click (empty action) opens the app root, the explore action
// opens the dashboard, close dismisses and opens nothing.
func ClickTarget(action string) string {
	switch action {
	case "":
		return AppRootRoute
	case ActionExplore:
		return DashboardRoute
	default:
		return ""
	}
}
