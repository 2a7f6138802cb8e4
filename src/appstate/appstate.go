// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

// Package appstate keeps the installability, install and connectivity
// state of the app and exposes the action surface the UI consumes.
// Platform events arrive through the Handle* methods, platform
// capabilities (share, clipboard, display mode) are injected so that
// callers never touch the platform directly.
package appstate

import (
	"context"
	"errors"
	"sync"

	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/metrics"
	"github.com/fixmyphone/edge/src/notify"
)

// ErrUnsupported is returned by platform capability implementations
// when the underlying API is absent.
var ErrUnsupported = errors.New("appstate: platform API unsupported")

// RuntimeState is the derived boolean state exposed to the UI.
type RuntimeState struct {
	IsInstallable bool `json:"is_installable"`
	IsInstalled   bool `json:"is_installed"`
	IsOffline     bool `json:"is_offline"`
}

// ShareData is the payload for a native share.
type ShareData struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

// Sharer performs a platform-native share. Implementations return
// ErrUnsupported when the share API is absent.
type Sharer interface {
	Share(ctx context.Context, data ShareData) error
}

// Clipboard writes text to the platform clipboard. Used as the share
// fallback when native share is unsupported.
type Clipboard interface {
	WriteText(text string) error
}

// ConnectivityProvider snapshots current connectivity at startup.
type ConnectivityProvider interface {
	Online() bool
}

// DisplayModeProvider reports whether the app runs in an installed
// display context.
type DisplayModeProvider interface {
	Standalone() bool
}

// Registrar is the cache controller registration triggered once at
// startup, fire-and-forget.
type Registrar interface {
	Install(ctx context.Context) error
	Activate(ctx context.Context) error
}

// Controller owns the runtime state and the action surface.
type Controller struct {
	mu          sync.Mutex
	installable bool
	installed   bool
	offline     bool
	token       *PromptToken

	share     Sharer
	clipboard Clipboard
	notifier  *notify.Notifier
	defaults  ShareData
	log       logger.Logger
}

// Options carries the injected platform capabilities. Every field may
// be nil, which models an absent platform API.
type Options struct {
	Connectivity ConnectivityProvider
	DisplayMode  DisplayModeProvider
	Share        Sharer
	Clipboard    Clipboard
	Notifier     *notify.Notifier
	ShareDefault ShareData
}

// New computes the initial state from the injected providers.
func New(opts Options, log logger.Logger) *Controller {
	c := &Controller{
		share:     opts.Share,
		clipboard: opts.Clipboard,
		notifier:  opts.Notifier,
		defaults:  opts.ShareDefault,
		log:       log,
	}
	if opts.DisplayMode != nil {
		c.installed = opts.DisplayMode.Standalone()
	}
	if opts.Connectivity != nil {
		c.offline = !opts.Connectivity.Online()
	}
	metrics.SetConnectivity(!c.offline)
	return c
}

// Register triggers the cache controller lifecycle once,
// fire-and-forget. Failure is logged and never blocks initialization.
func (c *Controller) Register(ctx context.Context, reg Registrar) {
	go func() {
		if err := reg.Install(ctx); err != nil {
			c.log.Error(err)
			return
		}
		if err := reg.Activate(ctx); err != nil {
			c.log.Error(err)
		}
	}()
}

// State returns a snapshot of the derived state.
func (c *Controller) State() RuntimeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return RuntimeState{
		IsInstallable: c.installable,
		IsInstalled:   c.installed,
		IsOffline:     c.offline,
	}
}

// HandleInstallAvailable captures the one-shot prompt token delivered
// with the install-availability event.
func (c *Controller) HandleInstallAvailable(token *PromptToken) {
	c.mu.Lock()
	c.token = token
	c.installable = true
	c.mu.Unlock()
}

// HandleInstallCompleted marks the app installed and discards any held
// prompt token. Installed state never transitions back.
func (c *Controller) HandleInstallCompleted() {
	c.mu.Lock()
	c.installable = false
	c.installed = true
	c.token = nil
	c.mu.Unlock()
}

// SetOffline reflects the platform's last-reported connectivity state,
// no debouncing.
func (c *Controller) SetOffline(offline bool) {
	c.mu.Lock()
	c.offline = offline
	c.mu.Unlock()
	metrics.SetConnectivity(!offline)
}

// InstallApp runs the captured prompt exactly once. Without a token,
// or with an already-consumed one, it returns false and performs no
// prompt call. The token is discarded regardless of the outcome.
func (c *Controller) InstallApp(ctx context.Context) bool {
	c.mu.Lock()
	token := c.token
	c.token = nil
	c.installable = false
	c.mu.Unlock()

	prompt, ok := token.Take()
	if !ok {
		return false
	}

	accepted, err := prompt(ctx)
	if err != nil {
		c.log.Error(err)
		return false
	}
	return accepted
}

// ShareApp shares the given data, falling back to the default payload
// when data is nil and to the clipboard when native share is absent.
// It reports success and never panics on missing capabilities.
func (c *Controller) ShareApp(ctx context.Context, data *ShareData) bool {
	payload := c.defaults
	if data != nil {
		payload = *data
	}

	if c.share != nil {
		err := c.share.Share(ctx, payload)
		if err == nil {
			return true
		}
		if !errors.Is(err, ErrUnsupported) {
			c.log.Error(err)
			return false
		}
	}

	if c.clipboard == nil {
		return false
	}
	if err := c.clipboard.WriteText(payload.URL); err != nil {
		c.log.Error(err)
		return false
	}
	return true
}

// RequestNotificationPermission delegates to the notifier's sticky
// permission state machine. With no notifier configured it reports
// false.
func (c *Controller) RequestNotificationPermission(ctx context.Context) bool {
	if c.notifier == nil {
		return false
	}
	return c.notifier.RequestPermission(ctx)
}

// ShowNotification displays a notification through the notifier,
// returning nil unless permission is granted.
func (c *Controller) ShowNotification(title string, opts *notify.Options) *notify.Notification {
	if c.notifier == nil {
		return nil
	}
	return c.notifier.Show(title, opts)
}
