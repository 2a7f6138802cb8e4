// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package appstate

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fixmyphone/edge/src/logger"
	"github.com/fixmyphone/edge/src/notify"
)

type staticConnectivity struct{ online bool }

func (s staticConnectivity) Online() bool { return s.online }

type staticDisplay struct{ standalone bool }

func (s staticDisplay) Standalone() bool { return s.standalone }

type fakeSharer struct {
	err   error
	calls int
	last  ShareData
}

func (f *fakeSharer) Share(ctx context.Context, data ShareData) error {
	f.calls++
	f.last = data
	return f.err
}

type fakeClipboard struct {
	err   error
	texts []string
}

func (f *fakeClipboard) WriteText(text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

func testLog() logger.Logger {
	log := logger.New(time.RFC3339)
	log.SetWriters(io.Discard, io.Discard)
	return log
}

func TestInitialState(t *testing.T) {
	c := New(Options{
		Connectivity: staticConnectivity{online: false},
		DisplayMode:  staticDisplay{standalone: true},
	}, testLog())

	state := c.State()
	assert.False(t, state.IsInstallable)
	assert.True(t, state.IsInstalled)
	assert.True(t, state.IsOffline)
}

func TestInstallAvailabilityFlow(t *testing.T) {
	c := New(Options{}, testLog())
	assert.False(t, c.State().IsInstallable)

	c.HandleInstallAvailable(NewPromptToken(func(ctx context.Context) (bool, error) {
		return true, nil
	}))
	assert.True(t, c.State().IsInstallable)

	c.HandleInstallCompleted()
	state := c.State()
	assert.False(t, state.IsInstallable)
	assert.True(t, state.IsInstalled)
}

func TestInstallAppAccepted(t *testing.T) {
	prompts := 0
	c := New(Options{}, testLog())
	c.HandleInstallAvailable(NewPromptToken(func(ctx context.Context) (bool, error) {
		prompts++
		return true, nil
	}))

	assert.True(t, c.InstallApp(context.Background()))
	assert.Equal(t, 1, prompts)
}

func TestInstallAppSecondCallNoPrompt(t *testing.T) {
	prompts := 0
	c := New(Options{}, testLog())
	c.HandleInstallAvailable(NewPromptToken(func(ctx context.Context) (bool, error) {
		prompts++
		return true, nil
	}))

	assert.True(t, c.InstallApp(context.Background()))

	// The token is single-use. Without a fresh availability event the
	// second call fails and performs no prompt.
	assert.False(t, c.InstallApp(context.Background()))
	assert.Equal(t, 1, prompts)
}

func TestInstallAppWithoutToken(t *testing.T) {
	c := New(Options{}, testLog())
	assert.False(t, c.InstallApp(context.Background()))
}

func TestInstallAppDismissed(t *testing.T) {
	c := New(Options{}, testLog())
	c.HandleInstallAvailable(NewPromptToken(func(ctx context.Context) (bool, error) {
		return false, nil
	}))

	assert.False(t, c.InstallApp(context.Background()))
}

func TestPromptTokenTakeIsOneShot(t *testing.T) {
	token := NewPromptToken(func(ctx context.Context) (bool, error) { return true, nil })

	var wg sync.WaitGroup
	taken := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := token.Take(); ok {
				taken <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(taken)

	count := 0
	for range taken {
		count++
	}
	assert.Equal(t, 1, count)
	assert.True(t, token.Used())
}

func TestShareAppNative(t *testing.T) {
	sharer := &fakeSharer{}
	c := New(Options{
		Share:        sharer,
		ShareDefault: ShareData{Title: "FixMyPhone", Text: "Book a phone repair", URL: "https://fixmyphone.app"},
	}, testLog())

	assert.True(t, c.ShareApp(context.Background(), nil))
	assert.Equal(t, 1, sharer.calls)
	assert.Equal(t, "https://fixmyphone.app", sharer.last.URL)
}

func TestShareAppClipboardFallback(t *testing.T) {
	sharer := &fakeSharer{err: ErrUnsupported}
	clip := &fakeClipboard{}
	c := New(Options{
		Share:        sharer,
		Clipboard:    clip,
		ShareDefault: ShareData{URL: "https://fixmyphone.app"},
	}, testLog())

	assert.True(t, c.ShareApp(context.Background(), nil))
	require.Len(t, clip.texts, 1)
	assert.Equal(t, "https://fixmyphone.app", clip.texts[0])
}

func TestShareAppNoCapabilities(t *testing.T) {
	c := New(Options{}, testLog())
	assert.False(t, c.ShareApp(context.Background(), nil))
}

func TestShareAppShareError(t *testing.T) {
	sharer := &fakeSharer{err: errors.New("share cancelled")}
	clip := &fakeClipboard{}
	c := New(Options{Share: sharer, Clipboard: clip}, testLog())

	// A real share failure does not fall through to the clipboard
	assert.False(t, c.ShareApp(context.Background(), nil))
	assert.Empty(t, clip.texts)
}

func TestShareAppOverrides(t *testing.T) {
	sharer := &fakeSharer{}
	c := New(Options{
		Share:        sharer,
		ShareDefault: ShareData{URL: "https://fixmyphone.app"},
	}, testLog())

	data := &ShareData{Title: "My repair", URL: "https://fixmyphone.app/repair/42"}
	assert.True(t, c.ShareApp(context.Background(), data))
	assert.Equal(t, "https://fixmyphone.app/repair/42", sharer.last.URL)
}

func TestRequestNotificationPermissionWithoutNotifier(t *testing.T) {
	c := New(Options{}, testLog())
	assert.False(t, c.RequestNotificationPermission(context.Background()))
}

func TestRequestNotificationPermissionDeniedIsSticky(t *testing.T) {
	notifier := notify.New(notify.PermissionDenied, nil, nil, 0, testLog())
	c := New(Options{Notifier: notifier}, testLog())

	assert.False(t, c.RequestNotificationPermission(context.Background()))
}

func TestShowNotificationWithoutNotifier(t *testing.T) {
	c := New(Options{}, testLog())
	assert.Nil(t, c.ShowNotification("Repair Ready", nil))
}

type flipProber struct {
	mu     sync.Mutex
	online bool
}

func (p *flipProber) Probe(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *flipProber) set(online bool) {
	p.mu.Lock()
	p.online = online
	p.mu.Unlock()
}

func TestWatcherReconnectNudgesSync(t *testing.T) {
	c := New(Options{Connectivity: staticConnectivity{online: false}}, testLog())
	prober := &flipProber{online: false}

	var mu sync.Mutex
	nudges := 0
	w := NewWatcher(c, prober, 5*time.Millisecond, func(ctx context.Context) {
		mu.Lock()
		nudges++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	prober.set(true)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return nudges >= 1 && !c.State().IsOffline
	}, time.Second, 5*time.Millisecond)

	// Staying online does not nudge again
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, nudges)
	mu.Unlock()
}

func TestWatcherGoingOffline(t *testing.T) {
	c := New(Options{Connectivity: staticConnectivity{online: true}}, testLog())
	prober := &flipProber{online: true}

	w := NewWatcher(c, prober, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	prober.set(false)
	assert.Eventually(t, func() bool {
		return c.State().IsOffline
	}, time.Second, 5*time.Millisecond)
}

func TestRegisterIsFireAndForget(t *testing.T) {
	c := New(Options{}, testLog())

	done := make(chan struct{})
	c.Register(context.Background(), registrarFunc{install: func(ctx context.Context) error {
		return errors.New("install failed")
	}, activate: func(ctx context.Context) error {
		close(done)
		return nil
	}})

	// Install failure stops the sequence; Activate never runs
	select {
	case <-done:
		t.Fatal("activate ran after failed install")
	case <-time.After(50 * time.Millisecond):
	}
}

type registrarFunc struct {
	install  func(ctx context.Context) error
	activate func(ctx context.Context) error
}

func (r registrarFunc) Install(ctx context.Context) error  { return r.install(ctx) }
func (r registrarFunc) Activate(ctx context.Context) error { return r.activate(ctx) }
