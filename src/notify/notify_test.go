// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package notify

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
)

type recordSink struct {
	mu        sync.Mutex
	displayed []Notification
	dismissed []string
	failWith  error
}

func (s *recordSink) Display(n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.displayed = append(s.displayed, n)
	return nil
}

func (s *recordSink) Dismiss(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = append(s.dismissed, tag)
}

func (s *recordSink) dismissCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dismissed)
}

type fakePrompter struct {
	grant bool
	err   error
	calls int
}

func (p *fakePrompter) RequestPermission(ctx context.Context) (bool, error) {
	p.calls++
	return p.grant, p.err
}

func testLog() logger.Logger {
	log := logger.New(time.RFC3339)
	log.SetWriters(io.Discard, io.Discard)
	return log
}

func TestRequestPermissionGrant(t *testing.T) {
	prompter := &fakePrompter{grant: true}
	nf := New(PermissionDefault, &recordSink{}, prompter, 0, testLog())

	assert.True(t, nf.RequestPermission(context.Background()))
	assert.Equal(t, PermissionGranted, nf.Permission())
	assert.Equal(t, 1, prompter.calls)

	// Already granted short-circuits without a second prompt
	assert.True(t, nf.RequestPermission(context.Background()))
	assert.Equal(t, 1, prompter.calls)
}

func TestRequestPermissionDeniedIsSticky(t *testing.T) {
	prompter := &fakePrompter{grant: false}
	nf := New(PermissionDefault, &recordSink{}, prompter, 0, testLog())

	assert.False(t, nf.RequestPermission(context.Background()))
	assert.Equal(t, PermissionDenied, nf.Permission())
	assert.Equal(t, 1, prompter.calls)

	// Denied never prompts again
	assert.False(t, nf.RequestPermission(context.Background()))
	assert.Equal(t, 1, prompter.calls)
}

func TestRequestPermissionNoPrompter(t *testing.T) {
	nf := New(PermissionDefault, &recordSink{}, nil, 0, testLog())

	assert.False(t, nf.RequestPermission(context.Background()))
	assert.Equal(t, PermissionDefault, nf.Permission())
}

func TestRequestPermissionPrompterError(t *testing.T) {
	prompter := &fakePrompter{err: errors.New("dialog closed")}
	nf := New(PermissionDefault, &recordSink{}, prompter, 0, testLog())

	assert.False(t, nf.RequestPermission(context.Background()))
	// An errored prompt leaves the state undecided
	assert.Equal(t, PermissionDefault, nf.Permission())
}

func TestShowMergesDefaults(t *testing.T) {
	sink := &recordSink{}
	nf := New(PermissionGranted, sink, nil, 0, testLog())

	n := nf.Show("Repair Ready", &Options{Body: "Your phone is ready for pickup."})
	require.NotNil(t, n)
	require.Len(t, sink.displayed, 1)

	got := sink.displayed[0]
	assert.Equal(t, "Repair Ready", got.Title)
	assert.Equal(t, "Your phone is ready for pickup.", got.Body)
	assert.Equal(t, DefaultIcon, got.Icon)
	assert.Equal(t, DefaultBadge, got.Badge)
	assert.Equal(t, DefaultVibration, got.Vibration)
	require.Len(t, got.Actions, 2)
	assert.Equal(t, ActionExplore, got.Actions[0].ID)
	assert.Equal(t, ActionClose, got.Actions[1].ID)
}

func TestShowWithoutPermission(t *testing.T) {
	sink := &recordSink{}
	nf := New(PermissionDefault, sink, nil, 0, testLog())

	assert.Nil(t, nf.Show("Repair Ready", nil))
	assert.Empty(t, sink.displayed)
}

func TestShowSinkError(t *testing.T) {
	sink := &recordSink{failWith: errors.New("display unavailable")}
	nf := New(PermissionGranted, sink, nil, 0, testLog())

	assert.Nil(t, nf.Show("Repair Ready", nil))
}

func TestShowSelfDismiss(t *testing.T) {
	sink := &recordSink{}
	nf := New(PermissionGranted, sink, nil, 10*time.Millisecond, testLog())

	require.NotNil(t, nf.Show("Repair Ready", &Options{Tag: "repair-42"}))

	assert.Eventually(t, func() bool {
		return sink.dismissCount() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "repair-42", sink.dismissed[0])
}

func TestHandlePushUsesPayloadBody(t *testing.T) {
	sink := &recordSink{}
	nf := New(PermissionDefault, sink, nil, 0, testLog())

	n := nf.HandlePush([]byte("Technician assigned to your repair."))
	require.NotNil(t, n)
	assert.Equal(t, "FixMyPhone", n.Title)
	assert.Equal(t, "Technician assigned to your repair.", n.Body)
}

func TestHandlePushEmptyPayload(t *testing.T) {
	sink := &recordSink{}
	nf := New(PermissionDefault, sink, nil, 0, testLog())

	n := nf.HandlePush(nil)
	require.NotNil(t, n)
	assert.Equal(t, DefaultMessage, n.Body)
}

func TestClickTarget(t *testing.T) {
	assert.Equal(t, AppRootRoute, ClickTarget(""))
	assert.Equal(t, DashboardRoute, ClickTarget(ActionExplore))
	assert.Equal(t, "", ClickTarget(ActionClose))
	assert.Equal(t, "", ClickTarget("unknown"))
}
