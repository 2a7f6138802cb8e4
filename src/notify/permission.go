// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package notify

import "context"

// Permission is the notification permission state.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Permission returns the current permission state.
func (nf *Notifier) Permission() Permission {
	nf.mu.Lock()
	defer nf.mu.Unlock()
	return nf.permission
}

// RequestPermission asks the user for notification permission.
// A denied state is sticky: once denied, no further prompt is shown
// and the call reports false. An already granted state short-circuits
// to true without prompting. An absent prompter reports false.
func (nf *Notifier) RequestPermission(ctx context.Context) bool {
	nf.mu.Lock()
	switch nf.permission {
	case PermissionGranted:
		nf.mu.Unlock()
		return true
	case PermissionDenied:
		nf.mu.Unlock()
		return false
	}
	prompter := nf.prompter
	nf.mu.Unlock()

	if prompter == nil {
		return false
	}

	granted, err := prompter.RequestPermission(ctx)
	if err != nil {
		nf.log.Error(err)
		return false
	}

	nf.mu.Lock()
	if granted {
		nf.permission = PermissionGranted
	} else {
		nf.permission = PermissionDenied
	}
	nf.mu.Unlock()
	return granted
}
