// This file is part of FixMyPhone Edge.

// FixMyPhone Edge is free software released under the MIT License.
// See LICENSE.md file for details.

package appstate

import (
	"context"
	"sync/atomic"
)

// PromptFunc runs the platform install prompt and reports whether the
// user accepted.
type PromptFunc func(ctx context.Context) (accepted bool, err error)

// PromptToken wraps a single-use install prompt handle. The platform
// contract allows exactly one prompt per handle, so Take consumes the
// token atomically and every later Take reports false.
type PromptToken struct {
	used   atomic.Bool
	prompt PromptFunc
}

// NewPromptToken wraps a prompt callback in a one-shot token.
func NewPromptToken(prompt PromptFunc) *PromptToken {
	return &PromptToken{prompt: prompt}
}

// Take consumes the token. The first call returns the prompt function
// and true, every subsequent call returns nil and false.
func (t *PromptToken) Take() (PromptFunc, bool) {
	if t == nil || t.used.Swap(true) {
		return nil, false
	}
	return t.prompt, true
}

// Used reports whether the token has been consumed.
func (t *PromptToken) Used() bool {
	return t == nil || t.used.Load()
}
