// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package extension

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/embermush/embermush/internal/overlay"
)

// Compile-time interface check.
var _ overlay.Lifecycle = (*Notifier)(nil)

// Notifier delivers unload notifications to subscribers. Each subscription
// fires at most once: NotifyUnload drops every subscription for the
// extension after running it, and Cancel before that point suppresses it.
type Notifier struct {
	subs map[ulid.ULID]map[uint64]func(ctx context.Context)
	next uint64
	mu   sync.Mutex
}

// NewNotifier creates an unload notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[ulid.ULID]map[uint64]func(ctx context.Context)),
	}
}

// OnUnload subscribes fn to the extension's unload. The returned cancel is
// idempotent and safe to call from inside the callback itself.
func (n *Notifier) OnUnload(ext overlay.Extension, fn func(ctx context.Context)) (overlay.UnloadCancel, error) {
	if ext == nil {
		return nil, oops.In("extension").Errorf("cannot subscribe to unload of nil extension")
	}
	if fn == nil {
		return nil, oops.In("extension").With("extension", ext.Name()).Errorf("unload callback cannot be nil")
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	id := ext.ID()
	if n.subs[id] == nil {
		n.subs[id] = make(map[uint64]func(ctx context.Context))
	}
	token := n.next
	n.next++
	n.subs[id][token] = fn

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if callbacks, ok := n.subs[id]; ok {
			delete(callbacks, token)
			if len(callbacks) == 0 {
				delete(n.subs, id)
			}
		}
	}
	return cancel, nil
}

// NotifyUnload fires every subscription for the extension exactly once.
// Callbacks run outside the notifier lock, so they may subscribe or cancel
// freely.
func (n *Notifier) NotifyUnload(ctx context.Context, ext overlay.Extension) {
	if ext == nil {
		return
	}

	n.mu.Lock()
	callbacks := n.subs[ext.ID()]
	delete(n.subs, ext.ID())
	n.mu.Unlock()

	for _, fn := range callbacks {
		fn(ctx)
	}
}
