// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package overlay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
)

// LifecycleBinder keeps exactly one unload subscription per extension that
// owns registrations, and drives teardown in both registries when the
// extension goes away. Teardown is idempotent: a duplicate unload
// notification finds no hook and is a no-op.
type LifecycleBinder struct {
	lifecycle Lifecycle
	console   *ConsoleRegistry
	chat      *ChatRegistry
	hooks     map[ulid.ULID]UnloadCancel
	mu        sync.Mutex
}

// NewLifecycleBinder creates a binder over the given lifecycle and
// registries. Returns an error if any collaborator is nil.
func NewLifecycleBinder(lifecycle Lifecycle, console *ConsoleRegistry, chat *ChatRegistry) (*LifecycleBinder, error) {
	if lifecycle == nil {
		return nil, ErrNilLifecycle
	}
	if console == nil || chat == nil {
		return nil, ErrNilRegistry
	}
	return &LifecycleBinder{
		lifecycle: lifecycle,
		console:   console,
		chat:      chat,
		hooks:     make(map[ulid.ULID]UnloadCancel),
	}, nil
}

// EnsureHooked subscribes to the extension's unload notification if no
// subscription exists yet. Safe to call on every registration.
func (b *LifecycleBinder) EnsureHooked(ext Extension) error {
	if ext == nil {
		return ErrNilExtension("")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, hooked := b.hooks[ext.ID()]; hooked {
		return nil
	}

	cancel, err := b.lifecycle.OnUnload(ext, func(ctx context.Context) {
		b.teardown(ctx, ext)
	})
	if err != nil {
		return err
	}
	b.hooks[ext.ID()] = cancel
	return nil
}

// Hooked reports whether an unload subscription exists for the extension.
func (b *LifecycleBinder) Hooked(id ulid.ULID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.hooks[id]
	return ok
}

// teardown unwinds both registries for the extension, then cancels and
// forgets the subscription. The hook presence check guards against
// double-teardown.
func (b *LifecycleBinder) teardown(ctx context.Context, ext Extension) {
	b.mu.Lock()
	cancel, ok := b.hooks[ext.ID()]
	if !ok {
		b.mu.Unlock()
		return
	}
	delete(b.hooks, ext.ID())
	b.mu.Unlock()

	b.console.Teardown(ext)
	b.chat.Teardown(ext)
	cancel()

	slog.InfoContext(ctx, "extension command registrations torn down",
		"extension", ext.Name())
}
