// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package overlay

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// chatRecord is the single-owner registration for one chat command. Display
// retains the casing the extension registered; lookup uses the folded key.
type chatRecord struct {
	display string
	ext     Extension
	handler ChatHandler
}

// ChatRegistry owns chat command registrations. Chat commands do not chain:
// the last registrant wins, with a collision warning. It is safe for
// concurrent use.
type ChatRegistry struct {
	tracker Tracker // optional, can be nil
	records map[string]chatRecord
	mu      sync.Mutex
}

// NewChatRegistry creates a chat command registry.
func NewChatRegistry(tracker Tracker) *ChatRegistry {
	return &ChatRegistry{
		tracker: tracker,
		records: make(map[string]chatRecord),
	}
}

// Register adds a handler for a chat command. Names are case-insensitive;
// the registered casing is retained for display. Registering a name that is
// already taken replaces the previous record and logs a collision warning
// naming both owners.
func (r *ChatRegistry) Register(name string, ext Extension, handler ChatHandler) error {
	display := strings.TrimSpace(name)
	if display == "" {
		return ErrEmptyName()
	}
	if handler == nil {
		return ErrNilHandler(display)
	}
	key := strings.ToLower(display)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[key]; ok {
		slog.Warn("chat command conflict: overwriting existing command",
			"command", display,
			"previous_owner", ownerName(existing.ext),
			"new_owner", ownerName(ext))
		recordRegistration(NamespaceChat, ResultReplaced)
	} else {
		recordRegistration(NamespaceChat, ResultRegistered)
	}

	r.records[key] = chatRecord{display: display, ext: ext, handler: handler}
	return nil
}

// Dispatch looks up a chat command by case-folded name and invokes its
// handler. Returns false if no record exists; a match always counts as
// handled.
func (r *ChatRegistry) Dispatch(ctx context.Context, sender Sender, name string, args []string) bool {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.Lock()
	rec, ok := r.records[key]
	r.mu.Unlock()

	if !ok {
		recordDispatch(NamespaceChat, StatusNotFound)
		return false
	}

	ctx, span := tracer.Start(ctx, "chat.dispatch")
	span.SetAttributes(
		attribute.String("command.name", rec.display),
		attribute.String("command.owner", ownerName(rec.ext)),
	)
	defer span.End()

	r.invoke(ctx, rec, sender, args)
	recordDispatch(NamespaceChat, StatusHandled)
	return true
}

// Owner returns the display name and owning extension for a chat command,
// primarily for diagnostics.
func (r *ChatRegistry) Owner(name string) (display string, ext Extension, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, found := r.records[strings.ToLower(strings.TrimSpace(name))]
	if !found {
		return "", nil, false
	}
	return rec.display, rec.ext, true
}

// Teardown removes every record owned by the extension.
func (r *ChatRegistry) Teardown(ext Extension) {
	if ext == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, rec := range r.records {
		if rec.ext != nil && rec.ext.ID() == ext.ID() {
			delete(r.records, key)
		}
	}
}

func (r *ChatRegistry) invoke(ctx context.Context, rec chatRecord, sender Sender, args []string) {
	if r.tracker != nil && rec.ext != nil {
		r.tracker.Enter(rec.ext)
		defer r.tracker.Exit(rec.ext)
	}
	start := time.Now()
	defer func() {
		observeHandlerDuration(NamespaceChat, time.Since(start))
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "chat handler panicked",
				"command", rec.display,
				"extension", ownerName(rec.ext),
				"panic", p)
		}
	}()
	rec.handler(ctx, sender, rec.display, args)
}
