// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package overlay

import (
	"context"
	"log/slog"
)

// Service is the public contract of the overlay: the registration entry
// points extensions call, and the chat dispatch entry point the chat
// pipeline calls.
type Service struct {
	console *ConsoleRegistry
	chat    *ChatRegistry
	binder  *LifecycleBinder
	entries EntryPointCaller // optional, required for hook registration
}

// ServiceOption configures a Service during construction.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	tracker Tracker
	entries EntryPointCaller
}

// WithTracker overrides the default metrics-backed handler tracker.
func WithTracker(t Tracker) ServiceOption {
	return func(c *serviceConfig) {
		c.tracker = t
	}
}

// WithEntryPoints enables the hook-name registration forms by providing a
// caller for named extension entry points.
func WithEntryPoints(caller EntryPointCaller) ServiceOption {
	return func(c *serviceConfig) {
		c.entries = caller
	}
}

// NewService creates the overlay service over a host table and an extension
// lifecycle. Returns an error if either collaborator is nil.
func NewService(table HostTable, lifecycle Lifecycle, opts ...ServiceOption) (*Service, error) {
	cfg := serviceConfig{tracker: metricsTracker{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	console, err := NewConsoleRegistry(table, cfg.tracker)
	if err != nil {
		return nil, err
	}
	chat := NewChatRegistry(cfg.tracker)

	binder, err := NewLifecycleBinder(lifecycle, console, chat)
	if err != nil {
		return nil, err
	}

	return &Service{
		console: console,
		chat:    chat,
		binder:  binder,
		entries: cfg.entries,
	}, nil
}

// Console returns the console registry, for host-side seeding and
// diagnostics.
func (s *Service) Console() *ConsoleRegistry { return s.console }

// Chat returns the chat registry.
func (s *Service) Chat() *ChatRegistry { return s.chat }

// RegisterConsoleCommand registers a handler for a namespaced console
// command on behalf of an extension.
func (s *Service) RegisterConsoleCommand(name string, ext Extension, handler ConsoleHandler) error {
	if ext == nil {
		return ErrNilExtension(name)
	}
	if err := s.binder.EnsureHooked(ext); err != nil {
		return err
	}
	return s.console.Register(name, ext, handler)
}

// RegisterConsoleHook registers a console command whose handler calls the
// named entry point inside the extension. Any value returned by the entry
// point counts as handled.
func (s *Service) RegisterConsoleHook(name string, ext Extension, entry string) error {
	if s.entries == nil {
		return ErrNoEntryPoints(entry)
	}
	if ext == nil {
		return ErrNilExtension(name)
	}
	return s.RegisterConsoleCommand(name, ext, s.consoleHook(ext, entry))
}

// RegisterChatCommand registers a handler for a chat command on behalf of
// an extension.
func (s *Service) RegisterChatCommand(name string, ext Extension, handler ChatHandler) error {
	if ext == nil {
		return ErrNilExtension(name)
	}
	if err := s.binder.EnsureHooked(ext); err != nil {
		return err
	}
	return s.chat.Register(name, ext, handler)
}

// RegisterChatHook registers a chat command whose handler calls the named
// entry point inside the extension.
func (s *Service) RegisterChatHook(name string, ext Extension, entry string) error {
	if s.entries == nil {
		return ErrNoEntryPoints(entry)
	}
	if ext == nil {
		return ErrNilExtension(name)
	}
	return s.RegisterChatCommand(name, ext, s.chatHook(ext, entry))
}

// DispatchChatCommand is called by the chat-message pipeline. Returns true
// if a registered chat command consumed the message.
func (s *Service) DispatchChatCommand(ctx context.Context, sender Sender, name string, args []string) bool {
	return s.chat.Dispatch(ctx, sender, name, args)
}

func (s *Service) consoleHook(ext Extension, entry string) ConsoleHandler {
	return func(ctx context.Context, inv *Invocation) bool {
		returned, err := s.entries.CallEntryPoint(ctx, ext, entry, inv)
		if err != nil {
			slog.WarnContext(ctx, "console entry point failed",
				"extension", ext.Name(),
				"entry", entry,
				"command", inv.Name,
				"error", err)
			return false
		}
		return returned
	}
}

func (s *Service) chatHook(ext Extension, entry string) ChatHandler {
	return func(ctx context.Context, sender Sender, name string, args []string) {
		inv := &Invocation{Name: name, Args: args, Sender: &sender}
		if _, err := s.entries.CallEntryPoint(ctx, ext, entry, inv); err != nil {
			slog.WarnContext(ctx, "chat entry point failed",
				"extension", ext.Name(),
				"entry", entry,
				"command", name,
				"error", err)
		}
	}
}
