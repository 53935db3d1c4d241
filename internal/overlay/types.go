// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

// Package overlay implements the extension command overlay: registration and
// dispatch of console and chat commands on behalf of dynamically loaded
// extensions, layered over a host-owned command table.
//
// Console commands are namespaced ("parent.name") and live in the host
// table. When several extensions claim the same pre-existing host command,
// their handlers form an override chain tried in registration order, falling
// through to the captured host handler. Chat commands are flat,
// case-insensitive, and single-owner.
package overlay

import (
	"context"
	"io"

	"github.com/oklog/ulid/v2"
)

// ConsoleHandler handles a console command invocation. The return value
// reports whether the invocation was handled; false passes control to the
// next binding in the override chain, or to the host's original handler.
type ConsoleHandler func(ctx context.Context, inv *Invocation) bool

// ChatHandler handles a chat command. Registration implies ownership: a
// matched chat command is always considered handled.
type ChatHandler func(ctx context.Context, sender Sender, name string, args []string)

// HostHandler is the handler shape the host table stores. The composed
// dispatcher installed by the overlay and the host's own handlers share it.
type HostHandler func(ctx context.Context, inv *Invocation) error

// Sender identifies the originator of a chat command.
type Sender struct {
	ID   ulid.ULID
	Name string
}

// Invocation carries the input of a single command dispatch.
type Invocation struct {
	Name   string   // fully qualified name as invoked
	Args   []string // arguments, already tokenized by the caller
	Sender *Sender  // set for chat-pipeline invocations, nil otherwise
	Output io.Writer
}

// Extension is the identity the overlay needs from the extension manager.
// Implementations must return a stable ID for the lifetime of the extension.
type Extension interface {
	ID() ulid.ULID
	Name() string
}

// UnloadCancel removes an unload subscription.
type UnloadCancel func()

// Lifecycle is the extension lifecycle contract the overlay consumes. The
// callback must fire exactly once, when the extension is unloaded.
type Lifecycle interface {
	OnUnload(ext Extension, fn func(ctx context.Context)) (UnloadCancel, error)
}

// EntryKind distinguishes invocable host entries from data variables.
type EntryKind string

// Host entry kinds.
const (
	KindCommand  EntryKind = "command"
	KindVariable EntryKind = "variable"
)

// HostEntry is a descriptor in the host command table. Handler is settable;
// the overlay swaps it when patching a pre-existing command and restores it
// on teardown.
type HostEntry struct {
	Name    string
	Parent  string
	Kind    EntryKind
	Handler HostHandler
}

// HostTable is the minimal contract the overlay needs from the host's
// command table. The overlay is the only writer for entries it patches.
type HostTable interface {
	Lookup(name string) (*HostEntry, bool)
	Insert(entry *HostEntry)
	Remove(name string)
	All() []*HostEntry
}

// Tracker receives enter/exit notifications around handler invocations so a
// surrounding system can account for long-running extension code. The
// overlay itself enforces no timeouts.
type Tracker interface {
	Enter(ext Extension)
	Exit(ext Extension)
}

// EntryPointCaller invokes a named entry point inside an extension. The
// returned flag reports whether the entry point produced a value, which the
// hook registration forms treat as "handled".
type EntryPointCaller interface {
	CallEntryPoint(ctx context.Context, ext Extension, entry string, inv *Invocation) (returned bool, err error)
}
