// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package lua

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/embermush/embermush/internal/extension"
	"github.com/embermush/embermush/internal/extension/capability"
	"github.com/embermush/embermush/internal/overlay"
)

// Compile-time interface checks.
var (
	_ extension.Host          = (*Host)(nil)
	_ overlay.EntryPointCaller = (*Host)(nil)
)

// loadedState holds a live Lua state for one extension. The state is not
// goroutine-safe; mu serializes every call into it.
type loadedState struct {
	ext   *extension.Extension
	state *lua.LState
	mu    sync.Mutex
}

// Host manages Lua extensions. Each extension runs its script once at load
// time into a persistent sandboxed state; entry points are global functions
// the script leaves behind.
type Host struct {
	service  *overlay.Service
	enforcer *capability.Enforcer
	states   map[ulid.ULID]*loadedState
	mu       sync.RWMutex
	closed   bool
}

// NewHost creates a Lua extension host. service and enforcer may be nil;
// the ember.* registration functions then report themselves unavailable.
func NewHost(service *overlay.Service, enforcer *capability.Enforcer) *Host {
	return &Host{
		service:  service,
		enforcer: enforcer,
		states:   make(map[ulid.ULID]*loadedState),
	}
}

// SetService wires the overlay service after construction. The host is
// created before the overlay in the server process because the overlay's
// hook form needs the host as its entry point caller.
func (h *Host) SetService(service *overlay.Service) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.service = service
}

// Load reads the extension's entry script and runs it in a fresh sandboxed
// state. Registrations performed by the script's top-level code happen here.
func (h *Host) Load(ctx context.Context, ext *extension.Extension, manifest *extension.Manifest, dir string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return oops.In("lua").With("extension", ext.Name()).With("operation", "load").New("host is closed")
	}

	entryPath := filepath.Join(dir, manifest.Entry)
	code, err := os.ReadFile(filepath.Clean(entryPath))
	if err != nil {
		return oops.In("lua").With("extension", ext.Name()).With("operation", "load").With("path", entryPath).Hint("failed to read entry file").Wrap(err)
	}

	L, err := newSandboxedState(ctx)
	if err != nil {
		return oops.In("lua").With("extension", ext.Name()).With("operation", "load").Hint("failed to create state").Wrap(err)
	}

	h.installEmberModule(L, ext)

	if err := L.DoString(string(code)); err != nil {
		L.Close()
		return oops.In("lua").With("extension", ext.Name()).With("operation", "load").With("entry", manifest.Entry).Hint("script error").Wrap(err)
	}

	h.states[ext.ID()] = &loadedState{ext: ext, state: L}
	return nil
}

// Unload discards the extension's state.
func (h *Host) Unload(_ context.Context, ext *extension.Extension) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ls, ok := h.states[ext.ID()]
	if !ok {
		return oops.In("lua").With("extension", ext.Name()).With("operation", "unload").New("extension not loaded")
	}
	delete(h.states, ext.ID())

	ls.mu.Lock()
	ls.state.Close()
	ls.mu.Unlock()
	return nil
}

// CallEntryPoint invokes a named global function in the extension's state.
// The returned flag reports whether the function produced a non-nil value.
func (h *Host) CallEntryPoint(ctx context.Context, ext overlay.Extension, entry string, inv *overlay.Invocation) (bool, error) {
	h.mu.RLock()
	ls, ok := h.states[ext.ID()]
	h.mu.RUnlock()

	if !ok {
		return false, oops.In("lua").With("extension", ext.Name()).With("entry", entry).New("extension not loaded")
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	L := ls.state
	L.SetContext(ctx)
	defer L.RemoveContext()

	fn := L.GetGlobal(entry)
	if fn.Type() != lua.LTFunction {
		return false, oops.Code(overlay.CodeNoEntryPoints).
			In("lua").
			With("extension", ext.Name()).
			With("entry", entry).
			Errorf("entry point %q is not a function", entry)
	}

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, invocationTable(L, inv)); err != nil {
		return false, oops.In("lua").With("extension", ext.Name()).With("entry", entry).Wrap(err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret != lua.LNil && ret != lua.LFalse, nil
}

// Close shuts down the host and every loaded state.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ls := range h.states {
		ls.mu.Lock()
		ls.state.Close()
		ls.mu.Unlock()
		delete(h.states, id)
	}
	h.closed = true
	return nil
}

// invocationTable converts an overlay invocation into the table passed to
// Lua entry points.
func invocationTable(L *lua.LState, inv *overlay.Invocation) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "command", lua.LString(inv.Name))

	args := L.NewTable()
	for i, a := range inv.Args {
		L.SetTable(args, lua.LNumber(i+1), lua.LString(a))
	}
	L.SetField(tbl, "args", args)

	if inv.Sender != nil {
		sender := L.NewTable()
		L.SetField(sender, "id", lua.LString(inv.Sender.ID.String()))
		L.SetField(sender, "name", lua.LString(inv.Sender.Name))
		L.SetField(tbl, "sender", sender)
	}
	return tbl
}
