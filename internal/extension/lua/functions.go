// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package lua

import (
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/embermush/embermush/internal/extension"
)

// Capabilities required to register commands from Lua.
const (
	CapRegisterConsole = "command.console.register"
	CapRegisterChat    = "command.chat.register"
)

// installEmberModule exposes the ember.* host functions to an extension's
// state. The closures capture the extension identity, so a script can only
// ever register on its own behalf.
func (h *Host) installEmberModule(L *lua.LState, ext *extension.Extension) {
	mod := L.NewTable()
	L.SetField(mod, "register_console_command", L.NewFunction(h.registerConsoleFn(ext)))
	L.SetField(mod, "register_chat_command", L.NewFunction(h.registerChatFn(ext)))
	L.SetField(mod, "log", L.NewFunction(logFn(ext)))
	L.SetGlobal("ember", mod)
}

// registerConsoleFn returns the ember.register_console_command host
// function.
// Args: name (string), entry (string) - global function to call on dispatch
// Returns: (ok bool, error string)
func (h *Host) registerConsoleFn(ext *extension.Extension) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		entry := L.CheckString(2)

		if h.service == nil {
			return pushResult(L, "overlay service not available")
		}
		if h.enforcer == nil || !h.enforcer.Check(ext.Name(), CapRegisterConsole) {
			slog.Warn("extension denied console command registration",
				"extension", ext.Name(),
				"command", name,
				"capability", CapRegisterConsole)
			return pushResult(L, "missing capability "+CapRegisterConsole)
		}

		if err := h.service.RegisterConsoleHook(name, ext, entry); err != nil {
			return pushResult(L, err.Error())
		}
		return pushResult(L, "")
	}
}

// registerChatFn returns the ember.register_chat_command host function.
// Args: name (string), entry (string)
// Returns: (ok bool, error string)
func (h *Host) registerChatFn(ext *extension.Extension) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		entry := L.CheckString(2)

		if h.service == nil {
			return pushResult(L, "overlay service not available")
		}
		if h.enforcer == nil || !h.enforcer.Check(ext.Name(), CapRegisterChat) {
			slog.Warn("extension denied chat command registration",
				"extension", ext.Name(),
				"command", name,
				"capability", CapRegisterChat)
			return pushResult(L, "missing capability "+CapRegisterChat)
		}

		if err := h.service.RegisterChatHook(name, ext, entry); err != nil {
			return pushResult(L, err.Error())
		}
		return pushResult(L, "")
	}
}

// logFn returns the ember.log host function.
// Args: message (string)
func logFn(ext *extension.Extension) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)
		slog.Info(msg, "extension", ext.Name())
		return 0
	}
}

// pushResult pushes the (ok, error) pair the ember.* functions return. An
// empty errMsg means success.
func pushResult(L *lua.LState, errMsg string) int {
	if errMsg == "" {
		L.Push(lua.LTrue)
		L.Push(lua.LNil)
	} else {
		L.Push(lua.LFalse)
		L.Push(lua.LString(errMsg))
	}
	return 2
}
