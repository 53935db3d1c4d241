// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package overlay

import (
	"errors"

	"github.com/samber/oops"
)

// Error codes for overlay registration failures.
const (
	CodeMalformedName = "MALFORMED_NAME"
	CodeNilHandler    = "NIL_HANDLER"
	CodeNilExtension  = "NIL_EXTENSION"
	CodeNoEntryPoints = "NO_ENTRY_POINTS"
)

// Sentinel errors for constructor misuse.
var (
	ErrNilTable     = errors.New("host table cannot be nil")
	ErrNilLifecycle = errors.New("extension lifecycle cannot be nil")
	ErrNilRegistry  = errors.New("registry cannot be nil")
)

// ErrMalformedName creates an error for a console name lacking the
// "parent.name" namespaced form.
func ErrMalformedName(name string) error {
	return oops.Code(CodeMalformedName).
		With("command", name).
		Errorf("console command name %q must be namespaced as parent.name", name)
}

// ErrEmptyName creates an error for an empty command name.
func ErrEmptyName() error {
	return oops.Code(CodeMalformedName).
		Errorf("command name cannot be empty")
}

// ErrNilHandler creates an error for a nil handler registration.
func ErrNilHandler(name string) error {
	return oops.Code(CodeNilHandler).
		With("command", name).
		Errorf("handler cannot be nil")
}

// ErrNilExtension creates an error for a registration without an owning
// extension through the public contract.
func ErrNilExtension(name string) error {
	return oops.Code(CodeNilExtension).
		With("command", name).
		Errorf("extension cannot be nil")
}

// ErrNoEntryPoints creates an error for hook registration on a service
// configured without an entry point caller.
func ErrNoEntryPoints(entry string) error {
	return oops.Code(CodeNoEntryPoints).
		With("entry", entry).
		Errorf("no entry point caller configured for hook registration")
}
