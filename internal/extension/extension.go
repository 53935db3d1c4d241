// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

// Package extension provides extension discovery, identity, and lifecycle
// control. Extensions are Lua scripts described by an extension.yaml
// manifest; the overlay consumes them through the overlay.Extension and
// overlay.Lifecycle contracts.
package extension

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewID generates a new extension identity.
func NewID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// Extension is a loaded extension's identity and grants. The ID is stable
// for the lifetime of the load; reloading an extension yields a new ID.
type Extension struct {
	id           ulid.ULID
	name         string
	version      string
	capabilities []string
}

// New creates an extension identity with a fresh ID.
func New(name, version string, capabilities []string) *Extension {
	caps := make([]string, len(capabilities))
	copy(caps, capabilities)
	return &Extension{
		id:           NewID(),
		name:         name,
		version:      version,
		capabilities: caps,
	}
}

// ID returns the stable identity for this load of the extension.
func (e *Extension) ID() ulid.ULID { return e.id }

// Name returns the human-readable extension name used in log messages.
func (e *Extension) Name() string { return e.name }

// Version returns the manifest version.
func (e *Extension) Version() string { return e.version }

// Capabilities returns a copy of the granted capability patterns.
func (e *Extension) Capabilities() []string {
	caps := make([]string, len(e.capabilities))
	copy(caps, e.capabilities)
	return caps
}
