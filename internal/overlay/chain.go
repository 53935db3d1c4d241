// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package overlay

import "github.com/oklog/ulid/v2"

// binding pairs a handler with the extension that registered it. A nil
// extension marks a handler not owned by any extension; such bindings are
// never removed by teardown.
type binding struct {
	ext     Extension
	handler ConsoleHandler
}

func (b binding) ownedBy(id ulid.ULID) bool {
	return b.ext != nil && b.ext.ID() == id
}

// overrideChain holds the per-name override state for a console command:
// the bindings in registration order (oldest first) and, for commands that
// pre-existed in the host table, the host handler captured when the chain
// first patched the entry. A nil original marks a synthetic command.
type overrideChain struct {
	name     string
	bindings []binding
	original HostHandler
}

// firstOwner returns the display name of the oldest owning extension, used
// in collision warnings. Falls back to "host" for unowned bindings.
func (c *overrideChain) firstOwner() string {
	for _, b := range c.bindings {
		if b.ext != nil {
			return b.ext.Name()
		}
	}
	return "host"
}

// removeOwned drops every binding owned by the given extension and reports
// whether any were removed.
func (c *overrideChain) removeOwned(id ulid.ULID) bool {
	kept := c.bindings[:0]
	removed := false
	for _, b := range c.bindings {
		if b.ownedBy(id) {
			removed = true
			continue
		}
		kept = append(kept, b)
	}
	c.bindings = kept
	return removed
}
