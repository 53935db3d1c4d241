// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

// Package capability provides runtime capability enforcement for extensions.
//
// Pattern matching uses gobwas/glob with '.' as the segment separator:
//   - '*' matches a single segment (does not cross '.')
//   - '**' matches zero or more segments (crosses '.')
//
// Examples:
//   - "command.console.*" matches "command.console.register"
//   - "command.**" matches every command capability
package capability

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gobwas/glob"
)

// compiledGrant holds a pattern and its compiled glob.
type compiledGrant struct {
	pattern string
	glob    glob.Glob
}

// Enforcer checks extension capabilities at runtime. Deny by default:
// unknown extensions and unmatched capabilities are refused. Safe for
// concurrent use.
type Enforcer struct {
	grants map[string][]compiledGrant // extension name -> compiled grants
	mu     sync.RWMutex
}

// NewEnforcer creates a capability enforcer.
func NewEnforcer() *Enforcer {
	return &Enforcer{
		grants: make(map[string][]compiledGrant),
	}
}

// SetGrants configures capability patterns for an extension, replacing any
// previous grants. All patterns are compiled before state changes, so an
// invalid pattern leaves the enforcer untouched.
func (e *Enforcer) SetGrants(extension string, capabilities []string) error {
	if extension == "" {
		return errors.New("extension name cannot be empty")
	}

	compiled := make([]compiledGrant, len(capabilities))
	for i, pattern := range capabilities {
		if pattern == "" {
			return fmt.Errorf("capability %d: empty capability pattern", i)
		}
		g, err := glob.Compile(pattern, '.')
		if err != nil {
			return fmt.Errorf("capability %d (%q): %w", i, pattern, err)
		}
		compiled[i] = compiledGrant{pattern: pattern, glob: g}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.grants[extension] = compiled
	return nil
}

// RemoveGrants unregisters an extension. Safe to call for unknown names.
func (e *Enforcer) RemoveGrants(extension string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.grants, extension)
}

// Grants returns a copy of the capability patterns granted to an extension,
// or nil if it is not registered.
func (e *Enforcer) Grants(extension string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	grants, ok := e.grants[extension]
	if !ok {
		return nil
	}
	patterns := make([]string, len(grants))
	for i, g := range grants {
		patterns[i] = g.pattern
	}
	return patterns
}

// Check returns true if the extension has the requested capability.
func (e *Enforcer) Check(extension, capability string) bool {
	if capability == "" {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, grant := range e.grants[extension] {
		if grant.glob.Match(capability) {
			return true
		}
	}
	return false
}
