// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

// Package host provides the in-memory host command table used by the server
// process and by tests. The overlay consumes it through the
// overlay.HostTable contract.
package host

import (
	"sort"
	"sync"

	"github.com/embermush/embermush/internal/overlay"
)

// Compile-time interface check.
var _ overlay.HostTable = (*MemoryTable)(nil)

// MemoryTable is a map-backed host command table. It is safe for concurrent
// use. The zero value is not ready; use NewMemoryTable.
type MemoryTable struct {
	entries map[string]*overlay.HostEntry
	mu      sync.RWMutex
}

// NewMemoryTable creates an empty host command table.
func NewMemoryTable() *MemoryTable {
	return &MemoryTable{
		entries: make(map[string]*overlay.HostEntry),
	}
}

// Lookup returns the entry for a fully qualified name.
func (t *MemoryTable) Lookup(name string) (*overlay.HostEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, ok := t.entries[name]
	return entry, ok
}

// Insert adds or replaces an entry.
func (t *MemoryTable) Insert(entry *overlay.HostEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[entry.Name] = entry
}

// Remove deletes an entry. Removing an unknown name is a no-op.
func (t *MemoryTable) Remove(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, name)
}

// All returns every entry sorted by name for deterministic iteration. The
// slice is a copy; the entries themselves are shared, since their handler
// field is the mutable seam the overlay patches.
func (t *MemoryTable) All() []*overlay.HostEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]*overlay.HostEntry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
