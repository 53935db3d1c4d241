// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package extension

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/embermush/embermush/internal/extension/capability"
)

// Host runs extension code. Implemented by the Lua host.
type Host interface {
	Load(ctx context.Context, ext *Extension, manifest *Manifest, dir string) error
	Unload(ctx context.Context, ext *Extension) error
	Close(ctx context.Context) error
}

// Manager discovers extensions and manages their lifecycle. Unloading an
// extension fires its unload notifications before the host discards its
// state, so command teardown sees a fully live extension.
type Manager struct {
	extensionsDir string
	host          Host
	notifier      *Notifier
	enforcer      *capability.Enforcer
	loaded        map[string]*Extension
	mu            sync.RWMutex
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithHost sets the extension host for the manager.
func WithHost(h Host) ManagerOption {
	return func(m *Manager) {
		m.host = h
	}
}

// NewManager creates an extension manager.
func NewManager(extensionsDir string, notifier *Notifier, enforcer *capability.Enforcer, opts ...ManagerOption) *Manager {
	m := &Manager{
		extensionsDir: extensionsDir,
		notifier:      notifier,
		enforcer:      enforcer,
		loaded:        make(map[string]*Extension),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Discovered contains a manifest and its directory.
type Discovered struct {
	Manifest *Manifest
	Dir      string
}

// Discover finds all valid extensions in the extensions directory.
// Invalid extensions are logged and skipped.
func (m *Manager) Discover(_ context.Context) ([]*Discovered, error) {
	entries, err := os.ReadDir(m.extensionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No extensions directory
		}
		return nil, fmt.Errorf("failed to read extensions directory: %w", err)
	}

	var found []*Discovered
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(m.extensionsDir, entry.Name())
		manifestPath := filepath.Join(dir, "extension.yaml")

		data, err := os.ReadFile(manifestPath) //nolint:gosec // manifestPath is constructed from ReadDir entries
		if err != nil {
			slog.Warn("skipping extension without manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}

		manifest, err := ParseManifest(data)
		if err != nil {
			slog.Warn("skipping extension with invalid manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}

		found = append(found, &Discovered{Manifest: manifest, Dir: dir})
	}

	return found, nil
}

// LoadAll discovers and loads all extensions. Individual load failures are
// logged and skipped so one broken extension does not keep the server from
// starting.
func (m *Manager) LoadAll(ctx context.Context) error {
	discovered, err := m.Discover(ctx)
	if err != nil {
		return err
	}

	for _, d := range discovered {
		if err := m.load(ctx, d); err != nil {
			slog.Error("failed to load extension",
				"extension", d.Manifest.Name,
				"error", err)
			continue
		}
	}

	return nil
}

func (m *Manager) load(ctx context.Context, d *Discovered) error {
	if m.host == nil {
		slog.Warn("no extension host configured, skipping extension",
			"extension", d.Manifest.Name)
		return nil
	}

	ext := New(d.Manifest.Name, d.Manifest.Version, d.Manifest.Capabilities)

	if m.enforcer != nil {
		if err := m.enforcer.SetGrants(ext.Name(), d.Manifest.Capabilities); err != nil {
			return fmt.Errorf("set grants for %s: %w", ext.Name(), err)
		}
	}

	if err := m.host.Load(ctx, ext, d.Manifest, d.Dir); err != nil {
		if m.enforcer != nil {
			m.enforcer.RemoveGrants(ext.Name())
		}
		return fmt.Errorf("load extension %s: %w", ext.Name(), err)
	}

	m.mu.Lock()
	m.loaded[ext.Name()] = ext
	m.mu.Unlock()

	slog.Info("loaded extension",
		"extension", ext.Name(),
		"version", ext.Version(),
		"id", ext.ID().String())

	return nil
}

// Unload removes a loaded extension by name, firing its unload
// notifications before the host discards its state.
func (m *Manager) Unload(ctx context.Context, name string) error {
	m.mu.Lock()
	ext, ok := m.loaded[name]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("extension %s is not loaded", name)
	}
	delete(m.loaded, name)
	m.mu.Unlock()

	m.notifier.NotifyUnload(ctx, ext)

	if m.enforcer != nil {
		m.enforcer.RemoveGrants(ext.Name())
	}

	if m.host != nil {
		if err := m.host.Unload(ctx, ext); err != nil {
			return fmt.Errorf("unload extension %s: %w", name, err)
		}
	}

	slog.Info("unloaded extension", "extension", name)
	return nil
}

// Get returns a loaded extension by name.
func (m *Manager) Get(name string) (*Extension, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ext, ok := m.loaded[name]
	return ext, ok
}

// ListExtensions returns names of all loaded extensions, sorted for
// deterministic output.
func (m *Manager) ListExtensions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.loaded))
	for name := range m.loaded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close unloads every extension and shuts down the host.
func (m *Manager) Close(ctx context.Context) error {
	for _, name := range m.ListExtensions() {
		if err := m.Unload(ctx, name); err != nil {
			slog.Error("failed to unload extension during shutdown",
				"extension", name,
				"error", err)
		}
	}

	if m.host != nil {
		if err := m.host.Close(ctx); err != nil {
			return fmt.Errorf("close extension host: %w", err)
		}
	}

	return nil
}
