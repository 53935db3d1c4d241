// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package extension

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embermush/embermush/internal/extension/capability"
)

// fakeHost records lifecycle calls for manager tests.
type fakeHost struct {
	loaded   []string
	unloaded []string
	closed   bool
	loadErr  error
}

func (h *fakeHost) Load(_ context.Context, ext *Extension, _ *Manifest, _ string) error {
	if h.loadErr != nil {
		return h.loadErr
	}
	h.loaded = append(h.loaded, ext.Name())
	return nil
}

func (h *fakeHost) Unload(_ context.Context, ext *Extension) error {
	h.unloaded = append(h.unloaded, ext.Name())
	return nil
}

func (h *fakeHost) Close(_ context.Context) error {
	h.closed = true
	return nil
}

// writeExtension creates an extension directory with a manifest.
func writeExtension(t *testing.T, root, name, manifest string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extension.yaml"), []byte(manifest), 0o600))
}

func TestManager_DiscoverSkipsInvalid(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "healer", "name: healer\nversion: 1.0.0\nentry: main.lua")
	writeExtension(t, root, "broken", "name: BROKEN\nversion: 1.0.0\nentry: main.lua")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	m := NewManager(root, NewNotifier(), capability.NewEnforcer())
	found, err := m.Discover(context.Background())
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "healer", found[0].Manifest.Name)
}

func TestManager_DiscoverMissingDirectory(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"), NewNotifier(), capability.NewEnforcer())
	found, err := m.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestManager_LoadAll(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "healer", "name: healer\nversion: 1.0.0\nentry: main.lua\ncapabilities: [command.console.register]")
	writeExtension(t, root, "greeter", "name: greeter\nversion: 0.3.0\nentry: main.lua")

	host := &fakeHost{}
	enforcer := capability.NewEnforcer()
	m := NewManager(root, NewNotifier(), enforcer, WithHost(host))

	require.NoError(t, m.LoadAll(context.Background()))

	assert.ElementsMatch(t, []string{"healer", "greeter"}, host.loaded)
	assert.Equal(t, []string{"greeter", "healer"}, m.ListExtensions())
	assert.True(t, enforcer.Check("healer", "command.console.register"))
	assert.False(t, enforcer.Check("greeter", "command.console.register"))

	ext, ok := m.Get("healer")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", ext.Version())
}

func TestManager_LoadAllSkipsFailingExtension(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "healer", "name: healer\nversion: 1.0.0\nentry: main.lua")

	host := &fakeHost{loadErr: errors.New("script error")}
	m := NewManager(root, NewNotifier(), capability.NewEnforcer(), WithHost(host))

	require.NoError(t, m.LoadAll(context.Background()), "one broken extension must not fail the load")
	assert.Empty(t, m.ListExtensions())
}

func TestManager_UnloadNotifiesBeforeHostDiscard(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "healer", "name: healer\nversion: 1.0.0\nentry: main.lua")

	host := &fakeHost{}
	notifier := NewNotifier()
	enforcer := capability.NewEnforcer()
	m := NewManager(root, notifier, enforcer, WithHost(host))
	require.NoError(t, m.LoadAll(context.Background()))

	ext, ok := m.Get("healer")
	require.True(t, ok)

	var notifiedBeforeUnload bool
	_, err := notifier.OnUnload(ext, func(_ context.Context) {
		notifiedBeforeUnload = len(host.unloaded) == 0
	})
	require.NoError(t, err)

	require.NoError(t, m.Unload(context.Background(), "healer"))

	assert.True(t, notifiedBeforeUnload, "unload notification must fire before host discards state")
	assert.Equal(t, []string{"healer"}, host.unloaded)
	assert.Empty(t, m.ListExtensions())
	assert.False(t, enforcer.Check("healer", "command.console.register"))
}

func TestManager_UnloadUnknown(t *testing.T) {
	m := NewManager(t.TempDir(), NewNotifier(), capability.NewEnforcer())
	assert.Error(t, m.Unload(context.Background(), "missing"))
}

func TestManager_CloseUnloadsEverything(t *testing.T) {
	root := t.TempDir()
	writeExtension(t, root, "healer", "name: healer\nversion: 1.0.0\nentry: main.lua")
	writeExtension(t, root, "greeter", "name: greeter\nversion: 0.3.0\nentry: main.lua")

	host := &fakeHost{}
	m := NewManager(root, NewNotifier(), capability.NewEnforcer(), WithHost(host))
	require.NoError(t, m.LoadAll(context.Background()))

	require.NoError(t, m.Close(context.Background()))

	assert.ElementsMatch(t, []string{"healer", "greeter"}, host.unloaded)
	assert.True(t, host.closed)
	assert.Empty(t, m.ListExtensions())
}

func TestExtension_IdentityAndCapabilities(t *testing.T) {
	caps := []string{"command.console.register"}
	ext := New("healer", "1.0.0", caps)

	assert.Equal(t, "healer", ext.Name())
	assert.NotEqual(t, New("healer", "1.0.0", nil).ID(), ext.ID(), "each load gets a fresh ID")

	got := ext.Capabilities()
	got[0] = "mutated"
	assert.Equal(t, "command.console.register", ext.Capabilities()[0], "capabilities are a defensive copy")
}
