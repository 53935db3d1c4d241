// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package overlay

import (
	"bytes"
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopChatHandler(_ context.Context, _ Sender, _ string, _ []string) {}

func TestChatRegistry_RegisterAndDispatch(t *testing.T) {
	reg := NewChatRegistry(nil)

	ext := newTestExt("ext-a")
	var got struct {
		name   string
		args   []string
		sender Sender
	}
	require.NoError(t, reg.Register("Heal", ext, func(_ context.Context, sender Sender, name string, args []string) {
		got.name = name
		got.args = args
		got.sender = sender
	}))

	sender := Sender{ID: ulid.Make(), Name: "Rhea"}
	handled := reg.Dispatch(context.Background(), sender, "heal", []string{"self"})

	assert.True(t, handled)
	assert.Equal(t, "Heal", got.name, "handler receives the registered display casing")
	assert.Equal(t, []string{"self"}, got.args)
	assert.Equal(t, sender, got.sender)
}

func TestChatRegistry_CaseInsensitiveLookup(t *testing.T) {
	reg := NewChatRegistry(nil)
	require.NoError(t, reg.Register("HEAL", newTestExt("ext-a"), noopChatHandler))

	assert.True(t, reg.Dispatch(context.Background(), Sender{}, "heal", nil))
	assert.True(t, reg.Dispatch(context.Background(), Sender{}, "Heal", nil))
	assert.True(t, reg.Dispatch(context.Background(), Sender{}, "  HeAl ", nil))
}

func TestChatRegistry_DispatchUnknownCommand(t *testing.T) {
	reg := NewChatRegistry(nil)
	assert.False(t, reg.Dispatch(context.Background(), Sender{}, "missing", nil))
}

func TestChatRegistry_LastWriterWins(t *testing.T) {
	buf := captureLogs(t)

	reg := NewChatRegistry(nil)
	extA := newTestExt("ext-a")
	extB := newTestExt("ext-b")

	var aCalls, bCalls int
	require.NoError(t, reg.Register("heal", extA, func(_ context.Context, _ Sender, _ string, _ []string) {
		aCalls++
	}))
	require.NoError(t, reg.Register("heal", extB, func(_ context.Context, _ Sender, _ string, _ []string) {
		bCalls++
	}))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("chat command conflict")))
	assert.Contains(t, buf.String(), "ext-a")
	assert.Contains(t, buf.String(), "ext-b")

	assert.True(t, reg.Dispatch(context.Background(), Sender{}, "heal", nil))
	assert.Equal(t, 0, aCalls, "replaced handler must not run")
	assert.Equal(t, 1, bCalls)

	_, owner, ok := reg.Owner("heal")
	require.True(t, ok)
	assert.Equal(t, extB.ID(), owner.ID())
}

func TestChatRegistry_Teardown(t *testing.T) {
	reg := NewChatRegistry(nil)
	extA := newTestExt("ext-a")
	extB := newTestExt("ext-b")

	require.NoError(t, reg.Register("heal", extA, noopChatHandler))
	require.NoError(t, reg.Register("harm", extA, noopChatHandler))
	require.NoError(t, reg.Register("wave", extB, noopChatHandler))

	reg.Teardown(extA)

	assert.False(t, reg.Dispatch(context.Background(), Sender{}, "heal", nil))
	assert.False(t, reg.Dispatch(context.Background(), Sender{}, "harm", nil))
	assert.True(t, reg.Dispatch(context.Background(), Sender{}, "wave", nil))
}

func TestChatRegistry_EmptyNameAndNilHandler(t *testing.T) {
	reg := NewChatRegistry(nil)

	require.Error(t, reg.Register("  ", newTestExt("ext-a"), noopChatHandler))
	require.Error(t, reg.Register("heal", newTestExt("ext-a"), nil))
}

func TestChatRegistry_PanickingHandlerIsContained(t *testing.T) {
	captureLogs(t)

	reg := NewChatRegistry(nil)
	require.NoError(t, reg.Register("heal", newTestExt("ext-a"), func(_ context.Context, _ Sender, _ string, _ []string) {
		panic("handler bug")
	}))

	assert.NotPanics(t, func() {
		assert.True(t, reg.Dispatch(context.Background(), Sender{}, "heal", nil))
	})
}

func TestChatRegistry_TrackerWrapsHandler(t *testing.T) {
	tracker := &trackingRecorder{}
	reg := NewChatRegistry(tracker)

	require.NoError(t, reg.Register("heal", newTestExt("ext-a"), noopChatHandler))
	reg.Dispatch(context.Background(), Sender{}, "heal", nil)

	assert.Equal(t, []string{"enter:ext-a", "exit:ext-a"}, tracker.events)
}
