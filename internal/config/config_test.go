// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFlags mirrors the core command's flag set: defaults come from
// Default(), so unset flags never clobber file values with empty strings.
func newFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("metrics-addr", Default().MetricsAddr, "")
	fs.String("extensions-dir", Default().ExtensionsDir, "")
	fs.String("log-format", Default().LogFormat, "")
	fs.String("log-level", Default().LogLevel, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9130", cfg.MetricsAddr)
	assert.Equal(t, "extensions", cfg.ExtensionsDir)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics_addr: 0.0.0.0:9999\nlog_level: debug\n"), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "extensions", cfg.ExtensionsDir, "unset keys keep defaults")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics_addr: 0.0.0.0:9999\nextensions_dir: /srv/ext\n"), 0o600))

	fs := newFlags(t)
	require.NoError(t, fs.Parse([]string{"--metrics-addr=127.0.0.1:9001", "--log-format=text"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9001", cfg.MetricsAddr, "flags win over the file")
	assert.Equal(t, "/srv/ext", cfg.ExtensionsDir, "file value survives when the flag is unset")
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n:::"), 0o600))

	_, err := Load(path, nil)
	assert.Error(t, err)
}
