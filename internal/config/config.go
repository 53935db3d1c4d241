// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

// Package config loads core process configuration from defaults, an
// optional YAML file, and command line flags, in that order of precedence
// (later wins).
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the core process configuration.
type Config struct {
	MetricsAddr   string `koanf:"metrics_addr"`
	ExtensionsDir string `koanf:"extensions_dir"`
	LogFormat     string `koanf:"log_format"`
	LogLevel      string `koanf:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MetricsAddr:   "127.0.0.1:9130",
		ExtensionsDir: "extensions",
		LogFormat:     "json",
		LogLevel:      "info",
	}
}

// Load builds the configuration. path may be empty (no file); flags may be
// nil. Flag names use dashes and map to underscore config keys.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.In("config").With("path", path).Hint("failed to load config file").Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key string, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.In("config").Hint("failed to load flags").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.In("config").Hint("failed to unmarshal config").Wrap(err)
	}

	return &cfg, nil
}
