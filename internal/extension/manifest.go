// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 EmberMUSH Contributors

package extension

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Manifest represents an extension.yaml file.
type Manifest struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Entry        string   `yaml:"entry"`
	Capabilities []string `yaml:"capabilities,omitempty"`
}

// maxNameLength is the maximum allowed length for extension names.
const maxNameLength = 64

// namePattern validates extension names: must start with a lowercase
// letter, followed by lowercase letters, digits, or hyphens. Cannot end
// with a hyphen.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates an extension.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return fmt.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return fmt.Errorf("version is required")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("version %q is not valid semver: %w", m.Version, err)
	}

	if m.Entry == "" {
		return fmt.Errorf("entry is required")
	}

	for i, cap := range m.Capabilities {
		if cap == "" {
			return fmt.Errorf("capability %d: pattern cannot be empty", i)
		}
	}

	return nil
}
