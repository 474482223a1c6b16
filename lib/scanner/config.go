// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the optional per-tree configuration file, looked
// up in the scan root.
const ConfigFileName = ".cxp.yaml"

// DefaultMaxFileSize is the per-file size cap when the config does
// not set one. Source files larger than this are almost always
// generated artifacts, not context worth packaging.
const DefaultMaxFileSize = 10 * 1024 * 1024 // 10 MiB

// Config adjusts which files a scan selects. All pattern lists use
// doublestar globs matched against the slash-separated path relative
// to the scan root (and, for convenience, against the bare file
// name).
type Config struct {
	// Include are extra patterns selected even when the extension is
	// not in the text allowlist. The always-ignored set still wins.
	Include []string `yaml:"include"`

	// Exclude are patterns dropped in addition to the always-ignored
	// set.
	Exclude []string `yaml:"exclude"`

	// FollowSymlinks walks through symlinked files and directories
	// instead of skipping them. Cycles are detected and broken by the
	// walker.
	FollowSymlinks bool `yaml:"follow_symlinks"`

	// MaxFileSize is the per-file byte cap; zero means
	// DefaultMaxFileSize.
	MaxFileSize int64 `yaml:"max_file_size"`
}

// maxFileSize returns the effective cap.
func (c *Config) maxFileSize() int64 {
	if c == nil || c.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return c.MaxFileSize
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scanner config %q: %w", path, err)
	}
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing scanner config %q: %w", path, err)
	}
	return &config, nil
}

// FindConfig loads the tree's own config file from root, or returns
// an empty config if the tree has none.
func FindConfig(root string) (*Config, error) {
	path := filepath.Join(root, ConfigFileName)
	config, err := LoadConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return config, nil
}
