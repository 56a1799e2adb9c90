/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides resolver configuration for yevu.
//
// A Config is built in one construction step with fixed precedence:
// defaults, then the optional project config file, then environment
// variables. Caller overrides applied after LoadOrDefault win over all
// three. The resolver treats the result as immutable for the lifetime
// of a resolution session.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can use "1h" style strings.
type Duration time.Duration

// UnmarshalYAML parses durations from "30m" style scalars.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON parses durations from "30m" style strings.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the knobs shared read-only by every protocol resolver.
type Config struct {
	// CacheDir is the root directory for all on-disk caches.
	CacheDir string `yaml:"cacheDir" json:"cacheDir"`

	// HTTP enables the http:// and https:// protocol resolver.
	HTTP bool `yaml:"http" json:"http"`

	// JSR enables the jsr: protocol resolver.
	JSR bool `yaml:"jsr" json:"jsr"`

	// Node enables the node: builtin resolver.
	Node bool `yaml:"node" json:"node"`

	// Silent suppresses download progress logging.
	Silent bool `yaml:"silent" json:"silent"`

	// JSRMetaTTL is the maximum age of cached JSR package metadata.
	// Per-version manifests are immutable upstream and never expire.
	JSRMetaTTL Duration `yaml:"jsrMetaTTL" json:"jsrMetaTTL"`

	// JSRRegistry is the JSR registry base URL.
	JSRRegistry string `yaml:"jsrRegistry" json:"jsrRegistry"`

	// NPMRegistry overrides npm registry resolution. When empty the
	// resolver falls back to NPM_CONFIG_REGISTRY, then ~/.npmrc, then
	// the public registry.
	NPMRegistry string `yaml:"npmRegistry" json:"npmRegistry"`

	// Aliases maps path-alias prefixes to ordered target prefixes.
	// Only the first target of each alias is consulted.
	Aliases map[string][]string `yaml:"aliases" json:"aliases"`

	// BaseDir is the directory alias targets are resolved against.
	BaseDir string `yaml:"baseDir" json:"baseDir"`

	// ImportMap rewrites specifiers before protocol classification.
	// Keys ending in / are prefix entries; all others match exactly.
	ImportMap map[string]string `yaml:"importMap" json:"importMap"`
}

const (
	// DefaultJSRRegistry is the public JSR registry.
	DefaultJSRRegistry = "https://jsr.io"

	// DefaultJSRMetaTTL is how long cached JSR package metadata stays fresh.
	DefaultJSRMetaTTL = Duration(24 * time.Hour)
)

// Default returns a config with default values. All protocols are enabled;
// the cache lives under the user cache directory.
func Default() *Config {
	return &Config{
		CacheDir:    defaultCacheDir(),
		HTTP:        true,
		JSR:         true,
		Node:        true,
		JSRMetaTTL:  DefaultJSRMetaTTL,
		JSRRegistry: DefaultJSRRegistry,
	}
}

func defaultCacheDir() string {
	if dir := os.Getenv("YEVU_CACHE_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "yevu")
	}
	return ".yevu-cache"
}
