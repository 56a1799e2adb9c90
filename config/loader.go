/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	yevufs "bennypowers.dev/yevu/fs"
)

// ConfigFileName is the base name of the config file without extension.
const ConfigFileName = "yevu"

// ConfigDir is the directory where config files are stored.
const ConfigDir = ".config"

// configExtensions are the supported config file extensions in priority order.
var configExtensions = []string{".yaml", ".yml", ".json"}

// Load searches for .config/yevu.{yaml,yml,json} from rootDir and merges
// it over defaults, then applies environment variables.
// Returns nil if no config file is found (not an error).
func Load(filesystem yevufs.FileSystem, rootDir string) (*Config, error) {
	for _, ext := range configExtensions {
		configPath := filepath.Join(rootDir, ConfigDir, ConfigFileName+ext)
		if !filesystem.Exists(configPath) {
			continue
		}

		data, err := filesystem.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		cfg := Default()
		switch ext {
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", configPath, err)
			}
		case ".json":
			// jsonc tolerates comments and trailing commas, so
			// tsconfig-style documents load unchanged.
			if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", configPath, err)
			}
		}

		applyEnv(cfg)
		return cfg, nil
	}

	return nil, nil
}

// LoadOrDefault loads config or returns defaults (with environment applied)
// if no file is found or loading fails.
func LoadOrDefault(filesystem yevufs.FileSystem, rootDir string) *Config {
	cfg, err := Load(filesystem, rootDir)
	if err != nil || cfg == nil {
		cfg = Default()
		applyEnv(cfg)
	}
	return cfg
}

// applyEnv overlays environment variables onto cfg. Environment wins over
// file values, caller field assignments win over both. NPM_CONFIG_REGISTRY
// is deliberately left to the npm resolver, which owns the full registry
// precedence chain including ~/.npmrc.
func applyEnv(cfg *Config) {
	if dir := os.Getenv("YEVU_CACHE_DIR"); dir != "" {
		cfg.CacheDir = dir
	}
}
