/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"testing"
	"time"

	"bennypowers.dev/yevu/internal/mapfs"
)

func TestLoad_NoConfigFile(t *testing.T) {
	mfs := mapfs.New()

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != nil {
		t.Errorf("Load() = %+v, want nil for missing config", cfg)
	}
}

func TestLoad_YAML(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/.config/yevu.yaml", `
cacheDir: /var/cache/yevu
jsr: false
silent: true
jsrMetaTTL: 1h
importMap:
  "@/": "./src/"
aliases:
  "~lib/":
    - "lib/"
`, 0644)

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() = nil, want config")
	}
	if cfg.CacheDir != "/var/cache/yevu" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.JSR {
		t.Error("JSR should be disabled")
	}
	if !cfg.HTTP {
		t.Error("HTTP should keep its default")
	}
	if !cfg.Silent {
		t.Error("Silent should be set")
	}
	if cfg.JSRMetaTTL != Duration(time.Hour) {
		t.Errorf("JSRMetaTTL = %v", cfg.JSRMetaTTL)
	}
	if cfg.ImportMap["@/"] != "./src/" {
		t.Errorf("ImportMap = %v", cfg.ImportMap)
	}
	if len(cfg.Aliases["~lib/"]) != 1 || cfg.Aliases["~lib/"][0] != "lib/" {
		t.Errorf("Aliases = %v", cfg.Aliases)
	}
}

func TestLoad_JSONWithComments(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/.config/yevu.json", `{
  // comments are fine
  "cacheDir": "/tmp/yevu",
  "node": false,
}`, 0644)

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() = nil, want config")
	}
	if cfg.CacheDir != "/tmp/yevu" {
		t.Errorf("CacheDir = %q", cfg.CacheDir)
	}
	if cfg.Node {
		t.Error("Node should be disabled")
	}
}

func TestLoad_YAMLPriorityOverJSON(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/.config/yevu.yaml", "cacheDir: /from-yaml\n", 0644)
	mfs.AddFile("/project/.config/yevu.json", `{"cacheDir": "/from-json"}`, 0644)

	cfg, err := Load(mfs, "/project")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheDir != "/from-yaml" {
		t.Errorf("CacheDir = %q, want /from-yaml", cfg.CacheDir)
	}
}

func TestLoadOrDefault_FallsBack(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/.config/yevu.yaml", "cacheDir: [not a string\n", 0644)

	cfg := LoadOrDefault(mfs, "/project")
	if cfg == nil {
		t.Fatal("LoadOrDefault() = nil")
	}
	if !cfg.HTTP || !cfg.JSR || !cfg.Node {
		t.Error("defaults should enable all protocols")
	}
	if cfg.JSRRegistry != DefaultJSRRegistry {
		t.Errorf("JSRRegistry = %q", cfg.JSRRegistry)
	}
}
