/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"bennypowers.dev/yevu/internal/mapfs"
)

// stdAssertFetcher fakes the registry documents for @std/assert.
func stdAssertFetcher() *fakeFetcher {
	ff := newFakeFetcher()
	ff.add("https://jsr.test/@std/assert/meta.json", `{
		"latest": "1.0.1",
		"versions": {
			"0.9.0": {},
			"1.0.0": {},
			"1.0.1": {"yanked": true}
		}
	}`)
	ff.add("https://jsr.test/@std/assert/1.0.0_meta.json", `{
		"manifest": {
			"/mod.ts": {"size": 20, "checksum": "sha256-aaaa"},
			"/assert_equals.ts": {"size": 11, "checksum": "sha256-bbbb"},
			"/internal/diff.ts": {"size": 9, "checksum": "sha256-cccc"}
		},
		"exports": {
			".": "./mod.ts",
			"./equals": "./assert_equals.ts"
		}
	}`)
	ff.add("https://jsr.test/@std/assert/1.0.0/mod.ts", "export * from './assert_equals.ts';")
	ff.add("https://jsr.test/@std/assert/1.0.0/assert_equals.ts", "export {}")
	ff.add("https://jsr.test/@std/assert/1.0.0/internal/diff.ts", "export {}")
	return ff
}

func TestJSRResolver_RootExport(t *testing.T) {
	mfs := mapfs.New()
	j := newJSRResolver(testConfig(), mfs, stdAssertFetcher())

	identity, err := j.resolve("jsr:@std/assert")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	// latest (1.0.1) is yanked; the highest non-yanked version wins.
	if identity != "jsr:@std/assert@1.0.0/mod.ts" {
		t.Errorf("identity = %q", identity)
	}

	localPath, err := j.localPath(identity)
	if err != nil {
		t.Fatalf("localPath() error = %v", err)
	}
	if localPath != "/cache/jsr/std/assert/1.0.0/mod.ts" {
		t.Errorf("localPath = %q", localPath)
	}
	if !mfs.Exists(localPath) {
		t.Error("resolved file was not downloaded")
	}
}

func TestJSRResolver_RangeSelection(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), stdAssertFetcher())

	identity, err := j.resolve("jsr:@std/assert@^1.0.0")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if !strings.HasPrefix(identity, "jsr:@std/assert@1.0.0/") {
		t.Errorf("identity = %q, want version 1.0.0 (1.0.1 is yanked)", identity)
	}
}

func TestJSRResolver_VersionUnsatisfiable(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), stdAssertFetcher())

	_, err := j.resolve("jsr:@std/assert@^2.0.0")
	if !errors.Is(err, ErrVersionUnsatisfiable) {
		t.Fatalf("error = %v, want ErrVersionUnsatisfiable", err)
	}
	// The error lists the available versions for diagnostics.
	if !strings.Contains(err.Error(), "0.9.0") || !strings.Contains(err.Error(), "1.0.0") {
		t.Errorf("error %q should list available versions", err)
	}
}

func TestJSRResolver_SubpathViaExports(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), stdAssertFetcher())

	identity, err := j.resolve("jsr:@std/assert@1.0.0/equals")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if identity != "jsr:@std/assert@1.0.0/assert_equals.ts" {
		t.Errorf("identity = %q", identity)
	}
}

func TestJSRResolver_SubpathViaManifest(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), stdAssertFetcher())

	identity, err := j.resolve("jsr:@std/assert@1.0.0/internal/diff.ts")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if identity != "jsr:@std/assert@1.0.0/internal/diff.ts" {
		t.Errorf("identity = %q", identity)
	}
}

func TestJSRResolver_SubpathExtensionProbing(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), stdAssertFetcher())

	identity, err := j.resolve("jsr:@std/assert@1.0.0/internal/diff")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if identity != "jsr:@std/assert@1.0.0/internal/diff.ts" {
		t.Errorf("identity = %q", identity)
	}
}

func TestJSRResolver_SubpathNotFound(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), stdAssertFetcher())

	_, err := j.resolve("jsr:@std/assert@1.0.0/no/such/file")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "@std/assert") || !strings.Contains(err.Error(), "1.0.0") {
		t.Errorf("error %q should name package and version", err)
	}
}

func TestJSRResolver_InvalidSpecifier(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), newFakeFetcher())

	_, err := j.resolve("jsr:assert")
	if !errors.Is(err, ErrInvalidSpecifier) {
		t.Fatalf("error = %v, want ErrInvalidSpecifier", err)
	}
}

func TestJSRResolver_ResolveRelativeStaysInPackage(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), stdAssertFetcher())

	identity, err := j.resolveRelative("./internal/diff.ts", "jsr:@std/assert@1.0.0/mod.ts")
	if err != nil {
		t.Fatalf("resolveRelative() error = %v", err)
	}
	if identity != "jsr:@std/assert@1.0.0/internal/diff.ts" {
		t.Errorf("identity = %q", identity)
	}
}

func TestJSRResolver_LocalPathRequiresVersion(t *testing.T) {
	j := newJSRResolver(testConfig(), mapfs.New(), stdAssertFetcher())

	_, err := j.localPath("jsr:@std/assert/mod.ts")
	if !errors.Is(err, ErrInvalidSpecifier) {
		t.Fatalf("error = %v, want ErrInvalidSpecifier for versionless identity", err)
	}
}

func TestJSRResolver_PackageMetaTTL(t *testing.T) {
	mfs := mapfs.New()
	ff := stdAssertFetcher()
	j := newJSRResolver(testConfig(), mfs, ff)

	if _, err := j.resolve("jsr:@std/assert@1.0.0"); err != nil {
		t.Fatal(err)
	}
	metaFetches := ff.calls["https://jsr.test/@std/assert/meta.json"]
	if metaFetches != 1 {
		t.Fatalf("meta fetches = %d, want 1", metaFetches)
	}

	// Fresh cache: a second resolve reads metadata from disk.
	j2 := newJSRResolver(testConfig(), mfs, ff)
	if _, err := j2.resolve("jsr:@std/assert@1.0.0"); err != nil {
		t.Fatal(err)
	}
	if got := ff.calls["https://jsr.test/@std/assert/meta.json"]; got != 1 {
		t.Errorf("meta fetches after warm cache = %d, want 1", got)
	}

	// Expired cache: backdate the stored fetch timestamp past the TTL.
	stale, _ := json.Marshal(cachedPackageMeta{
		FetchedAt: time.Now().Add(-48 * time.Hour),
		Meta:      jsrPackageMeta{Latest: "1.0.0", Versions: map[string]jsrVersionInfo{"1.0.0": {}}},
	})
	if err := mfs.WriteFile("/cache/jsr/std/assert/meta.json", stale, 0644); err != nil {
		t.Fatal(err)
	}
	j3 := newJSRResolver(testConfig(), mfs, ff)
	if _, err := j3.resolve("jsr:@std/assert@1.0.0"); err != nil {
		t.Fatal(err)
	}
	if got := ff.calls["https://jsr.test/@std/assert/meta.json"]; got != 2 {
		t.Errorf("meta fetches after TTL expiry = %d, want 2", got)
	}
}

func TestJSRResolver_VersionMetaCachedPermanently(t *testing.T) {
	mfs := mapfs.New()
	ff := stdAssertFetcher()

	j := newJSRResolver(testConfig(), mfs, ff)
	if _, err := j.resolve("jsr:@std/assert@1.0.0"); err != nil {
		t.Fatal(err)
	}

	j2 := newJSRResolver(testConfig(), mfs, ff)
	if _, err := j2.resolve("jsr:@std/assert@1.0.0/equals"); err != nil {
		t.Fatal(err)
	}
	if got := ff.calls["https://jsr.test/@std/assert/1.0.0_meta.json"]; got != 1 {
		t.Errorf("version meta fetches = %d, want 1", got)
	}
}
