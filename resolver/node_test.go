/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/yevu/internal/mapfs"
)

func TestNodeResolver_Callback(t *testing.T) {
	n := newNodeResolver(testConfig(), mapfs.New())
	n.register(func(name string) (string, bool) {
		if name == "fs" {
			return "/runtime/builtins/fs.js", true
		}
		return "", false
	})

	got, err := n.resolve("node:fs")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if got != "/runtime/builtins/fs.js" {
		t.Errorf("resolve() = %q", got)
	}
}

func TestNodeResolver_CallbackMissFallsThroughToShim(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/cache/node/path.js", "export * from './shim.js'", 0644)

	n := newNodeResolver(testConfig(), mfs)
	n.register(func(string) (string, bool) { return "", false })

	got, err := n.resolve("node:path")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if got != "/cache/node/path.js" {
		t.Errorf("resolve() = %q", got)
	}
}

func TestNodeResolver_ShimSubpath(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/cache/node/fs/promises.js", "", 0644)

	n := newNodeResolver(testConfig(), mfs)

	got, err := n.resolve("node:fs/promises")
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if got != "/cache/node/fs/promises.js" {
		t.Errorf("resolve() = %q", got)
	}
}

func TestNodeResolver_NotFoundNamesShimDir(t *testing.T) {
	n := newNodeResolver(testConfig(), mapfs.New())

	_, err := n.resolve("node:crypto")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "crypto") || !strings.Contains(err.Error(), "/cache/node") {
		t.Errorf("error %q should name the builtin and the shim directory", err)
	}
}

func TestNodeResolver_UnknownBuiltin(t *testing.T) {
	n := newNodeResolver(testConfig(), mapfs.New())

	_, err := n.resolve("node:definitely-not-a-builtin")
	if !errors.Is(err, ErrInvalidSpecifier) {
		t.Fatalf("error = %v, want ErrInvalidSpecifier", err)
	}
}

func TestResolve_RegisterNodeResolver(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/main.ts", "", 0644)

	r := New(testConfig(), WithFileSystem(mfs), WithFetcher(newFakeFetcher()))
	r.RegisterNodeResolver(func(name string) (string, bool) {
		return "/runtime/" + name + ".js", true
	})

	got, err := r.Resolve("node:os", "/project/main.ts")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != "/runtime/os.js" {
		t.Errorf("Resolve() = %q", got)
	}
}
