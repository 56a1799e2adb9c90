/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"fmt"
	"path/filepath"

	yevufs "bennypowers.dev/yevu/fs"
)

// probeExtensions are tried, in order, when a path does not exist verbatim.
var probeExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".json"}

// indexExtensions are tried, in order, for <dir>/index files.
var indexExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// probeFile resolves a base path to an existing file using the shared
// extension and index rules: the path itself, then <base><ext>, then
// <base>/index<ext>. A directory restarts probing on its index file.
func probeFile(fsys yevufs.FileSystem, base string) (string, error) {
	if info, err := fsys.Stat(base); err == nil {
		if !info.IsDir() {
			return base, nil
		}
		return probeIndex(fsys, base)
	}

	for _, ext := range probeExtensions {
		candidate := base + ext
		if info, err := fsys.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if p, err := probeIndex(fsys, base); err == nil {
		return p, nil
	}

	return "", fmt.Errorf("%w: %s", ErrNotFound, base)
}

func probeIndex(fsys yevufs.FileSystem, dir string) (string, error) {
	for _, ext := range indexExtensions {
		candidate := filepath.Join(dir, "index"+ext)
		if info, err := fsys.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, dir)
}
