/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"bennypowers.dev/yevu/config"
	yevufs "bennypowers.dev/yevu/fs"
	"bennypowers.dev/yevu/specifier"
)

// NodeResolverFunc maps a builtin module name to a local path. Returning
// false falls through to the cache-directory probe.
type NodeResolverFunc func(name string) (string, bool)

// nodeResolver serves node:-prefixed builtin modules via a host-supplied
// callback, else shim files under <cacheDir>/node/<name>.
type nodeResolver struct {
	cfg  *config.Config
	fsys yevufs.FileSystem

	mu       sync.Mutex
	callback NodeResolverFunc
}

func newNodeResolver(cfg *config.Config, fsys yevufs.FileSystem) *nodeResolver {
	return &nodeResolver{cfg: cfg, fsys: fsys}
}

func (r *nodeResolver) register(fn NodeResolverFunc) {
	r.mu.Lock()
	r.callback = fn
	r.mu.Unlock()
}

// resolve strips the node: prefix, consults the registered callback, then
// probes the conventional cache subdirectory.
func (r *nodeResolver) resolve(spec string) (string, error) {
	name := strings.TrimPrefix(spec, "node:")

	r.mu.Lock()
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		if p, ok := callback(name); ok {
			return p, nil
		}
	}

	shimDir := filepath.Join(r.cfg.CacheDir, "node")
	if p, err := probeFile(r.fsys, filepath.Join(shimDir, filepath.FromSlash(name))); err == nil {
		return p, nil
	}

	if !specifier.IsNodeBuiltin(name) {
		return "", fmt.Errorf("%w: %q is not a node builtin", ErrInvalidSpecifier, name)
	}

	return "", fmt.Errorf("%w: node builtin %q (install a shim under %s or register a node resolver)",
		ErrNotFound, name, shimDir)
}
