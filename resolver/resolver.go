/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolver turns import specifiers into canonical module identities
// and local file paths, fetching and caching remote content as needed.
//
// The Resolver dispatches each specifier to one of four protocol resolvers:
// local/relative files, http(s) URLs, jsr: scoped packages with semantic
// version ranges, and bare npm package names with automatic installation,
// plus a pluggable node: builtin namespace. Resolution is synchronous; a
// call returns only after any required downloads complete.
package resolver

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bennypowers.dev/yevu/config"
	"bennypowers.dev/yevu/fetch"
	yevufs "bennypowers.dev/yevu/fs"
	"bennypowers.dev/yevu/internal/logger"
	"bennypowers.dev/yevu/specifier"
)

// memoKey identifies one (specifier, parent) resolution.
type memoKey struct {
	spec   string
	parent string
}

// memoEntry records a resolved identity. Entries never expire on their own;
// ClearCache empties the table explicitly.
type memoEntry struct {
	identity   string
	resolvedAt time.Time
}

// Resolver is the specifier dispatcher. It owns the session memo and the
// shared configuration; each protocol resolver holds a read-only reference
// to the same config.
type Resolver struct {
	cfg  *config.Config
	fsys yevufs.FileSystem

	mu   sync.Mutex
	memo map[memoKey]memoEntry

	http *httpResolver
	jsr  *jsrResolver
	npm  *npmResolver
	node *nodeResolver
}

// Option configures a Resolver.
type Option func(*options)

type options struct {
	fsys    yevufs.FileSystem
	fetcher fetch.Fetcher
}

// WithFileSystem replaces the OS filesystem, for tests and virtual hosts.
func WithFileSystem(fsys yevufs.FileSystem) Option {
	return func(o *options) { o.fsys = fsys }
}

// WithFetcher replaces the HTTP fetcher, for tests.
func WithFetcher(f fetch.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// New creates a Resolver for one resolution session.
func New(cfg *config.Config, opts ...Option) *Resolver {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.fsys == nil {
		o.fsys = yevufs.NewOSFileSystem()
	}
	if o.fetcher == nil {
		o.fetcher = fetch.NewHTTPFetcher(fetch.DefaultMaxSize)
	}
	if cfg.Silent {
		logger.SetOutput(io.Discard)
	}

	return &Resolver{
		cfg:  cfg,
		fsys: o.fsys,
		memo: make(map[memoKey]memoEntry),
		http: newHTTPResolver(cfg, o.fsys, o.fetcher),
		jsr:  newJSRResolver(cfg, o.fsys, o.fetcher),
		npm:  newNPMResolver(cfg, o.fsys, o.fetcher),
		node: newNodeResolver(cfg, o.fsys),
	}
}

// Resolve maps a specifier and its referencing module to a canonical,
// protocol-qualified identity. Results are memoized per (specifier, parent)
// pair for the Resolver's lifetime.
func (r *Resolver) Resolve(spec, parent string) (string, error) {
	key := memoKey{spec: spec, parent: parent}

	r.mu.Lock()
	if entry, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return entry.identity, nil
	}
	r.mu.Unlock()

	identity, err := r.dispatch(rewriteImportMap(spec, r.cfg.ImportMap), parent)
	if err != nil {
		return "", fmt.Errorf("resolving %q from %q: %w", spec, parent, err)
	}

	r.mu.Lock()
	r.memo[key] = memoEntry{identity: identity, resolvedAt: time.Now()}
	r.mu.Unlock()

	return identity, nil
}

// LocalPath maps an already-resolved identity back to a file on disk.
// Local identities are returned unchanged.
func (r *Resolver) LocalPath(identity string) (string, error) {
	switch specifier.Classify(identity) {
	case specifier.KindHTTP:
		return r.http.localPath(identity)
	case specifier.KindJSR:
		return r.jsr.localPath(identity)
	default:
		return identity, nil
	}
}

// RegisterNodeResolver injects the host's builtin-module mapping.
func (r *Resolver) RegisterNodeResolver(fn NodeResolverFunc) {
	r.node.register(fn)
}

// ClearCache empties the session memo. On-disk caches are untouched.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.memo = make(map[memoKey]memoEntry)
	r.mu.Unlock()
}

func (r *Resolver) dispatch(spec, parent string) (string, error) {
	switch specifier.Classify(spec) {
	case specifier.KindNode:
		if !r.cfg.Node {
			return "", fmt.Errorf("%w: node", ErrProtocolDisabled)
		}
		return r.node.resolve(spec)

	case specifier.KindHTTP:
		if !r.cfg.HTTP {
			return "", fmt.Errorf("%w: http", ErrProtocolDisabled)
		}
		return r.http.resolve(spec)

	case specifier.KindJSR:
		if !r.cfg.JSR {
			return "", fmt.Errorf("%w: jsr", ErrProtocolDisabled)
		}
		return r.jsr.resolve(spec)

	case specifier.KindRelative:
		return r.resolveRelative(spec, parent)

	case specifier.KindAbsolute:
		if p, ok := r.resolveAlias(spec); ok {
			return p, nil
		}
		return probeFile(r.fsys, spec)

	default:
		// A path alias that lands on an existing file beats the npm
		// lookup; an alias that resolves to nothing falls through.
		if p, ok := r.resolveAlias(spec); ok {
			return p, nil
		}
		return r.npm.resolve(spec, parent)
	}
}

// resolveRelative dispatches ./ and ../ imports by the parent's protocol:
// package-relative joins for jsr:, URL joins for http(s), and filesystem
// joins for everything else.
func (r *Resolver) resolveRelative(spec, parent string) (string, error) {
	switch specifier.Classify(parent) {
	case specifier.KindJSR:
		return r.jsr.resolveRelative(spec, parent)
	case specifier.KindHTTP:
		return r.http.resolveRelative(spec, parent)
	}

	dir := ""
	if parent != "" {
		dir = filepath.Dir(parent)
	} else if cwd, err := r.fsys.Getwd(); err == nil {
		dir = cwd
	}

	joined := filepath.Join(dir, filepath.FromSlash(spec))
	if p, ok := r.resolveAlias(joined); ok {
		return p, nil
	}
	return probeFile(r.fsys, joined)
}

// resolveAlias applies the configured path-alias table. The first target of
// the first matching alias is joined against the base directory; the alias
// only wins when the result probes to an existing file.
func (r *Resolver) resolveAlias(spec string) (string, bool) {
	for prefix, targets := range r.cfg.Aliases {
		if !strings.HasPrefix(spec, prefix) || len(targets) == 0 {
			continue
		}
		rewritten := targets[0] + strings.TrimPrefix(spec, prefix)
		candidate := filepath.Join(r.cfg.BaseDir, filepath.FromSlash(rewritten))
		if p, err := probeFile(r.fsys, candidate); err == nil {
			return p, true
		}
	}
	return "", false
}

// rewriteImportMap applies the import map before protocol classification.
// An exact entry wins; otherwise the longest prefix entry whose key ends in
// / substitutes its value for that prefix.
func rewriteImportMap(spec string, importMap map[string]string) string {
	if len(importMap) == 0 {
		return spec
	}

	if replacement, ok := importMap[spec]; ok {
		return replacement
	}

	bestKey := ""
	for key := range importMap {
		if strings.HasSuffix(key, "/") && strings.HasPrefix(spec, key) && len(key) > len(bestKey) {
			bestKey = key
		}
	}
	if bestKey == "" {
		return spec
	}
	return importMap[bestKey] + strings.TrimPrefix(spec, bestKey)
}
