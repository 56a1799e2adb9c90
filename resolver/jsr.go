/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"bennypowers.dev/yevu/config"
	"bennypowers.dev/yevu/fetch"
	yevufs "bennypowers.dev/yevu/fs"
	"bennypowers.dev/yevu/internal/logger"
	"bennypowers.dev/yevu/semver"
	"bennypowers.dev/yevu/specifier"
)

// jsrVersionInfo is one entry in a package's version map.
type jsrVersionInfo struct {
	Yanked bool `json:"yanked"`
}

// jsrPackageMeta is the per-package registry document.
type jsrPackageMeta struct {
	Latest   string                    `json:"latest"`
	Versions map[string]jsrVersionInfo `json:"versions"`
}

// cachedPackageMeta wraps package metadata with its fetch timestamp so the
// on-disk copy can expire.
type cachedPackageMeta struct {
	FetchedAt time.Time      `json:"fetchedAt"`
	Meta      jsrPackageMeta `json:"meta"`
}

// jsrManifestEntry describes one file in a version manifest. The checksum
// is recorded upstream but not verified here.
type jsrManifestEntry struct {
	Size     int64  `json:"size"`
	Checksum string `json:"checksum"`
}

// jsrVersionMeta is the per-version registry document. Manifest keys are
// package-root-absolute paths; export keys start with ".".
type jsrVersionMeta struct {
	Manifest map[string]jsrManifestEntry `json:"manifest"`
	Exports  map[string]string           `json:"exports"`
}

// jsrSourceExtensions are probed against the manifest when a subpath has
// no direct manifest or export entry.
var jsrSourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs"}

// jsrResolver resolves jsr:@scope/name[@range][/path] specifiers against
// the JSR registry, caching metadata and source files under
// <cacheDir>/jsr/<scope>/<name>.
type jsrResolver struct {
	cfg     *config.Config
	fsys    yevufs.FileSystem
	fetcher fetch.Fetcher

	mu    sync.Mutex
	paths map[string]string // identity → local path
}

func newJSRResolver(cfg *config.Config, fsys yevufs.FileSystem, fetcher fetch.Fetcher) *jsrResolver {
	return &jsrResolver{
		cfg:     cfg,
		fsys:    fsys,
		fetcher: fetcher,
		paths:   make(map[string]string),
	}
}

// resolve parses the specifier, pins a version, resolves the subpath
// against the version's exports and manifest, downloads the file, and
// returns the canonical jsr:@scope/name@version/path identity.
func (j *jsrResolver) resolve(spec string) (string, error) {
	parsed, err := specifier.ParseJSR(spec)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSpecifier, err)
	}

	version, err := j.resolveVersion(parsed)
	if err != nil {
		return "", err
	}

	meta, err := j.versionMeta(parsed, version)
	if err != nil {
		return "", err
	}

	resolvedPath, err := resolveJSRPath(meta, parsed.Subpath)
	if err != nil {
		return "", fmt.Errorf("%w in %s@%s", err, parsed.Package(), version)
	}

	localPath, err := j.ensureFile(parsed, version, resolvedPath)
	if err != nil {
		return "", err
	}

	identity := "jsr:" + parsed.Package() + "@" + version + resolvedPath

	j.mu.Lock()
	j.paths[identity] = localPath
	j.mu.Unlock()

	return identity, nil
}

// resolveRelative joins a relative import against the package-relative
// directory of the parent identity. Relative JSR imports stay inside the
// same package@version.
func (j *jsrResolver) resolveRelative(relativePath, parentIdentity string) (string, error) {
	parent, err := specifier.ParseJSR(parentIdentity)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSpecifier, err)
	}
	if parent.Range == "" {
		return "", fmt.Errorf("%w: parent %q has no pinned version", ErrInvalidSpecifier, parentIdentity)
	}

	joined := path.Join(path.Dir("/"+parent.Subpath), relativePath)
	target := &specifier.JSR{
		Scope:   parent.Scope,
		Name:    parent.Name,
		Range:   parent.Range,
		Subpath: strings.TrimPrefix(joined, "/"),
	}
	return j.resolve(target.String())
}

// localPath returns the recorded mapping, or re-derives the cache path from
// the identity. Identities without an explicit version are invalid here.
func (j *jsrResolver) localPath(identity string) (string, error) {
	j.mu.Lock()
	p, ok := j.paths[identity]
	j.mu.Unlock()
	if ok {
		return p, nil
	}

	parsed, err := specifier.ParseJSR(identity)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSpecifier, err)
	}
	if parsed.Range == "" {
		return "", fmt.Errorf("%w: identity %q carries no version", ErrInvalidSpecifier, identity)
	}

	return j.ensureFile(parsed, parsed.Range, "/"+parsed.Subpath)
}

// resolveVersion pins a concrete version for the specifier. Yanked versions
// are excluded even when following the registry's latest pointer.
func (j *jsrResolver) resolveVersion(parsed *specifier.JSR) (string, error) {
	meta, err := j.packageMeta(parsed)
	if err != nil {
		return "", err
	}

	available := make([]string, 0, len(meta.Versions))
	for v, info := range meta.Versions {
		if !info.Yanked {
			available = append(available, v)
		}
	}

	if parsed.Range == "" {
		if info, ok := meta.Versions[meta.Latest]; ok && !info.Yanked {
			return meta.Latest, nil
		}
		// The latest pointer names a yanked or unknown version; fall
		// back to the highest non-yanked one.
		if v := semver.MatchLatest(available, "*"); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%w: %s has no usable versions", ErrNotFound, parsed.Package())
	}

	// An exact pin that the registry knows wins without range matching.
	if info, ok := meta.Versions[parsed.Range]; ok && !info.Yanked {
		return parsed.Range, nil
	}

	if v := semver.MatchLatest(available, parsed.Range); v != "" {
		return v, nil
	}

	sort.Strings(available)
	return "", fmt.Errorf("%w: %s@%s (available: %s)",
		ErrVersionUnsatisfiable, parsed.Package(), parsed.Range, strings.Join(available, ", "))
}

// packageMeta loads the per-package metadata document, fetching it when
// absent or older than the configured TTL.
func (j *jsrResolver) packageMeta(parsed *specifier.JSR) (*jsrPackageMeta, error) {
	metaPath := filepath.Join(j.cfg.CacheDir, "jsr", parsed.Scope, parsed.Name, "meta.json")

	if data, err := j.fsys.ReadFile(metaPath); err == nil {
		var cached cachedPackageMeta
		if err := json.Unmarshal(data, &cached); err == nil {
			if time.Since(cached.FetchedAt) < time.Duration(j.cfg.JSRMetaTTL) {
				return &cached.Meta, nil
			}
		}
	}

	url := j.cfg.JSRRegistry + "/" + parsed.Package() + "/meta.json"
	body, err := j.fetcher.Fetch(context.Background(), url)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata for %s: %w", parsed.Package(), err)
	}

	var meta jsrPackageMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("parsing metadata for %s: %w", parsed.Package(), err)
	}

	cached := cachedPackageMeta{FetchedAt: time.Now(), Meta: meta}
	if data, err := json.Marshal(cached); err == nil {
		if err := j.fsys.MkdirAll(filepath.Dir(metaPath), 0755); err == nil {
			_ = j.fsys.WriteFile(metaPath, data, 0644)
		}
	}

	return &meta, nil
}

// versionMeta loads a version's manifest/exports document. Versions are
// immutable upstream, so the on-disk copy never expires.
func (j *jsrResolver) versionMeta(parsed *specifier.JSR, version string) (*jsrVersionMeta, error) {
	metaPath := filepath.Join(j.cfg.CacheDir, "jsr", parsed.Scope, parsed.Name, version, "meta.json")

	if data, err := j.fsys.ReadFile(metaPath); err == nil {
		var meta jsrVersionMeta
		if err := json.Unmarshal(data, &meta); err == nil {
			return &meta, nil
		}
	}

	url := j.cfg.JSRRegistry + "/" + parsed.Package() + "/" + version + "_meta.json"
	body, err := j.fetcher.Fetch(context.Background(), url)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest for %s@%s: %w", parsed.Package(), version, err)
	}

	var meta jsrVersionMeta
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("parsing manifest for %s@%s: %w", parsed.Package(), version, err)
	}

	if err := j.fsys.MkdirAll(filepath.Dir(metaPath), 0755); err == nil {
		_ = j.fsys.WriteFile(metaPath, body, 0644)
	}

	return &meta, nil
}

// ensureFile downloads the resolved file into the version's cache directory
// unless it is already present. resolvedPath is package-root-absolute.
func (j *jsrResolver) ensureFile(parsed *specifier.JSR, version, resolvedPath string) (string, error) {
	localPath := filepath.Join(j.cfg.CacheDir, "jsr", parsed.Scope, parsed.Name, version,
		filepath.FromSlash(strings.TrimPrefix(resolvedPath, "/")))

	if j.fsys.Exists(localPath) {
		return localPath, nil
	}

	url := j.cfg.JSRRegistry + "/" + parsed.Package() + "/" + version + resolvedPath
	logger.Info("Downloading %s@%s%s", parsed.Package(), version, resolvedPath)
	body, err := j.fetcher.Fetch(context.Background(), url)
	if err != nil {
		return "", fmt.Errorf("downloading %s@%s%s: %w", parsed.Package(), version, resolvedPath, err)
	}

	if err := j.fsys.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", err
	}
	if err := j.fsys.WriteFile(localPath, body, 0644); err != nil {
		return "", err
	}

	return localPath, nil
}

// resolveJSRPath maps a requested subpath to a package-root-absolute file
// path using the version's export map and file manifest.
func resolveJSRPath(meta *jsrVersionMeta, subpath string) (string, error) {
	if subpath == "" || subpath == "/" || subpath == "." {
		if target, ok := meta.Exports["."]; ok {
			return "/" + strings.TrimPrefix(target, "./"), nil
		}
		if target, ok := meta.Exports["./mod.ts"]; ok {
			return "/" + strings.TrimPrefix(target, "./"), nil
		}
		return "", fmt.Errorf("%w: no root export", ErrNotFound)
	}

	normalized := "/" + strings.Trim(subpath, "/")

	if target, ok := meta.Exports["."+normalized]; ok {
		return "/" + strings.TrimPrefix(target, "./"), nil
	}

	if _, ok := meta.Manifest[normalized]; ok {
		return normalized, nil
	}

	for _, ext := range jsrSourceExtensions {
		candidate := normalized + ext
		if target, ok := meta.Exports["."+candidate]; ok {
			return "/" + strings.TrimPrefix(target, "./"), nil
		}
		if _, ok := meta.Manifest[candidate]; ok {
			return candidate, nil
		}
	}

	for _, ext := range jsrSourceExtensions {
		candidate := normalized + "/index" + ext
		if _, ok := meta.Manifest[candidate]; ok {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: cannot find %q", ErrNotFound, subpath)
}
