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
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"

	"bennypowers.dev/yevu/config"
	"bennypowers.dev/yevu/fetch"
	yevufs "bennypowers.dev/yevu/fs"
	"bennypowers.dev/yevu/internal/logger"
	"bennypowers.dev/yevu/specifier"
	"bennypowers.dev/yevu/tarball"
)

// DefaultNPMRegistry is the public npm registry.
const DefaultNPMRegistry = "https://registry.npmjs.org"

// npmDist is the tarball location for one published version.
type npmDist struct {
	Tarball string `json:"tarball"`
	Shasum  string `json:"shasum"`
}

// npmPackageMetadata is the registry document for a package.
type npmPackageMetadata struct {
	Name     string `json:"name"`
	DistTags struct {
		Latest string `json:"latest"`
	} `json:"dist-tags"`
	Versions map[string]struct {
		Dist npmDist `json:"dist"`
	} `json:"versions"`
}

// packageJSON is the subset of package.json that drives entry resolution.
type packageJSON struct {
	Name    string          `json:"name"`
	Main    string          `json:"main"`
	Module  string          `json:"module"`
	Exports json.RawMessage `json:"exports"`
}

// exportConditions are tried in fixed order when an export target is a
// conditional-exports object.
var exportConditions = []string{"import", "default", "require"}

// npmResolver resolves bare package names: ancestor node_modules lookup
// first, then automatic installation from the npm registry into the global
// cache. Resolved identities are filesystem paths.
type npmResolver struct {
	cfg     *config.Config
	fsys    yevufs.FileSystem
	fetcher fetch.Fetcher

	mu       sync.Mutex
	registry string // memoized after first lookup
}

func newNPMResolver(cfg *config.Config, fsys yevufs.FileSystem, fetcher fetch.Fetcher) *npmResolver {
	return &npmResolver{
		cfg:     cfg,
		fsys:    fsys,
		fetcher: fetcher,
	}
}

// globalModulesDir is where auto-installed packages land. The upward
// node_modules walk finds them there on later runs.
func (n *npmResolver) globalModulesDir() string {
	return filepath.Join(n.cfg.CacheDir, "node_modules")
}

// resolve locates a package directory for the bare specifier and resolves
// the requested subpath or main entry to a file path.
func (n *npmResolver) resolve(spec, parent string) (string, error) {
	pkgName, subpath := specifier.SplitPackageName(spec)

	pkgDir, found := n.findPackageDir(pkgName, parent)
	if !found {
		installed, err := n.install(pkgName)
		if err != nil {
			// Install failures collapse into "not found" so the
			// dispatcher's error is uniform whether the package
			// was absent or failed to download.
			logger.Warn("installing %s: %v", pkgName, err)
			return "", fmt.Errorf("%w: package %q", ErrNotFound, pkgName)
		}
		pkgDir = installed
	}

	if subpath != "" {
		return n.resolveSubpath(pkgDir, subpath)
	}
	return n.resolveMainEntry(pkgDir)
}

// findPackageDir searches candidate node_modules directories: every
// existing node_modules sibling from the parent's directory up to the
// filesystem root, then the working directory's node_modules, then the
// global install cache.
func (n *npmResolver) findPackageDir(pkgName, parent string) (string, bool) {
	var candidates []string

	if parent != "" {
		dir := filepath.Dir(parent)
		for {
			nm := filepath.Join(dir, "node_modules")
			if n.fsys.Exists(nm) {
				candidates = append(candidates, nm)
			}
			next := filepath.Dir(dir)
			if next == dir {
				break
			}
			dir = next
		}
	}

	if cwd, err := n.fsys.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, "node_modules"))
	}
	candidates = append(candidates, n.globalModulesDir())

	for _, nm := range candidates {
		pkgDir := filepath.Join(nm, pkgName)
		if info, err := n.fsys.Stat(pkgDir); err == nil && info.IsDir() {
			return pkgDir, true
		}
	}
	return "", false
}

// install downloads the latest tarball for pkgName and unpacks it into the
// global cache, stripping the tarball's package/ prefix. Already-installed
// packages skip all network work.
func (n *npmResolver) install(pkgName string) (string, error) {
	target := filepath.Join(n.globalModulesDir(), pkgName)
	if n.fsys.Exists(target) {
		return target, nil
	}

	registry := n.registryURL()
	metaURL := registry + "/" + strings.ReplaceAll(pkgName, "/", "%2F")

	body, err := n.fetcher.Fetch(context.Background(), metaURL)
	if err != nil {
		return "", fmt.Errorf("fetching metadata: %w", err)
	}

	var meta npmPackageMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", fmt.Errorf("parsing metadata: %w", err)
	}

	latest := meta.DistTags.Latest
	if latest == "" {
		return "", fmt.Errorf("no latest tag for %s", pkgName)
	}
	version, ok := meta.Versions[latest]
	if !ok || version.Dist.Tarball == "" {
		return "", fmt.Errorf("no tarball for %s@%s", pkgName, latest)
	}

	logger.Info("Installing %s@%s", pkgName, latest)
	archive, err := n.fetcher.Fetch(context.Background(), version.Dist.Tarball)
	if err != nil {
		return "", fmt.Errorf("downloading tarball: %w", err)
	}

	entries, err := tarball.Extract(archive)
	if err != nil {
		return "", fmt.Errorf("extracting %s@%s: %w", pkgName, latest, err)
	}

	for _, entry := range entries {
		rel := strings.TrimPrefix(entry.Path, "package/")
		if rel == "" {
			continue
		}
		dest := filepath.Join(target, filepath.FromSlash(rel))

		switch entry.Type {
		case tarball.TypeDir:
			if err := n.fsys.MkdirAll(dest, 0755); err != nil {
				return "", err
			}
		case tarball.TypeFile:
			if err := n.fsys.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return "", err
			}
			if err := n.fsys.WriteFile(dest, entry.Data, 0644); err != nil {
				return "", err
			}
		}
		// Links and other entry types are skipped.
	}

	return target, nil
}

// registryURL resolves the npm registry base URL once: config override,
// then NPM_CONFIG_REGISTRY, then a registry= line in ~/.npmrc, then the
// public registry.
func (n *npmResolver) registryURL() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.registry != "" {
		return n.registry
	}

	switch {
	case n.cfg.NPMRegistry != "":
		n.registry = n.cfg.NPMRegistry
	case os.Getenv("NPM_CONFIG_REGISTRY") != "":
		n.registry = os.Getenv("NPM_CONFIG_REGISTRY")
	default:
		n.registry = DefaultNPMRegistry
		if home, err := os.UserHomeDir(); err == nil {
			if data, err := n.fsys.ReadFile(filepath.Join(home, ".npmrc")); err == nil {
				for _, line := range strings.Split(string(data), "\n") {
					if reg, ok := strings.CutPrefix(strings.TrimSpace(line), "registry="); ok {
						n.registry = strings.TrimSpace(reg)
						break
					}
				}
			}
		}
	}

	n.registry = strings.TrimSuffix(n.registry, "/")
	return n.registry
}

// resolveSubpath resolves a ./-prefixed subpath inside a package directory,
// preferring the package's exports map over direct path probing.
func (n *npmResolver) resolveSubpath(pkgDir, subpath string) (string, error) {
	if pkg, err := n.readPackageJSON(pkgDir); err == nil && len(pkg.Exports) > 0 {
		if target, ok := resolveExports(pkg.Exports, subpath); ok {
			return filepath.Join(pkgDir, filepath.FromSlash(strings.TrimPrefix(target, "./"))), nil
		}
	}

	return probeFile(n.fsys, filepath.Join(pkgDir, filepath.FromSlash(strings.TrimPrefix(subpath, "./"))))
}

// resolveMainEntry resolves a package's entry point with the precedence
// exports["."], then module, then main, then a conventional index file.
func (n *npmResolver) resolveMainEntry(pkgDir string) (string, error) {
	pkg, err := n.readPackageJSON(pkgDir)
	if err != nil {
		return probeFile(n.fsys, filepath.Join(pkgDir, "index"))
	}

	if len(pkg.Exports) > 0 {
		if target, ok := resolveExports(pkg.Exports, "."); ok {
			return filepath.Join(pkgDir, filepath.FromSlash(strings.TrimPrefix(target, "./"))), nil
		}
	}

	if pkg.Module != "" {
		candidate := filepath.Join(pkgDir, filepath.FromSlash(pkg.Module))
		if info, err := n.fsys.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	if pkg.Main != "" {
		if p, err := probeFile(n.fsys, filepath.Join(pkgDir, filepath.FromSlash(pkg.Main))); err == nil {
			return p, nil
		}
	}

	return probeFile(n.fsys, filepath.Join(pkgDir, "index"))
}

// readPackageJSON parses a package's package.json, tolerating comments.
func (n *npmResolver) readPackageJSON(pkgDir string) (*packageJSON, error) {
	data, err := n.fsys.ReadFile(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return nil, err
	}
	var pkg packageJSON
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json in %s: %w", pkgDir, err)
	}
	return &pkg, nil
}

// resolveExports resolves a subpath against a package.json exports field.
// A bare string export only serves the root subpath. Object exports are
// looked up by the subpath key, then by its ./-normalized form; conditional
// targets try import, default, require in that order.
func resolveExports(raw json.RawMessage, subpath string) (string, bool) {
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if subpath == "" || subpath == "." {
			return asString, true
		}
		return "", false
	}

	var asObject map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asObject); err != nil {
		return "", false
	}

	entry, ok := asObject[subpath]
	if !ok {
		normalized := subpath
		if normalized == "" {
			normalized = "."
		} else if !strings.HasPrefix(normalized, "./") && normalized != "." {
			normalized = "./" + normalized
		}
		entry, ok = asObject[normalized]
	}
	if !ok {
		return "", false
	}

	var target string
	if err := json.Unmarshal(entry, &target); err == nil {
		return target, true
	}

	var conditions map[string]json.RawMessage
	if err := json.Unmarshal(entry, &conditions); err != nil {
		return "", false
	}
	for _, cond := range exportConditions {
		if condRaw, ok := conditions[cond]; ok {
			var condTarget string
			if err := json.Unmarshal(condRaw, &condTarget); err == nil {
				return condTarget, true
			}
		}
	}

	return "", false
}
