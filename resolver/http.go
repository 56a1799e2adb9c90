/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"sync"

	"bennypowers.dev/yevu/config"
	"bennypowers.dev/yevu/fetch"
	yevufs "bennypowers.dev/yevu/fs"
	"bennypowers.dev/yevu/internal/logger"
)

// httpResolver fetches and content-addresses remote URLs. The resolved
// identity is the URL itself; the local path lives under the http cache.
type httpResolver struct {
	cfg     *config.Config
	fsys    yevufs.FileSystem
	fetcher fetch.Fetcher

	mu    sync.Mutex
	paths map[string]string // identity → local path
}

func newHTTPResolver(cfg *config.Config, fsys yevufs.FileSystem, fetcher fetch.Fetcher) *httpResolver {
	return &httpResolver{
		cfg:     cfg,
		fsys:    fsys,
		fetcher: fetcher,
		paths:   make(map[string]string),
	}
}

// resolve ensures the URL's content is cached on disk, records the
// identity→path mapping, and returns the URL unchanged as the identity.
func (h *httpResolver) resolve(rawURL string) (string, error) {
	localPath, err := h.cachePath(rawURL)
	if err != nil {
		return "", err
	}

	if !h.fsys.Exists(localPath) {
		logger.Info("Downloading %s", rawURL)
		body, err := h.fetcher.Fetch(context.Background(), rawURL)
		if err != nil {
			return "", err
		}
		if err := h.fsys.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
			return "", err
		}
		if err := h.fsys.WriteFile(localPath, body, 0644); err != nil {
			return "", err
		}
	}

	h.mu.Lock()
	h.paths[rawURL] = localPath
	h.mu.Unlock()

	return rawURL, nil
}

// resolveRelative joins a relative path against the parent URL's path,
// preserving scheme and host, then resolves the rebuilt URL.
func (h *httpResolver) resolveRelative(relativePath, parentURL string) (string, error) {
	u, err := url.Parse(parentURL)
	if err != nil {
		return "", fmt.Errorf("%w: parent %q: %w", ErrInvalidSpecifier, parentURL, err)
	}

	joined := path.Join(path.Dir(u.Path), relativePath)
	target := u.Scheme + "://" + u.Host + joined
	return h.resolve(target)
}

// localPath returns the recorded mapping for a resolved identity, or
// recomputes the deterministic cache path when resolution happened in a
// previous process.
func (h *httpResolver) localPath(rawURL string) (string, error) {
	h.mu.Lock()
	p, ok := h.paths[rawURL]
	h.mu.Unlock()
	if ok {
		return p, nil
	}
	return h.cachePath(rawURL)
}

// cachePath derives the deterministic on-disk location for a URL:
// <cacheDir>/http/<host>/<hash>/<basename>.
func (h *httpResolver) cachePath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not a valid URL", ErrInvalidSpecifier, rawURL)
	}

	hash := fmt.Sprintf("%x", sha1.Sum([]byte(rawURL)))[:16]

	base := path.Base(u.Path)
	if base == "/" || base == "." || base == "" {
		base = "index"
	}

	return filepath.Join(h.cfg.CacheDir, "http", u.Host, hash, base), nil
}
