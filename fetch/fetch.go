/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package fetch provides the HTTP client used by the protocol resolvers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"bennypowers.dev/yevu/internal/version"
)

const (
	// DefaultTimeout is the maximum time to wait for a network fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxSize is the maximum allowed response size (100 MB).
	// Package tarballs dominate, so the cap is generous.
	DefaultMaxSize int64 = 100 * 1024 * 1024
)

// ErrFetchFailed indicates a transport error or a non-200 response.
var ErrFetchFailed = errors.New("fetch failed")

// Fetcher fetches content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches content over HTTP with size limiting.
type HTTPFetcher struct {
	maxSize int64
	timeout time.Duration
	client  *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher with the given maximum response size.
func NewHTTPFetcher(maxSize int64) *HTTPFetcher {
	return &HTTPFetcher{
		maxSize: maxSize,
		timeout: DefaultTimeout,
		client:  &http.Client{},
	}
}

// Fetch fetches content from the given URL. Any status other than 200 OK
// is an ErrFetchFailed carrying the URL and status.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}

	req.Header.Set("User-Agent", "yevu/"+version.Get())

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timeout fetching %s: %w", ErrFetchFailed, url, err)
		}
		return nil, fmt.Errorf("%w: fetching %s: %w", ErrFetchFailed, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: %s", ErrFetchFailed, url, resp.Status)
	}

	limitedReader := io.LimitReader(resp.Body, f.maxSize+1)
	content, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response from %s: %w", ErrFetchFailed, url, err)
	}

	if int64(len(content)) > f.maxSize {
		return nil, fmt.Errorf("%w: response from %s exceeds maximum size of %d bytes", ErrFetchFailed, url, f.maxSize)
	}

	return content, nil
}
