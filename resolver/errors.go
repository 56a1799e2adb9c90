/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import "errors"

// Sentinel errors for resolution failures. Protocol resolvers wrap these
// with context; the dispatcher adds the original specifier and parent.
var (
	// ErrProtocolDisabled indicates a feature flag turned off the
	// requested protocol.
	ErrProtocolDisabled = errors.New("protocol disabled")

	// ErrInvalidSpecifier indicates malformed specifier syntax.
	ErrInvalidSpecifier = errors.New("invalid specifier")

	// ErrNotFound indicates a file, version, or package was absent
	// after full probing.
	ErrNotFound = errors.New("module not found")

	// ErrVersionUnsatisfiable indicates a version range matched nothing.
	ErrVersionUnsatisfiable = errors.New("no version satisfies range")
)
