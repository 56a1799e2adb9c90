/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package specifier classifies and parses module import specifiers.
package specifier

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind indicates the protocol that owns a specifier.
type Kind int

const (
	// KindBare is a bare package name, owned by the npm resolver.
	KindBare Kind = iota
	// KindRelative is a ./ or ../ path resolved against the parent.
	KindRelative
	// KindAbsolute is an absolute filesystem path.
	KindAbsolute
	// KindHTTP is an http:// or https:// URL.
	KindHTTP
	// KindJSR is a jsr:@scope/name specifier.
	KindJSR
	// KindNode is a node:-prefixed builtin module.
	KindNode
)

// String returns the protocol name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindRelative:
		return "relative"
	case KindAbsolute:
		return "absolute"
	case KindHTTP:
		return "http"
	case KindJSR:
		return "jsr"
	case KindNode:
		return "node"
	default:
		return "bare"
	}
}

// Classify determines which protocol owns a specifier. Bare package names
// are the fallback, matching how a runtime treats anything that is not a
// path or protocol-qualified URL.
func Classify(spec string) Kind {
	switch {
	case strings.HasPrefix(spec, "node:"):
		return KindNode
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		return KindHTTP
	case strings.HasPrefix(spec, "jsr:"):
		return KindJSR
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		return KindRelative
	case filepath.IsAbs(spec):
		return KindAbsolute
	default:
		return KindBare
	}
}

// JSR is a parsed jsr: specifier.
type JSR struct {
	// Scope is the package scope without the leading @.
	Scope string

	// Name is the package name within the scope.
	Name string

	// Range is the requested version or version range, empty when the
	// specifier carries none.
	Range string

	// Subpath is the requested path within the package, without a
	// leading slash. Empty means the package root export.
	Subpath string
}

// Package returns the @scope/name form.
func (j *JSR) Package() string {
	return "@" + j.Scope + "/" + j.Name
}

// String reassembles the canonical specifier text.
func (j *JSR) String() string {
	s := "jsr:" + j.Package()
	if j.Range != "" {
		s += "@" + j.Range
	}
	if j.Subpath != "" {
		s += "/" + j.Subpath
	}
	return s
}

// jsrPattern matches jsr:@scope/name, with an optional @range and subpath.
var jsrPattern = regexp.MustCompile(`^jsr:@([^/@]+)/([^/@]+)(?:@([^/]+))?(/.*)?$`)

// ParseJSR parses a jsr:@scope/name[@range][/path] specifier.
// The text after jsr: must start with a scoped package name.
func ParseJSR(spec string) (*JSR, error) {
	m := jsrPattern.FindStringSubmatch(spec)
	if m == nil {
		return nil, fmt.Errorf("invalid jsr specifier %q: expected jsr:@scope/name[@version][/path]", spec)
	}
	return &JSR{
		Scope:   m[1],
		Name:    m[2],
		Range:   m[3],
		Subpath: strings.TrimPrefix(m[4], "/"),
	}, nil
}

// SplitPackageName splits a bare npm specifier into the package name and
// an optional ./-prefixed subpath. A leading @ scope consumes two
// /-separated segments; otherwise the first segment is the package name.
func SplitPackageName(spec string) (name, subpath string) {
	parts := strings.Split(spec, "/")
	take := 1
	if strings.HasPrefix(spec, "@") && len(parts) > 1 {
		take = 2
	}
	name = strings.Join(parts[:take], "/")
	if len(parts) > take {
		subpath = "./" + strings.Join(parts[take:], "/")
	}
	return name, subpath
}
