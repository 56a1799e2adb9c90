/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package semver compares dot-separated version strings and matches them
// against the range grammar used by package registries: exact versions,
// caret and tilde ranges, wildcards, hyphen ranges, and comparison operators.
//
// The grammar is intentionally small. Versions are sequences of integer
// components; non-numeric components compare as zero and missing components
// pad as zero, so "1.2" and "1.2.0" are equal.
package semver

import (
	"strconv"
	"strings"
)

// operatorChars are the characters that distinguish a range expression from
// a plain version. Their absence means exact equality.
const operatorChars = "^~*xX><-"

// Compare compares two dot-separated version strings component-wise.
// It returns -1 if a < b, 0 if equal, and 1 if a > b.
func Compare(a, b string) int {
	as := components(a)
	bs := components(b)
	n := max(len(as), len(bs))
	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Satisfies reports whether version matches the range expression rng.
func Satisfies(version, rng string) bool {
	rng = strings.TrimSpace(rng)
	version = strings.TrimSpace(version)

	switch {
	case rng == "":
		return false

	case !strings.ContainsAny(rng, operatorChars):
		return Compare(version, rng) == 0

	case strings.HasPrefix(rng, "^"):
		return satisfiesCaret(version, rng[1:])

	case strings.HasPrefix(rng, "~"):
		return satisfiesTilde(version, rng[1:])

	case strings.ContainsAny(rng, "*xX"):
		return satisfiesWildcard(version, rng)

	case strings.Contains(rng, " - "):
		low, high, _ := strings.Cut(rng, " - ")
		return Compare(version, strings.TrimSpace(low)) >= 0 &&
			Compare(version, strings.TrimSpace(high)) <= 0

	case strings.HasPrefix(rng, ">="):
		return Compare(version, strings.TrimSpace(rng[2:])) >= 0
	case strings.HasPrefix(rng, ">"):
		return Compare(version, strings.TrimSpace(rng[1:])) > 0
	case strings.HasPrefix(rng, "<="):
		return Compare(version, strings.TrimSpace(rng[2:])) <= 0
	case strings.HasPrefix(rng, "<"):
		return Compare(version, strings.TrimSpace(rng[1:])) < 0
	case strings.HasPrefix(rng, "="):
		return Compare(version, strings.TrimSpace(rng[1:])) == 0
	}

	return false
}

// MatchLatest returns the highest version in versions that satisfies rng,
// or "" if none do. Ties resolve to the first encountered, so the result
// is stable on input order.
func MatchLatest(versions []string, rng string) string {
	var best string
	for _, v := range versions {
		if !Satisfies(v, rng) {
			continue
		}
		if best == "" || Compare(v, best) > 0 {
			best = v
		}
	}
	return best
}

// satisfiesCaret implements ^base. For pre-1.0 versions the minor component
// acts as the effective major: ^0.1.2 means >=0.1.2 <0.2.0.
func satisfiesCaret(version, base string) bool {
	bs := components(base)
	major := at(bs, 0)
	minor := at(bs, 1)

	var upper string
	if major == 0 {
		upper = "0." + strconv.Itoa(minor+1) + ".0"
	} else {
		upper = strconv.Itoa(major+1) + ".0.0"
	}
	return Compare(version, base) >= 0 && Compare(version, upper) < 0
}

// satisfiesTilde implements ~base: >=base <major.(minor+1).0.
func satisfiesTilde(version, base string) bool {
	bs := components(base)
	upper := strconv.Itoa(at(bs, 0)) + "." + strconv.Itoa(at(bs, 1)+1) + ".0"
	return Compare(version, base) >= 0 && Compare(version, upper) < 0
}

// satisfiesWildcard matches component-wise against a pattern like "1.x" or
// "1.2.*". Wildcard components match anything; trailing version components
// beyond the pattern's length are ignored.
func satisfiesWildcard(version, pattern string) bool {
	vs := components(version)
	for i, part := range strings.Split(pattern, ".") {
		if part == "*" || part == "x" || part == "X" {
			continue
		}
		want, err := strconv.Atoi(part)
		if err != nil {
			want = 0
		}
		if at(vs, i) != want {
			return false
		}
	}
	return true
}

func components(v string) []int {
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		out[i] = n
	}
	return out
}

func at(cs []int, i int) int {
	if i < len(cs) {
		return cs[i]
	}
	return 0
}
