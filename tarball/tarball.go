/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package tarball decompresses gzip byte streams and parses the TAR tape
// format into in-memory entries. Registry tarballs are small enough that
// fully buffered extraction keeps the caller simple.
package tarball

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrCorrupt indicates the input could not be parsed as a gzip-compressed
// TAR archive.
var ErrCorrupt = errors.New("corrupt archive")

// EntryType classifies an archive entry.
type EntryType int

const (
	// TypeFile is a regular file.
	TypeFile EntryType = iota
	// TypeDir is a directory.
	TypeDir
	// TypeLink is a symbolic link.
	TypeLink
	// TypeOther is any other entry kind (hard links, FIFOs, pax headers).
	TypeOther
)

// Entry is one path in the archive.
type Entry struct {
	// Path is the entry name as recorded in the header.
	Path string

	// Data is the entry content. Empty for directories.
	Data []byte

	// Size is the recorded content size in bytes.
	Size int64

	// Type classifies the entry.
	Type EntryType
}

const blockSize = 512

// TAR header field offsets. Fields are fixed-offset ASCII; size is octal,
// NUL or space padded.
const (
	nameOffset = 0
	nameLength = 100
	sizeOffset = 124
	sizeLength = 12
	typeOffset = 156
)

// Extract decompresses a gzip buffer and parses the contained TAR stream.
// No checksum validation is performed.
func Extract(compressed []byte) ([]Entry, error) {
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	defer func() { _ = gz.Close() }()

	buf, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	return parse(buf)
}

// parse walks the decompressed buffer as a tape of 512-byte blocks.
// Two consecutive all-zero blocks, or end-of-buffer after one, end the tape.
func parse(buf []byte) ([]Entry, error) {
	var entries []Entry

	off := 0
	for off+blockSize <= len(buf) {
		block := buf[off : off+blockSize]

		if isZeroBlock(block) {
			next := off + blockSize
			if next+blockSize > len(buf) || isZeroBlock(buf[next:next+blockSize]) {
				break
			}
			off = next
			continue
		}

		name := headerString(block[nameOffset : nameOffset+nameLength])
		size := headerOctal(block[sizeOffset : sizeOffset+sizeLength])
		typeFlag := block[typeOffset]

		if name == "" || size < 0 {
			off += blockSize
			continue
		}

		contentStart := off + blockSize
		contentEnd := contentStart + int(size)
		if contentEnd > len(buf) {
			return nil, fmt.Errorf("%w: entry %q content exceeds archive length", ErrCorrupt, name)
		}

		entries = append(entries, Entry{
			Path: name,
			Data: buf[contentStart:contentEnd],
			Size: size,
			Type: entryType(typeFlag),
		})

		contentBlocks := (size + blockSize - 1) / blockSize
		off = contentStart + int(contentBlocks)*blockSize
	}

	return entries, nil
}

func entryType(flag byte) EntryType {
	switch flag {
	case '0', 0:
		return TypeFile
	case '5':
		return TypeDir
	case '2':
		return TypeLink
	default:
		return TypeOther
	}
}

func headerString(field []byte) string {
	return strings.TrimRight(string(field), "\x00")
}

// headerOctal parses a NUL/space padded octal field. Returns -1 when the
// field holds no digits.
func headerOctal(field []byte) int64 {
	s := strings.Trim(string(field), "\x00 ")
	if s == "" {
		return -1
	}
	n, err := strconv.ParseInt(s, 8, 64)
	if err != nil {
		return -1
	}
	return n
}

func isZeroBlock(block []byte) bool {
	for _, b := range block {
		if b != 0 {
			return false
		}
	}
	return true
}
