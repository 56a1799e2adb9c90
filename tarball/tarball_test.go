/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package tarball

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildArchive produces a gzip-compressed tar via the standard library,
// which the parser must read back byte-exactly.
func buildArchive(t *testing.T, build func(tw *tar.Writer)) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	build(tw)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func writeFile(t *testing.T, tw *tar.Writer, name, content string) {
	t.Helper()
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(content)),
		Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write([]byte(content))
	require.NoError(t, err)
}

func TestExtractRoundTrip(t *testing.T) {
	// Content deliberately not a multiple of 512 bytes.
	oddContent := strings.Repeat("export const x = 1;\n", 40) // 800 bytes

	archive := buildArchive(t, func(tw *tar.Writer) {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "package/",
			Mode:     0755,
			Typeflag: tar.TypeDir,
		}))
		writeFile(t, tw, "package/index.js", oddContent)
		writeFile(t, tw, "package/package.json", `{"name":"demo"}`)
	})

	entries, err := Extract(archive)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "package/", entries[0].Path)
	assert.Equal(t, TypeDir, entries[0].Type)
	assert.Empty(t, entries[0].Data)

	assert.Equal(t, "package/index.js", entries[1].Path)
	assert.Equal(t, TypeFile, entries[1].Type)
	assert.Equal(t, int64(len(oddContent)), entries[1].Size)
	assert.Equal(t, oddContent, string(entries[1].Data))

	assert.Equal(t, "package/package.json", entries[2].Path)
	assert.Equal(t, `{"name":"demo"}`, string(entries[2].Data))
}

func TestExtractEmptyFile(t *testing.T) {
	archive := buildArchive(t, func(tw *tar.Writer) {
		writeFile(t, tw, "package/empty.js", "")
	})

	entries, err := Extract(archive)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(0), entries[0].Size)
	assert.Empty(t, entries[0].Data)
}

func TestExtractSymlink(t *testing.T) {
	archive := buildArchive(t, func(tw *tar.Writer) {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     "package/link.js",
			Linkname: "index.js",
			Typeflag: tar.TypeSymlink,
		}))
	})

	entries, err := Extract(archive)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, TypeLink, entries[0].Type)
}

func TestExtractNotGzip(t *testing.T) {
	_, err := Extract([]byte("plainly not a gzip stream"))
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestExtractTruncatedContent(t *testing.T) {
	archive := buildArchive(t, func(tw *tar.Writer) {
		writeFile(t, tw, "package/a.js", "hello")
	})

	// Re-compress a truncated tape: keep the header block, drop the content.
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	require.NoError(t, err)
	var raw bytes.Buffer
	_, err = raw.ReadFrom(gz)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err = w.Write(raw.Bytes()[:512])
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = Extract(buf.Bytes())
	assert.ErrorIs(t, err, ErrCorrupt)
}
