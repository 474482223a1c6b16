// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cxp-foundation/cxp/lib/codec"
)

// Category is the coarse content classification attached to each file
// entry. It is derived from the file extension at build time and is
// informational: reconstruction never depends on it.
type Category string

const (
	// CategorySource is program source code (including web assets).
	CategorySource Category = "source"
	// CategoryConfig is machine-read configuration.
	CategoryConfig Category = "config"
	// CategoryDocs is human-read documentation.
	CategoryDocs Category = "docs"
	// CategoryData is tabular or binary data, and the fallback for
	// anything unrecognized.
	CategoryData Category = "data"
)

// DetectCategory classifies a lowercase file extension (without the
// leading dot).
func DetectCategory(extension string) Category {
	switch strings.ToLower(extension) {
	case "json", "yaml", "yml", "toml", "xml", "ini", "env", "conf", "config":
		return CategoryConfig
	case "md", "mdx", "txt", "rst", "adoc", "tex":
		return CategoryDocs
	case "rs", "ts", "tsx", "js", "jsx", "py", "go", "java", "c", "cpp", "cc", "cxx",
		"h", "hpp", "cs", "rb", "php", "swift", "kt", "scala", "r", "sql",
		"sh", "bash", "zsh", "ps1", "bat", "cmd",
		"html", "htm", "css", "scss", "sass", "less", "vue", "svelte":
		return CategorySource
	default:
		return CategoryData
	}
}

// ChunkRef points at one chunk of a file: the chunk's content id plus
// its uncompressed length. The length is duplicated here so a reader
// can validate reconstruction arithmetic without decompressing
// anything.
type ChunkRef struct {
	ID     ChunkID `msgpack:"id"`
	Length uint64  `msgpack:"length"`
}

// FileEntry describes one input file inside the archive. The sum of
// its chunk reference lengths equals Size, and concatenating the
// referenced chunk payloads in order reproduces the file
// byte-for-byte.
type FileEntry struct {
	// Path is the logical path: UTF-8, forward-slash separated,
	// relative to the archive's conceptual root.
	Path string `msgpack:"path"`

	// Extension is the lowercase file extension without the dot, or
	// empty if the file has none.
	Extension string `msgpack:"extension"`

	// Category is the detected content category.
	Category Category `msgpack:"category"`

	// Size is the total uncompressed size in bytes.
	Size uint64 `msgpack:"size"`

	// ModTime is the source file's modification time, when the caller
	// supplied one.
	ModTime *time.Time `msgpack:"mod_time,omitempty"`

	// Chunks is the ordered sequence of chunk references that make up
	// the file.
	Chunks []ChunkRef `msgpack:"chunks"`
}

// FileMap maps logical paths to file entries. Keys are unique and
// insertion order is preserved, so enumeration is deterministic: the
// order files were handed to the builder is the order every listing
// reports them in.
type FileMap struct {
	entries []FileEntry
	byPath  map[string]int
}

// fileMapRecord is the serialized shape: an ordered array rather than
// a map, because MessagePack maps carry no order guarantee.
type fileMapRecord struct {
	Files []FileEntry `msgpack:"files"`
}

// NewFileMap creates an empty file map.
func NewFileMap() *FileMap {
	return &FileMap{byPath: make(map[string]int)}
}

// Add appends an entry. Duplicate paths are rejected with an
// InvalidInput error.
func (m *FileMap) Add(entry FileEntry) error {
	if _, exists := m.byPath[entry.Path]; exists {
		return errorf(KindInvalidInput, "duplicate logical path %q", entry.Path)
	}
	m.byPath[entry.Path] = len(m.entries)
	m.entries = append(m.entries, entry)
	return nil
}

// Get returns the entry for a logical path.
func (m *FileMap) Get(path string) (*FileEntry, bool) {
	index, ok := m.byPath[path]
	if !ok {
		return nil, false
	}
	return &m.entries[index], true
}

// Len returns the number of entries.
func (m *FileMap) Len() int {
	return len(m.entries)
}

// Entries returns the entries in insertion order. The returned slice
// is the map's backing storage — callers must not modify it.
func (m *FileMap) Entries() []FileEntry {
	return m.entries
}

// MarshalFileMap serializes the file map for the file_map.msgpack
// member.
func MarshalFileMap(m *FileMap) ([]byte, error) {
	data, err := codec.Marshal(fileMapRecord{Files: m.entries})
	if err != nil {
		return nil, wrapf(KindSerialization, err, "encoding file map")
	}
	return data, nil
}

// UnmarshalFileMap parses a file_map.msgpack member. Schema
// violations — including duplicate paths and invalid UTF-8 in a path
// — surface as Corrupt errors.
func UnmarshalFileMap(data []byte) (*FileMap, error) {
	var record fileMapRecord
	if err := codec.Unmarshal(data, &record); err != nil {
		return nil, wrapf(KindCorrupt, err, "decoding file map")
	}

	m := NewFileMap()
	for _, entry := range record.Files {
		if !utf8.ValidString(entry.Path) {
			return nil, errorf(KindCorrupt, "file map entry has invalid UTF-8 path %q", entry.Path)
		}
		var total uint64
		for _, ref := range entry.Chunks {
			total += ref.Length
		}
		if total != entry.Size {
			return nil, errorf(KindCorrupt,
				"file map entry %q: chunk reference lengths sum to %d, entry states %d",
				entry.Path, total, entry.Size)
		}
		if err := m.Add(entry); err != nil {
			return nil, errorf(KindCorrupt, "file map has duplicate path %q", entry.Path)
		}
	}
	return m, nil
}

// ValidateLogicalPath checks that a caller-supplied logical path is
// usable as an archive member path: non-empty valid UTF-8, forward
// slashes only, relative, and free of "." / ".." segments.
func ValidateLogicalPath(path string) error {
	if path == "" {
		return errorf(KindInvalidInput, "logical path is empty")
	}
	if !utf8.ValidString(path) {
		return errorf(KindInvalidInput, "logical path %q is not valid UTF-8", path)
	}
	if strings.ContainsRune(path, '\\') {
		return errorf(KindInvalidInput, "logical path %q contains a backslash; use forward slashes", path)
	}
	if strings.HasPrefix(path, "/") {
		return errorf(KindInvalidInput, "logical path %q is absolute; paths are relative to the archive root", path)
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			return errorf(KindInvalidInput, "logical path %q contains an empty segment", path)
		}
		if segment == "." || segment == ".." {
			return errorf(KindInvalidInput, "logical path %q contains a %q segment", path, segment)
		}
	}
	return nil
}

// pathExtension returns the lowercase extension of a logical path
// without the leading dot, or "" if the final segment has none.
func pathExtension(path string) string {
	base := path
	if slash := strings.LastIndexByte(base, '/'); slash >= 0 {
		base = base[slash+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return ""
	}
	return strings.ToLower(base[dot+1:])
}
