// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"strconv"
	"strings"
	"time"

	"github.com/cxp-foundation/cxp/lib/codec"
)

// FormatVersion is the archive format version written into every
// manifest, as a MAJOR.MINOR.PATCH string. Readers refuse any archive
// whose MAJOR component differs from their own.
const FormatVersion = "1.0.0"

// Manifest is the archive-level record: one per archive, written last
// at build finalization and parsed once at reader open. It is
// deliberately separate from the file map so that listing and reading
// files never depends on archive-level statistics.
type Manifest struct {
	// Version is the format version, MAJOR.MINOR.PATCH.
	Version string `msgpack:"version"`

	// CreatedAt is the wall-clock build time.
	CreatedAt time.Time `msgpack:"created_at"`

	// Stats are the aggregate archive statistics.
	Stats Stats `msgpack:"stats"`

	// FileTypes maps file extensions to their per-type breakdown.
	FileTypes map[string]FileTypeInfo `msgpack:"file_types"`

	// Extensions lists the extension namespaces present in this
	// archive, in the order they were registered.
	Extensions []string `msgpack:"extensions"`

	// ChunkIDs is the ordered list of unique chunk content ids. The
	// position of an id equals its chunk index, so this array is the
	// persisted id → member-name mapping: chunk index i lives at
	// member chunks/<i zero-padded>.zst. Readers build their lookup
	// table from this array instead of walking the ZIP central
	// directory.
	ChunkIDs []ChunkID `msgpack:"chunk_ids"`

	// EmbeddingModel and EmbeddingDim are reserved for downstream
	// embedding-index features that plug in through the extension
	// mechanism; the core only carries them.
	EmbeddingModel string `msgpack:"embedding_model,omitempty"`
	EmbeddingDim   int    `msgpack:"embedding_dim,omitempty"`

	// Metadata is free-form host metadata.
	Metadata map[string]string `msgpack:"metadata,omitempty"`
}

// Stats are the aggregate statistics of an archive's contents.
type Stats struct {
	// TotalFiles is the number of file entries.
	TotalFiles int `msgpack:"total_files"`

	// UniqueChunks is the number of distinct chunks stored.
	UniqueChunks int `msgpack:"unique_chunks"`

	// OriginalSizeBytes is the byte sum of all input files before
	// chunking and compression.
	OriginalSizeBytes uint64 `msgpack:"original_size_bytes"`

	// PackedSizeBytes is the byte sum of the compressed unique chunk
	// payloads: the data volume the archive actually stores.
	PackedSizeBytes uint64 `msgpack:"packed_size_bytes"`

	// CompressionRatio is PackedSizeBytes / OriginalSizeBytes, or 0
	// for an empty archive.
	CompressionRatio float64 `msgpack:"compression_ratio"`

	// DedupSavingsPercent is the share of input bytes eliminated by
	// chunk deduplication.
	DedupSavingsPercent float64 `msgpack:"dedup_savings_percent"`
}

// FileTypeInfo is the per-extension breakdown recorded in the
// manifest.
type FileTypeInfo struct {
	// Count is the number of files with this extension.
	Count int `msgpack:"count"`

	// Description is the human-readable file type name.
	Description string `msgpack:"description"`

	// SampleFiles holds up to three example paths.
	SampleFiles []string `msgpack:"sample_files"`

	// TotalBytes is the uncompressed byte sum for this extension.
	TotalBytes uint64 `msgpack:"total_bytes"`
}

// NewManifest creates a manifest stamped with the current format
// version and creation time.
func NewManifest() *Manifest {
	return &Manifest{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC(),
		FileTypes: make(map[string]FileTypeInfo),
	}
}

// AddFileType records one file of the given extension and size in the
// per-type breakdown. Up to three sample paths are kept per type.
func (m *Manifest) AddFileType(extension, path string, size uint64) {
	key := strings.ToLower(extension)
	info, ok := m.FileTypes[key]
	if !ok {
		info = FileTypeInfo{Description: FileTypeDescription(key)}
	}
	info.Count++
	info.TotalBytes += size
	if len(info.SampleFiles) < 3 {
		info.SampleFiles = append(info.SampleFiles, path)
	}
	m.FileTypes[key] = info
}

// MarshalManifest serializes the manifest for the manifest.msgpack
// member.
func MarshalManifest(m *Manifest) ([]byte, error) {
	data, err := codec.Marshal(m)
	if err != nil {
		return nil, wrapf(KindSerialization, err, "encoding manifest")
	}
	return data, nil
}

// UnmarshalManifest parses a manifest.msgpack member and checks
// version compatibility.
func UnmarshalManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := codec.Unmarshal(data, &m); err != nil {
		return nil, wrapf(KindCorrupt, err, "decoding manifest")
	}
	if err := CheckVersion(m.Version); err != nil {
		return nil, err
	}
	return &m, nil
}

// CheckVersion verifies that an archive's format version is readable
// by this implementation: the MAJOR component must match. Unknown
// minor and patch components are accepted — new minor versions only
// add fields, which the decoder ignores.
func CheckVersion(version string) error {
	major, ok := parseMajor(version)
	if !ok {
		return errorf(KindCorrupt, "manifest has malformed format version %q", version)
	}
	ownMajor, _ := parseMajor(FormatVersion)
	if major != ownMajor {
		return errorf(KindFormatVersion,
			"archive format version %s is not supported (this reader supports %d.x)",
			version, ownMajor)
	}
	return nil
}

// parseMajor extracts the MAJOR component of a MAJOR.MINOR.PATCH
// string.
func parseMajor(version string) (int, bool) {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return 0, false
	}
	for _, part := range parts {
		if part == "" {
			return 0, false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	return major, true
}

// FileTypeDescription returns the human-readable name for a lowercase
// file extension.
func FileTypeDescription(extension string) string {
	switch extension {
	case "rs":
		return "Rust"
	case "ts", "tsx":
		return "TypeScript"
	case "js", "jsx":
		return "JavaScript"
	case "py":
		return "Python"
	case "go":
		return "Go"
	case "java":
		return "Java"
	case "c":
		return "C"
	case "cpp", "cc", "cxx":
		return "C++"
	case "h", "hpp":
		return "C/C++ Header"
	case "cs":
		return "C#"
	case "rb":
		return "Ruby"
	case "php":
		return "PHP"
	case "swift":
		return "Swift"
	case "kt":
		return "Kotlin"
	case "scala":
		return "Scala"
	case "r":
		return "R"
	case "sql":
		return "SQL"
	case "sh", "bash":
		return "Bash Script"
	case "zsh":
		return "Zsh Script"
	case "ps1":
		return "PowerShell"
	case "bat", "cmd":
		return "Windows Batch"
	case "json":
		return "JSON"
	case "yaml", "yml":
		return "YAML"
	case "toml":
		return "TOML"
	case "xml":
		return "XML"
	case "ini":
		return "INI Config"
	case "env":
		return "Environment Variables"
	case "md", "mdx":
		return "Markdown"
	case "txt":
		return "Plain Text"
	case "rst":
		return "reStructuredText"
	case "adoc":
		return "AsciiDoc"
	case "tex":
		return "LaTeX"
	case "html", "htm":
		return "HTML"
	case "css":
		return "CSS"
	case "scss", "sass":
		return "SCSS/Sass"
	case "less":
		return "Less"
	case "vue":
		return "Vue Component"
	case "svelte":
		return "Svelte Component"
	case "csv":
		return "CSV"
	case "tsv":
		return "TSV"
	default:
		return "Unknown"
	}
}
