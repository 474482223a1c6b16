// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive implements the CXP archive engine: packaging a
// directory tree of source files into a single self-contained,
// deduplicated, compressed container that is cheap to enumerate,
// extract, and text-search.
//
// The package is organized in layers, each usable independently:
//
//   - Hashing: SHA-256 content ids. A chunk's id is a pure function
//     of its uncompressed bytes, so identical content deduplicates
//     across files. Equal ids are treated as equal contents.
//
//   - Chunking: GearHash content-defined chunking (CDC) with 4KB
//     target, 2KB minimum, 8KB maximum. Deterministic boundary
//     placement based on content means insertions and deletions only
//     shift nearby chunk boundaries, enabling effective deduplication
//     across similar files.
//
//   - Compression: one Zstandard frame per unique chunk. Ids are
//     computed on uncompressed bytes, so deduplication is independent
//     of the compression level.
//
//   - Container: a ZIP envelope with all members stored uncompressed,
//     used purely for its random-access central directory. Chunks live
//     under index-derived names (chunks/00000000.zst); the manifest's
//     ordered chunk-id list is the persisted id → index mapping.
//
//   - Metadata: a manifest (format version, stats, file-type
//     breakdown, extension list) and a file map (ordered path → chunk
//     references), both MessagePack-encoded via lib/codec. The file
//     map is separate from the manifest so listing and reading files
//     never touches archive-level statistics.
//
//   - Extensions: a namespaced side-channel for host applications.
//     Each namespace carries a version, a manifest, and opaque blobs;
//     the core assigns them no semantics and they never influence
//     chunking or deduplication.
//
//   - Builder and Reader: the builder is a single-use pipeline
//     (stage → process → seal) writing through a temp file with an
//     atomic rename; the reader parses all metadata at open and loads
//     chunks lazily. Query is a streaming case-insensitive substring
//     scan over the archive's text files.
//
// Archives are built once and then read-only. There is no in-place
// update path and no multi-writer support.
package archive
