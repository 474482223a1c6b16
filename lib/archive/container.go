// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import "fmt"

// Container layout. The outer envelope is a ZIP file, chosen solely
// for its random-access central directory: a reader reaches any named
// member in O(1) without scanning the file. Every member is stored
// uncompressed — chunk payloads are already Zstandard frames, and
// double-compression would burn CPU for nothing.
//
//	<archive>.cxp
//	├── manifest.msgpack                   archive-level record, written last
//	├── file_map.msgpack                   path → chunk references
//	├── chunks/00000000.zst                one member per unique chunk
//	├── chunks/00000001.zst
//	├── extensions/<ns>/manifest.msgpack   per-namespace manifest
//	└── extensions/<ns>/<key>              opaque host blobs
//
// Forward slashes are the only separator in member names.
const (
	manifestMember = "manifest.msgpack"
	fileMapMember  = "file_map.msgpack"
	chunkMemberDir = "chunks/"
	extensionDir   = "extensions/"
)

// chunkMemberWidth is the fixed zero-padding width of chunk member
// names. Eight decimal digits bound an archive at 100 million unique
// chunks, far beyond the source-tree workload this format targets.
const chunkMemberWidth = 8

// chunkMemberName returns the stable member name for a chunk index:
// the index in zero-padded decimal under chunks/. Deriving names from
// the index rather than the content id keeps hex formatting out of
// the build hot path; the id lives only inside chunk references.
func chunkMemberName(index int) string {
	return fmt.Sprintf("%s%0*d.zst", chunkMemberDir, chunkMemberWidth, index)
}

// extensionManifestMember returns the member name of a namespace's
// manifest.
func extensionManifestMember(namespace string) string {
	return extensionDir + namespace + "/" + extensionManifestKey
}

// extensionBlobMember returns the member name of a namespace blob.
func extensionBlobMember(namespace, key string) string {
	return extensionDir + namespace + "/" + key
}
