// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/zip"
	"errors"
	"io"
	"strings"
)

// Reader is an open archive handle. Opening parses the manifest, the
// file map, and every extension manifest eagerly; chunk payloads are
// read lazily per call. After [Open] returns, the parsed metadata is
// immutable, and all read operations are safe for concurrent use:
// archive/zip serves each member through an io.ReaderAt over the
// underlying file, so no shared cursor exists.
type Reader struct {
	path string
	zip  *zip.ReadCloser

	manifest *Manifest
	fileMap  *FileMap

	members      map[string]*zip.File
	chunkByIndex []*zip.File
	chunkIndexes map[ChunkID]int

	extensionOrder []string
	extensions     map[string]*ExtensionManifest
}

// FileSummary is one row of a file listing.
type FileSummary struct {
	Path     string
	Size     uint64
	Category Category
}

// Open opens an archive read-only and loads its metadata. The archive
// is rejected with a FormatVersion error if its major format version
// differs from [FormatVersion], and with a Corrupt error on any
// structural inconsistency detectable without decompressing chunks.
func Open(path string) (*Reader, error) {
	zipReader, err := zip.OpenReader(path)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return nil, wrapf(KindCorrupt, err, "opening archive %q", path)
		}
		return nil, wrapf(KindIO, err, "opening archive %q", path)
	}

	r := &Reader{
		path:         path,
		zip:          zipReader,
		members:      make(map[string]*zip.File, len(zipReader.File)),
		chunkIndexes: make(map[ChunkID]int),
		extensions:   make(map[string]*ExtensionManifest),
	}
	for _, member := range zipReader.File {
		r.members[member.Name] = member
	}

	if err := r.load(); err != nil {
		zipReader.Close()
		return nil, err
	}
	return r, nil
}

// load parses manifest, file map, and extension manifests.
func (r *Reader) load() error {
	manifestData, err := r.readMember(manifestMember)
	if err != nil {
		return err
	}
	manifest, err := UnmarshalManifest(manifestData)
	if err != nil {
		return err
	}
	r.manifest = manifest

	fileMapData, err := r.readMember(fileMapMember)
	if err != nil {
		return err
	}
	fileMap, err := UnmarshalFileMap(fileMapData)
	if err != nil {
		return err
	}
	r.fileMap = fileMap

	// Resolve chunk members from the manifest's ordered id list: the
	// position of an id is its chunk index, and the index determines
	// the member name. Missing members are a structural defect worth
	// failing on at open rather than at first read.
	r.chunkByIndex = make([]*zip.File, len(manifest.ChunkIDs))
	for index, id := range manifest.ChunkIDs {
		name := chunkMemberName(index)
		member, ok := r.members[name]
		if !ok {
			return errorf(KindCorrupt, "archive member %q is missing", name)
		}
		r.chunkByIndex[index] = member
		r.chunkIndexes[id] = index
	}

	for _, namespace := range manifest.Extensions {
		if err := r.loadExtension(namespace); err != nil {
			return err
		}
	}

	// Any extensions/ member whose namespace the manifest does not
	// list is orphaned data.
	for name := range r.members {
		if !strings.HasPrefix(name, extensionDir) {
			continue
		}
		rest := strings.TrimPrefix(name, extensionDir)
		namespace, _, ok := strings.Cut(rest, "/")
		if !ok {
			return errorf(KindCorrupt, "archive member %q is not inside a namespace directory", name)
		}
		if _, listed := r.extensions[namespace]; !listed {
			return errorf(KindCorrupt, "archive member %q belongs to unregistered namespace %q", name, namespace)
		}
	}

	return nil
}

// loadExtension parses one namespace manifest and cross-checks its
// key list against the container's members in both directions.
func (r *Reader) loadExtension(namespace string) error {
	if _, dup := r.extensions[namespace]; dup {
		return errorf(KindCorrupt, "extension namespace %q is listed twice in the manifest", namespace)
	}

	manifestName := extensionManifestMember(namespace)
	data, err := r.readMember(manifestName)
	if err != nil {
		return err
	}
	extension, err := UnmarshalExtensionManifest(data)
	if err != nil {
		return wrapf(KindCorrupt, err, "extension namespace %q", namespace)
	}
	if extension.Namespace != namespace {
		return errorf(KindCorrupt, "extension manifest %q declares namespace %q", manifestName, extension.Namespace)
	}

	listed := make(map[string]struct{}, len(extension.Keys))
	for _, key := range extension.Keys {
		if _, dup := listed[key]; dup {
			return errorf(KindCorrupt, "extension %q lists key %q twice", namespace, key)
		}
		listed[key] = struct{}{}
		blobName := extensionBlobMember(namespace, key)
		if _, ok := r.members[blobName]; !ok {
			return errorf(KindCorrupt, "extension %q lists key %q but member %q is missing", namespace, key, blobName)
		}
	}
	prefix := extensionDir + namespace + "/"
	for name := range r.members {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		key := strings.TrimPrefix(name, prefix)
		if key == extensionManifestKey {
			continue
		}
		if _, ok := listed[key]; !ok {
			return errorf(KindCorrupt, "extension %q contains member %q not listed in its manifest", namespace, name)
		}
	}

	r.extensionOrder = append(r.extensionOrder, namespace)
	r.extensions[namespace] = extension
	return nil
}

// Close releases the archive handle. The parsed metadata remains
// usable, but file and extension reads fail after Close.
func (r *Reader) Close() error {
	return r.zip.Close()
}

// Manifest returns the parsed archive manifest. The caller must not
// modify it.
func (r *Reader) Manifest() *Manifest {
	return r.manifest
}

// ListFiles returns one summary per file, in the order the files were
// handed to the builder.
func (r *Reader) ListFiles() []FileSummary {
	entries := r.fileMap.Entries()
	summaries := make([]FileSummary, len(entries))
	for i, entry := range entries {
		summaries[i] = FileSummary{Path: entry.Path, Size: entry.Size, Category: entry.Category}
	}
	return summaries
}

// FileEntry returns the full file map entry for a logical path.
func (r *Reader) FileEntry(path string) (*FileEntry, error) {
	entry, ok := r.fileMap.Get(path)
	if !ok {
		return nil, errorf(KindNotFound, "file %q is not in the archive", path)
	}
	return entry, nil
}

// ReadFile reconstructs a file's full contents by reading,
// decompressing, and concatenating its chunks in order. The result is
// validated against the entry's stated size.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	entry, err := r.FileEntry(path)
	if err != nil {
		return nil, err
	}

	content := make([]byte, 0, entry.Size)
	stream := r.streamEntry(entry)
	for {
		payload, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		content = append(content, payload...)
	}

	if uint64(len(content)) != entry.Size {
		return nil, errorf(KindCorrupt, "corrupt file %q: reconstructed %d bytes, entry states %d",
			path, len(content), entry.Size)
	}
	return content, nil
}

// StreamFile returns a stream that yields the file's decompressed
// chunk payloads lazily, in order. The caller may abandon the stream
// at any point; there is nothing to close.
func (r *Reader) StreamFile(path string) (*FileStream, error) {
	entry, err := r.FileEntry(path)
	if err != nil {
		return nil, err
	}
	return r.streamEntry(entry), nil
}

func (r *Reader) streamEntry(entry *FileEntry) *FileStream {
	return &FileStream{reader: r, entry: entry}
}

// FileStream yields one decompressed chunk payload per Next call.
type FileStream struct {
	reader   *Reader
	entry    *FileEntry
	position int
}

// Next returns the next chunk payload, or io.EOF after the last one.
func (s *FileStream) Next() ([]byte, error) {
	if s.position >= len(s.entry.Chunks) {
		return nil, io.EOF
	}
	ref := s.entry.Chunks[s.position]
	s.position++

	payload, err := s.reader.readChunk(ref)
	if err != nil {
		return nil, wrapf(KindOf(err), err, "reading file %q", s.entry.Path)
	}
	return payload, nil
}

// readChunk fetches and decompresses one chunk by reference.
func (r *Reader) readChunk(ref ChunkRef) ([]byte, error) {
	index, ok := r.chunkIndexes[ref.ID]
	if !ok {
		return nil, errorf(KindCorrupt, "chunk %s is referenced but not in the archive's chunk index", FormatID(ref.ID))
	}
	compressed, err := r.readMemberFile(r.chunkByIndex[index])
	if err != nil {
		return nil, err
	}
	return DecompressChunk(compressed, int(ref.Length))
}

// ListExtensions returns the extension namespaces present, in
// registration order.
func (r *Reader) ListExtensions() []string {
	return append([]string(nil), r.extensionOrder...)
}

// ExtensionManifest returns the parsed manifest for a namespace.
func (r *Reader) ExtensionManifest(namespace string) (*ExtensionManifest, error) {
	extension, ok := r.extensions[namespace]
	if !ok {
		return nil, errorf(KindNotFound, "extension namespace %q is not in the archive", namespace)
	}
	return extension, nil
}

// ListExtensionKeys returns the blob keys of a namespace.
func (r *Reader) ListExtensionKeys(namespace string) ([]string, error) {
	extension, err := r.ExtensionManifest(namespace)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), extension.Keys...), nil
}

// ReadExtension returns the bytes of one extension blob.
func (r *Reader) ReadExtension(namespace, key string) ([]byte, error) {
	extension, err := r.ExtensionManifest(namespace)
	if err != nil {
		return nil, err
	}
	found := false
	for _, listed := range extension.Keys {
		if listed == key {
			found = true
			break
		}
	}
	if !found {
		return nil, errorf(KindNotFound, "extension %q has no key %q", namespace, key)
	}
	return r.readMember(extensionBlobMember(namespace, key))
}

// readMember reads a whole member by name. A missing member is a
// Corrupt error: the member set is part of the format contract.
func (r *Reader) readMember(name string) ([]byte, error) {
	member, ok := r.members[name]
	if !ok {
		return nil, errorf(KindCorrupt, "archive member %q is missing", name)
	}
	return r.readMemberFile(member)
}

// readMemberFile reads a whole resolved member.
func (r *Reader) readMemberFile(member *zip.File) ([]byte, error) {
	reader, err := member.Open()
	if err != nil {
		return nil, wrapf(KindCorrupt, err, "opening archive member %q", member.Name)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, wrapf(KindCorrupt, err, "reading archive member %q", member.Name)
	}
	return data, nil
}
