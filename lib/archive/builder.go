// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Source supplies the bytes of one input file. Opening is deferred
// until the build processes the file, so staging a large tree does no
// content I/O.
type Source interface {
	Open() (io.ReadCloser, error)
}

// FileSource returns a Source reading from a filesystem path.
func FileSource(path string) Source {
	return fileSource(path)
}

type fileSource string

func (s fileSource) Open() (io.ReadCloser, error) {
	return os.Open(string(s))
}

// BytesSource returns a Source reading from an in-memory buffer. The
// slice is not copied; the caller must not modify it until the build
// completes.
func BytesSource(data []byte) Source {
	return bytesSource(data)
}

type bytesSource []byte

func (s bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s)), nil
}

// buildState tracks the builder's lifecycle. The pipeline moves
// strictly forward: staging is only allowed before processing starts,
// and a builder seals exactly one archive.
type buildState int

const (
	stateInitialized buildState = iota
	stateScanned
	stateProcessed
	stateSealed
)

// Builder assembles a CXP archive: stage inputs with [Builder.AddFile]
// and [Builder.AddExtension], then call [Builder.Build] once. A
// builder is single-use and not safe for concurrent use.
type Builder struct {
	logger *slog.Logger
	state  buildState

	inputs     []fileInput
	inputPaths map[string]struct{}

	extensions     []*stagedExtension
	extensionNames map[string]struct{}

	// Populated during processing.
	dedup     *DedupTable
	fileMap   *FileMap
	manifest  *Manifest
	chunkData [][]byte
	chunkIDs  []ChunkID
}

type fileInput struct {
	path    string
	source  Source
	modTime *time.Time
}

type stagedExtension struct {
	manifest ExtensionManifest
	data     map[string][]byte
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger for build progress. The default discards
// everything — the library never prints on its own.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates an empty builder.
func NewBuilder(options ...BuilderOption) *Builder {
	b := &Builder{
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		inputPaths:     make(map[string]struct{}),
		extensionNames: make(map[string]struct{}),
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// FileOption configures a staged file.
type FileOption func(*fileInput)

// WithModTime records the source file's modification time in its
// file map entry.
func WithModTime(modTime time.Time) FileOption {
	return func(input *fileInput) {
		t := modTime.UTC()
		input.modTime = &t
	}
}

// AddFile stages one input file under the given logical path. No
// content I/O happens here; the source is opened during
// [Builder.Build]. Files are processed — and therefore enumerated by
// every reader — in the order they are staged.
func (b *Builder) AddFile(logicalPath string, source Source, options ...FileOption) error {
	if b.state > stateScanned {
		return errorf(KindInvalidInput, "cannot add file %q: builder has already built", logicalPath)
	}
	if err := ValidateLogicalPath(logicalPath); err != nil {
		return err
	}
	if _, exists := b.inputPaths[logicalPath]; exists {
		return errorf(KindInvalidInput, "duplicate logical path %q", logicalPath)
	}

	input := fileInput{path: logicalPath, source: source}
	for _, option := range options {
		option(&input)
	}

	b.inputPaths[logicalPath] = struct{}{}
	b.inputs = append(b.inputs, input)
	b.state = stateScanned
	return nil
}

// AddExtension stages a namespaced extension: a version string and a
// key → blob map. Blobs are copied. Namespaces must be unique within
// the build; keys must be file-safe. Extension data is opaque to the
// core and never participates in chunking or deduplication.
func (b *Builder) AddExtension(namespace, version string, data map[string][]byte) error {
	if b.state > stateScanned {
		return errorf(KindInvalidInput, "cannot add extension %q: builder has already built", namespace)
	}
	if err := ValidateNamespace(namespace); err != nil {
		return err
	}
	if _, exists := b.extensionNames[namespace]; exists {
		return errorf(KindInvalidInput, "duplicate extension namespace %q", namespace)
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		if err := ValidateExtensionKey(key); err != nil {
			return err
		}
		keys = append(keys, key)
	}
	// Map iteration order is random; sort so the key list and member
	// emission order are stable across builds.
	sort.Strings(keys)

	staged := &stagedExtension{
		manifest: ExtensionManifest{
			Namespace: namespace,
			Version:   version,
			Keys:      keys,
		},
		data: make(map[string][]byte, len(data)),
	}
	for key, blob := range data {
		staged.data[key] = append([]byte(nil), blob...)
	}

	b.extensionNames[namespace] = struct{}{}
	b.extensions = append(b.extensions, staged)
	return nil
}

// BuildReport summarizes a completed build.
type BuildReport struct {
	OutputPath          string
	Files               int
	TotalChunks         int
	UniqueChunks        int
	Extensions          int
	OriginalSizeBytes   uint64
	PackedSizeBytes     uint64
	ArchiveSizeBytes    int64
	CompressionRatio    float64
	DedupSavingsPercent float64
	Duration            time.Duration
}

// Build processes every staged file and seals the archive at outPath.
// The archive is written to outPath + ".tmp" and renamed into place
// on success; on any error — including cancellation via ctx — the
// temporary file is removed and no partial archive is left under the
// final name. Build may be called exactly once.
func (b *Builder) Build(ctx context.Context, outPath string) (*BuildReport, error) {
	if b.state >= stateProcessed {
		return nil, errorf(KindInvalidInput, "builder has already built an archive")
	}
	start := time.Now()

	if err := b.process(ctx); err != nil {
		return nil, err
	}
	archiveSize, err := b.seal(ctx, outPath)
	if err != nil {
		return nil, err
	}

	stats := b.dedup.Stats()
	report := &BuildReport{
		OutputPath:          outPath,
		Files:               b.fileMap.Len(),
		TotalChunks:         stats.TotalChunks,
		UniqueChunks:        stats.UniqueChunks,
		Extensions:          len(b.extensions),
		OriginalSizeBytes:   b.manifest.Stats.OriginalSizeBytes,
		PackedSizeBytes:     b.manifest.Stats.PackedSizeBytes,
		ArchiveSizeBytes:    archiveSize,
		CompressionRatio:    b.manifest.Stats.CompressionRatio,
		DedupSavingsPercent: b.manifest.Stats.DedupSavingsPercent,
		Duration:            time.Since(start),
	}

	b.logger.Info("archive built",
		"path", outPath,
		"files", report.Files,
		"unique_chunks", report.UniqueChunks,
		"archive_bytes", report.ArchiveSizeBytes,
		"dedup_savings_percent", report.DedupSavingsPercent,
		"duration", report.Duration)

	return report, nil
}

// process streams every staged file through the chunker, assigns
// chunk indexes through the dedup table, and records file entries.
// Unique chunk payloads are buffered uncompressed; compression is
// deferred to seal so it can fan out across workers.
func (b *Builder) process(ctx context.Context) error {
	b.dedup = NewDedupTable()
	b.fileMap = NewFileMap()
	b.manifest = NewManifest()

	for _, input := range b.inputs {
		if err := cancelled(ctx); err != nil {
			return err
		}
		if err := b.processFile(ctx, input); err != nil {
			return err
		}
	}

	stats := b.dedup.Stats()
	b.manifest.Stats.TotalFiles = b.fileMap.Len()
	b.manifest.Stats.UniqueChunks = stats.UniqueChunks
	b.manifest.Stats.OriginalSizeBytes = stats.TotalBytes
	b.manifest.Stats.DedupSavingsPercent = stats.SavingsPercent()

	b.state = stateProcessed
	b.logger.Debug("processing complete",
		"files", b.fileMap.Len(),
		"total_chunks", stats.TotalChunks,
		"unique_chunks", stats.UniqueChunks)
	return nil
}

// processFile reads one source, chunks it, and records its entry.
func (b *Builder) processFile(ctx context.Context, input fileInput) error {
	reader, err := input.source.Open()
	if err != nil {
		return wrapf(KindIO, err, "opening source for %q", input.path)
	}
	content, err := io.ReadAll(reader)
	closeErr := reader.Close()
	if err != nil {
		return wrapf(KindIO, err, "reading source for %q", input.path)
	}
	if closeErr != nil {
		return wrapf(KindIO, closeErr, "closing source for %q", input.path)
	}

	chunker := NewChunker(content)
	var refs []ChunkRef
	for {
		if err := cancelled(ctx); err != nil {
			return err
		}
		chunk := chunker.Next()
		if chunk == nil {
			break
		}

		_, isNew := b.dedup.Insert(chunk.ID, len(chunk.Data))
		if isNew {
			b.chunkData = append(b.chunkData, chunk.Data)
			b.chunkIDs = append(b.chunkIDs, chunk.ID)
		}
		refs = append(refs, ChunkRef{ID: chunk.ID, Length: uint64(len(chunk.Data))})
	}

	extension := pathExtension(input.path)
	entry := FileEntry{
		Path:      input.path,
		Extension: extension,
		Category:  DetectCategory(extension),
		Size:      uint64(len(content)),
		ModTime:   input.modTime,
		Chunks:    refs,
	}
	if err := b.fileMap.Add(entry); err != nil {
		return err
	}
	b.manifest.AddFileType(extension, input.path, entry.Size)

	b.logger.Debug("processed file", "path", input.path, "size", entry.Size, "chunks", len(refs))
	return nil
}

// seal compresses all unique chunks and writes the container.
// Compression fans out across a worker pool; each worker owns a
// disjoint set of chunk indexes, so the results slice needs no lock
// and emission stays in deterministic index order. Returns the final
// archive size in bytes.
func (b *Builder) seal(ctx context.Context, outPath string) (int64, error) {
	compressed, err := b.compressChunks(ctx)
	if err != nil {
		return 0, err
	}

	var packed uint64
	for _, payload := range compressed {
		packed += uint64(len(payload))
	}
	b.manifest.Stats.PackedSizeBytes = packed
	if b.manifest.Stats.OriginalSizeBytes > 0 {
		b.manifest.Stats.CompressionRatio =
			float64(packed) / float64(b.manifest.Stats.OriginalSizeBytes)
	}
	b.manifest.ChunkIDs = b.chunkIDs
	for _, staged := range b.extensions {
		b.manifest.Extensions = append(b.manifest.Extensions, staged.manifest.Namespace)
	}

	archiveSize, err := b.writeContainer(ctx, outPath, compressed)
	if err != nil {
		return 0, err
	}

	b.state = stateSealed
	return archiveSize, nil
}

// compressChunks compresses every buffered unique chunk in parallel,
// returning payloads indexed by chunk index.
func (b *Builder) compressChunks(ctx context.Context) ([][]byte, error) {
	compressed := make([][]byte, len(b.chunkData))
	if len(b.chunkData) == 0 {
		return compressed, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(b.chunkData) {
		workers = len(b.chunkData)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range indexes {
				compressed[index] = CompressChunk(b.chunkData[index])
			}
		}()
	}

	feed := func() error {
		defer close(indexes)
		for index := range b.chunkData {
			if err := cancelled(ctx); err != nil {
				return err
			}
			indexes <- index
		}
		return nil
	}
	feedErr := feed()
	wg.Wait()
	if feedErr != nil {
		return nil, feedErr
	}
	return compressed, nil
}

// writeContainer writes the ZIP envelope through a temp file and
// renames it into place. Emission order: unique chunks under their
// index-derived names, the file map, each extension namespace
// (manifest, then blobs in key order), and the manifest last.
func (b *Builder) writeContainer(ctx context.Context, outPath string, compressed [][]byte) (int64, error) {
	tmpPath := outPath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return 0, wrapf(KindIO, err, "creating temp archive %q", tmpPath)
	}

	success := false
	defer func() {
		if !success {
			file.Close()
			os.Remove(tmpPath)
		}
	}()

	zipWriter := zip.NewWriter(file)
	writeMember := func(name string, data []byte) error {
		member, err := zipWriter.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: b.manifest.CreatedAt,
		})
		if err != nil {
			return wrapf(KindIO, err, "creating member %q", name)
		}
		if _, err := member.Write(data); err != nil {
			return wrapf(KindIO, err, "writing member %q", name)
		}
		return nil
	}

	for index, payload := range compressed {
		if err := cancelled(ctx); err != nil {
			return 0, err
		}
		if err := writeMember(chunkMemberName(index), payload); err != nil {
			return 0, err
		}
	}

	fileMapData, err := MarshalFileMap(b.fileMap)
	if err != nil {
		return 0, err
	}
	if err := writeMember(fileMapMember, fileMapData); err != nil {
		return 0, err
	}

	for _, staged := range b.extensions {
		manifestData, err := MarshalExtensionManifest(&staged.manifest)
		if err != nil {
			return 0, err
		}
		if err := writeMember(extensionManifestMember(staged.manifest.Namespace), manifestData); err != nil {
			return 0, err
		}
		for _, key := range staged.manifest.Keys {
			if err := writeMember(extensionBlobMember(staged.manifest.Namespace, key), staged.data[key]); err != nil {
				return 0, err
			}
		}
	}

	manifestData, err := MarshalManifest(b.manifest)
	if err != nil {
		return 0, err
	}
	if err := writeMember(manifestMember, manifestData); err != nil {
		return 0, err
	}

	if err := zipWriter.Close(); err != nil {
		return 0, wrapf(KindIO, err, "finalizing archive %q", tmpPath)
	}

	info, err := file.Stat()
	if err != nil {
		return 0, wrapf(KindIO, err, "stating temp archive %q", tmpPath)
	}
	archiveSize := info.Size()

	if err := file.Sync(); err != nil {
		return 0, wrapf(KindIO, err, "syncing temp archive %q", tmpPath)
	}
	if err := file.Close(); err != nil {
		return 0, wrapf(KindIO, err, "closing temp archive %q", tmpPath)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return 0, wrapf(KindIO, err, "renaming archive to %q", outPath)
	}

	success = true
	return archiveSize, nil
}

// cancelled translates context cancellation into the package's
// Cancelled error kind.
func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return wrapf(KindCancelled, err, "cancelled")
	}
	return nil
}
