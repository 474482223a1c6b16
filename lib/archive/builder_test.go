// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// buildArchive is a test helper that stages the given path → content
// pairs in order and builds an archive in a temp directory.
func buildArchive(t *testing.T, files [][2]string, configure func(*Builder)) string {
	t.Helper()

	builder := NewBuilder()
	for _, file := range files {
		if err := builder.AddFile(file[0], BytesSource([]byte(file[1]))); err != nil {
			t.Fatalf("AddFile(%q): %v", file[0], err)
		}
	}
	if configure != nil {
		configure(builder)
	}

	outPath := filepath.Join(t.TempDir(), "test.cxp")
	if _, err := builder.Build(context.Background(), outPath); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return outPath
}

func TestBuildRoundTrip(t *testing.T) {
	// Exact round-trip: a 30-byte file reads back byte-identical and
	// lists with its size and category.
	content := "fn main() { println!(\"hi\"); }\n"
	outPath := buildArchive(t, [][2]string{{"src/main.rs", content}}, nil)

	reader, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	restored, err := reader.ReadFile("src/main.rs")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(restored) != content {
		t.Errorf("ReadFile = %q, want %q", restored, content)
	}

	files := reader.ListFiles()
	if len(files) != 1 {
		t.Fatalf("ListFiles returned %d entries, want 1", len(files))
	}
	want := FileSummary{Path: "src/main.rs", Size: 30, Category: CategorySource}
	if files[0] != want {
		t.Errorf("ListFiles[0] = %+v, want %+v", files[0], want)
	}
}

func TestBuildDedupSaving(t *testing.T) {
	// Two files with identical repetitive content: the archive stores
	// each unique chunk once and reports substantial dedup savings.
	repeated := strings.Repeat("x", 20000)
	outPath := buildArchive(t, [][2]string{
		{"a.txt", repeated},
		{"b.txt", repeated},
	}, nil)

	reader, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	stats := reader.Manifest().Stats
	if stats.UniqueChunks > 5 {
		t.Errorf("UniqueChunks = %d, want <= 5", stats.UniqueChunks)
	}
	if stats.DedupSavingsPercent < 40 {
		t.Errorf("DedupSavingsPercent = %v, want >= 40", stats.DedupSavingsPercent)
	}

	for _, path := range []string{"a.txt", "b.txt"} {
		restored, err := reader.ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile(%q): %v", path, err)
		}
		if string(restored) != repeated {
			t.Errorf("ReadFile(%q) altered content", path)
		}
	}
}

func TestBuildSharedRegionDeduplicates(t *testing.T) {
	// Two files sharing a large contiguous region: every full chunk
	// inside the shared region is stored once.
	random := rand.New(rand.NewSource(7))
	shared := make([]byte, 64*1024)
	random.Read(shared)
	fileA := append([]byte("unique prefix A\n"), shared...)
	fileB := append([]byte("a different unique prefix for B\n"), shared...)

	builder := NewBuilder()
	if err := builder.AddFile("a.bin", BytesSource(fileA)); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := builder.AddFile("b.bin", BytesSource(fileB)); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "dedup.cxp")
	report, err := builder.Build(context.Background(), outPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.UniqueChunks >= report.TotalChunks {
		t.Errorf("no dedup across shared region: %d unique of %d total",
			report.UniqueChunks, report.TotalChunks)
	}
}

func TestBuildEmptyArchive(t *testing.T) {
	// An empty input set builds a valid, parseable archive with zero
	// files and zero chunks.
	outPath := buildArchive(t, nil, nil)

	reader, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	if len(reader.ListFiles()) != 0 {
		t.Errorf("ListFiles = %v, want empty", reader.ListFiles())
	}
	stats := reader.Manifest().Stats
	if stats.TotalFiles != 0 || stats.UniqueChunks != 0 {
		t.Errorf("Stats = %+v, want zeros", stats)
	}
}

func TestBuildEmptyFile(t *testing.T) {
	// A zero-byte file produces zero chunks but still round-trips.
	outPath := buildArchive(t, [][2]string{{"empty.txt", ""}}, nil)

	reader, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	restored, err := reader.ReadFile("empty.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(restored) != 0 {
		t.Errorf("ReadFile returned %d bytes, want 0", len(restored))
	}
}

func TestBuildDeterministic(t *testing.T) {
	// Building the same ordered inputs twice produces identical file
	// maps and chunk orderings; only the manifest timestamp differs.
	files := [][2]string{
		{"a.go", strings.Repeat("package a\n", 500)},
		{"b.go", strings.Repeat("package b\n", 700)},
		{"c.md", "# readme\n"},
	}
	firstPath := buildArchive(t, files, nil)
	secondPath := buildArchive(t, files, nil)

	first, err := Open(firstPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()
	second, err := Open(secondPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer second.Close()

	firstIDs := first.Manifest().ChunkIDs
	secondIDs := second.Manifest().ChunkIDs
	if len(firstIDs) != len(secondIDs) {
		t.Fatalf("chunk counts differ: %d vs %d", len(firstIDs), len(secondIDs))
	}
	for i := range firstIDs {
		if firstIDs[i] != secondIDs[i] {
			t.Errorf("chunk %d id differs between builds", i)
		}
	}

	firstMap, err := MarshalFileMap(first.fileMap)
	if err != nil {
		t.Fatalf("MarshalFileMap: %v", err)
	}
	secondMap, err := MarshalFileMap(second.fileMap)
	if err != nil {
		t.Fatalf("MarshalFileMap: %v", err)
	}
	if !bytes.Equal(firstMap, secondMap) {
		t.Error("file maps differ between identical builds")
	}
}

func TestBuildExtensionIsolation(t *testing.T) {
	// Extension blobs round-trip bit-exactly and do not perturb the
	// file map or chunk statistics.
	blob := []byte{0x01, 0x02, 0x03}
	zeros := strings.Repeat("\x00", 100)

	builder := NewBuilder()
	if err := builder.AddFile("r.txt", BytesSource([]byte(zeros))); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := builder.AddExtension("myapp", "1.0.0", map[string][]byte{"cfg": blob}); err != nil {
		t.Fatalf("AddExtension: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "ext.cxp")
	if _, err := builder.Build(context.Background(), outPath); err != nil {
		t.Fatalf("Build: %v", err)
	}

	reader, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	namespaces := reader.ListExtensions()
	if len(namespaces) != 1 || namespaces[0] != "myapp" {
		t.Errorf("ListExtensions = %v, want [myapp]", namespaces)
	}

	restored, err := reader.ReadExtension("myapp", "cfg")
	if err != nil {
		t.Fatalf("ReadExtension: %v", err)
	}
	if !bytes.Equal(restored, blob) {
		t.Errorf("ReadExtension = %x, want %x", restored, blob)
	}

	files := reader.ListFiles()
	if len(files) != 1 || files[0].Path != "r.txt" || files[0].Size != 100 {
		t.Errorf("ListFiles = %+v, want exactly r.txt of size 100", files)
	}

	manifest, err := reader.ExtensionManifest("myapp")
	if err != nil {
		t.Fatalf("ExtensionManifest: %v", err)
	}
	if manifest.Version != "1.0.0" {
		t.Errorf("extension version = %q, want 1.0.0", manifest.Version)
	}
}

func TestBuilderInputValidation(t *testing.T) {
	builder := NewBuilder()

	if err := builder.AddFile("a.txt", BytesSource(nil)); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := builder.AddFile("a.txt", BytesSource(nil)); KindOf(err) != KindInvalidInput {
		t.Errorf("duplicate path error kind = %v, want %v", KindOf(err), KindInvalidInput)
	}
	if err := builder.AddFile("/abs", BytesSource(nil)); KindOf(err) != KindInvalidInput {
		t.Errorf("absolute path error kind = %v, want %v", KindOf(err), KindInvalidInput)
	}

	if err := builder.AddExtension("myapp", "1.0.0", nil); err != nil {
		t.Fatalf("AddExtension: %v", err)
	}
	if err := builder.AddExtension("myapp", "2.0.0", nil); KindOf(err) != KindInvalidInput {
		t.Errorf("duplicate namespace error kind = %v, want %v", KindOf(err), KindInvalidInput)
	}
	if err := builder.AddExtension("Bad.NS", "1.0.0", nil); KindOf(err) != KindInvalidInput {
		t.Errorf("invalid namespace error kind = %v, want %v", KindOf(err), KindInvalidInput)
	}
	if err := builder.AddExtension("other", "1.0.0", map[string][]byte{"a/b": nil}); KindOf(err) != KindInvalidInput {
		t.Errorf("invalid key error kind = %v, want %v", KindOf(err), KindInvalidInput)
	}
}

func TestBuilderSingleUse(t *testing.T) {
	builder := NewBuilder()
	if err := builder.AddFile("a.txt", BytesSource([]byte("content"))); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	dir := t.TempDir()
	if _, err := builder.Build(context.Background(), filepath.Join(dir, "one.cxp")); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := builder.Build(context.Background(), filepath.Join(dir, "two.cxp")); KindOf(err) != KindInvalidInput {
		t.Errorf("second Build error kind = %v, want %v", KindOf(err), KindInvalidInput)
	}
	if err := builder.AddFile("late.txt", BytesSource(nil)); KindOf(err) != KindInvalidInput {
		t.Errorf("AddFile after Build error kind = %v, want %v", KindOf(err), KindInvalidInput)
	}
}

func TestBuildSourceErrorAbortsWithoutPartialOutput(t *testing.T) {
	builder := NewBuilder()
	if err := builder.AddFile("ok.txt", BytesSource([]byte("fine"))); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if err := builder.AddFile("missing.txt", FileSource(filepath.Join(t.TempDir(), "does-not-exist"))); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	dir := t.TempDir()
	outPath := filepath.Join(dir, "partial.cxp")
	_, err := builder.Build(context.Background(), outPath)
	if err == nil {
		t.Fatal("expected build error for missing source")
	}
	if KindOf(err) != KindIO {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindIO)
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("ReadDir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("build left artifacts behind: %v", entries)
	}
}

func TestBuildCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	builder := NewBuilder()
	if err := builder.AddFile("a.txt", BytesSource([]byte("content"))); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	dir := t.TempDir()
	outPath := filepath.Join(dir, "cancelled.cxp")
	_, err := builder.Build(ctx, outPath)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if KindOf(err) != KindCancelled {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindCancelled)
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("ReadDir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("cancelled build left artifacts behind: %v", entries)
	}
}

func TestBuildReportNumbers(t *testing.T) {
	content := strings.Repeat("some compressible text content\n", 2000)

	builder := NewBuilder()
	if err := builder.AddFile("big.txt", BytesSource([]byte(content))); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	outPath := filepath.Join(t.TempDir(), "report.cxp")
	report, err := builder.Build(context.Background(), outPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if report.Files != 1 {
		t.Errorf("Files = %d, want 1", report.Files)
	}
	if report.OriginalSizeBytes != uint64(len(content)) {
		t.Errorf("OriginalSizeBytes = %d, want %d", report.OriginalSizeBytes, len(content))
	}
	if report.PackedSizeBytes == 0 || report.PackedSizeBytes >= report.OriginalSizeBytes {
		t.Errorf("PackedSizeBytes = %d for compressible input of %d bytes",
			report.PackedSizeBytes, report.OriginalSizeBytes)
	}
	if report.CompressionRatio <= 0 || report.CompressionRatio >= 1 {
		t.Errorf("CompressionRatio = %v, want in (0, 1)", report.CompressionRatio)
	}

	info, statErr := os.Stat(outPath)
	if statErr != nil {
		t.Fatalf("Stat: %v", statErr)
	}
	if report.ArchiveSizeBytes != info.Size() {
		t.Errorf("ArchiveSizeBytes = %d, file is %d", report.ArchiveSizeBytes, info.Size())
	}
}

func TestBuildRecordsModTime(t *testing.T) {
	modTime := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	builder := NewBuilder()
	if err := builder.AddFile("dated.txt", BytesSource([]byte("x")), WithModTime(modTime)); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	outPath := filepath.Join(t.TempDir(), "dated.cxp")
	if _, err := builder.Build(context.Background(), outPath); err != nil {
		t.Fatalf("Build: %v", err)
	}

	reader, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reader.Close()

	entry, err := reader.FileEntry("dated.txt")
	if err != nil {
		t.Fatalf("FileEntry: %v", err)
	}
	if entry.ModTime == nil || !entry.ModTime.Equal(modTime) {
		t.Errorf("ModTime = %v, want %v", entry.ModTime, modTime)
	}
}
