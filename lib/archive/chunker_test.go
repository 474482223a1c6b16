// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestChunkerEmpty(t *testing.T) {
	chunker := NewChunker(nil)
	if chunk := chunker.Next(); chunk != nil {
		t.Errorf("expected nil for empty input, got chunk of %d bytes", len(chunk.Data))
	}

	chunker2 := NewChunker([]byte{})
	if chunk := chunker2.Next(); chunk != nil {
		t.Errorf("expected nil for zero-length input, got chunk of %d bytes", len(chunk.Data))
	}

	if chunks := ChunkAll(nil); len(chunks) != 0 {
		t.Errorf("ChunkAll(nil) = %d chunks, want 0", len(chunks))
	}
}

func TestChunkerSmallInput(t *testing.T) {
	// Input smaller than MinChunkSize: exactly one short chunk.
	input := make([]byte, 1024)
	for i := range input {
		input[i] = byte(i)
	}

	chunker := NewChunker(input)
	chunk := chunker.Next()
	if chunk == nil {
		t.Fatal("expected a chunk, got nil")
	}
	if len(chunk.Data) != 1024 {
		t.Errorf("chunk size = %d, want 1024", len(chunk.Data))
	}
	if chunk.ID != HashChunk(input) {
		t.Error("chunk id does not match HashChunk(input)")
	}

	if next := chunker.Next(); next != nil {
		t.Errorf("expected nil after single small chunk, got chunk of %d bytes", len(next.Data))
	}
}

func TestChunkerSizeBounds(t *testing.T) {
	// Every chunk except the final one of a file must satisfy
	// MinChunkSize <= len <= MaxChunkSize; the final chunk may be
	// shorter than the minimum but never longer than the maximum.
	input := make([]byte, 256*1024)
	for i := range input {
		input[i] = byte((i * 31) ^ (i >> 7))
	}

	chunks := ChunkAll(input)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for 256KB input, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.Data) > MaxChunkSize {
			t.Errorf("chunk %d: size %d exceeds MaxChunkSize %d", i, len(chunk.Data), MaxChunkSize)
		}
		if i < len(chunks)-1 && len(chunk.Data) < MinChunkSize {
			t.Errorf("chunk %d: size %d below MinChunkSize %d", i, len(chunk.Data), MinChunkSize)
		}
	}
}

func TestChunkerMaxBoundaryOnUniformInput(t *testing.T) {
	// All-zero input never satisfies the boundary mask test, so every
	// cut is forced at MaxChunkSize. An input that is an exact
	// multiple of the maximum therefore chunks into equal max-size
	// pieces.
	input := make([]byte, MaxChunkSize*3)

	chunks := ChunkAll(input)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 max-size chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.Data) != MaxChunkSize {
			t.Errorf("chunk %d: size %d, want MaxChunkSize %d", i, len(chunk.Data), MaxChunkSize)
		}
	}
}

func TestChunkerReassembly(t *testing.T) {
	// Concatenating all chunks must reproduce the original input.
	input := make([]byte, 128*1024)
	for i := range input {
		input[i] = byte(i * 37)
	}

	chunks := ChunkAll(input)
	if len(chunks) == 0 {
		t.Fatal("no chunks produced")
	}

	var reassembled []byte
	for _, chunk := range chunks {
		reassembled = append(reassembled, chunk.Data...)
	}

	if !bytes.Equal(reassembled, input) {
		t.Fatal("reassembled chunks differ from input")
	}
}

func TestChunkerDeterministic(t *testing.T) {
	input := make([]byte, 64*1024)
	for i := range input {
		input[i] = byte((i * 131) ^ (i >> 3))
	}

	first := ChunkAll(input)
	second := ChunkAll(input)

	if len(first) != len(second) {
		t.Fatalf("chunk count differs between runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d: id differs between runs", i)
		}
		if len(first[i].Data) != len(second[i].Data) {
			t.Errorf("chunk %d: length differs between runs", i)
		}
	}
}

func TestChunkerLocalEditShiftsFewBoundaries(t *testing.T) {
	// Content-defined chunking: inserting bytes near the start must
	// not move boundaries far away from the edit. The chunk sets of
	// the original and edited inputs should share most chunks.
	random := rand.New(rand.NewSource(42))
	original := make([]byte, 128*1024)
	random.Read(original)

	edited := make([]byte, 0, len(original)+16)
	edited = append(edited, original[:100]...)
	edited = append(edited, []byte("inserted edit bytes")...)
	edited = append(edited, original[100:]...)

	originalIDs := make(map[ChunkID]bool)
	for _, chunk := range ChunkAll(original) {
		originalIDs[chunk.ID] = true
	}

	editedChunks := ChunkAll(edited)
	shared := 0
	for _, chunk := range editedChunks {
		if originalIDs[chunk.ID] {
			shared++
		}
	}

	if shared < len(editedChunks)/2 {
		t.Errorf("only %d of %d chunks shared after a local edit; boundaries shifted globally",
			shared, len(editedChunks))
	}
}
