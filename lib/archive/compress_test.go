// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"text", []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 100))},
		{"single byte", []byte{0x42}},
		{"zeros", make([]byte, 4096)},
		{"high entropy", func() []byte {
			data := make([]byte, 4096)
			for i := range data {
				data[i] = byte((i*167 + 13) % 251)
			}
			return data
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			compressed := CompressChunk(tc.data)
			if len(compressed) == 0 {
				t.Fatal("compressed frame is empty")
			}

			restored, err := DecompressChunk(compressed, len(tc.data))
			if err != nil {
				t.Fatalf("DecompressChunk: %v", err)
			}
			if !bytes.Equal(restored, tc.data) {
				t.Error("round trip altered data")
			}
		})
	}
}

func TestCompressEmpty(t *testing.T) {
	// Empty input compresses to a small non-empty frame, and the
	// frame decompresses back to zero bytes.
	compressed := CompressChunk(nil)
	if len(compressed) == 0 {
		t.Fatal("empty input must still produce a frame")
	}

	restored, err := DecompressChunk(compressed, 0)
	if err != nil {
		t.Fatalf("DecompressChunk: %v", err)
	}
	if len(restored) != 0 {
		t.Errorf("restored %d bytes from empty-input frame, want 0", len(restored))
	}
}

func TestDecompressInvalidFrame(t *testing.T) {
	_, err := DecompressChunk([]byte("this is not a zstd frame"), 24)
	if err == nil {
		t.Fatal("expected error for invalid frame")
	}
	if KindOf(err) != KindCompression {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindCompression)
	}
}

func TestDecompressLengthMismatch(t *testing.T) {
	compressed := CompressChunk([]byte("some chunk content"))

	_, err := DecompressChunk(compressed, 5)
	if err == nil {
		t.Fatal("expected error for length mismatch")
	}
	if KindOf(err) != KindCorrupt {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindCorrupt)
	}
}
