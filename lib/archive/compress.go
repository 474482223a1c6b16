// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"github.com/klauspost/compress/zstd"
)

// Every chunk payload in an archive is a single Zstandard frame. The
// ZIP envelope stores members uncompressed, so this is the only
// compression layer. Chunk ids are computed on uncompressed bytes, so
// deduplication is independent of the compression level in use.

// zstdEncoder and zstdDecoder are reused across calls to avoid
// repeated initialization overhead. zstd.Encoder and zstd.Decoder
// are safe for concurrent use of EncodeAll/DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		// Encode empty input as a complete frame rather than zero bytes.
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		panic("archive: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("archive: zstd decoder initialization failed: " + err.Error())
	}
}

// CompressChunk compresses a chunk payload as a single Zstandard
// frame. Empty input produces a small non-empty frame, which
// [DecompressChunk] accepts symmetrically. Incompressible data grows
// slightly; the format accepts that rather than introducing a second
// codec tag.
func CompressChunk(data []byte) []byte {
	return zstdEncoder.EncodeAll(data, nil)
}

// DecompressChunk decompresses a chunk payload and verifies that the
// result is exactly uncompressedLength bytes, the length recorded in
// the chunk reference. A frame that does not decode fails with a
// Compression error; a length disagreement fails with a Corrupt
// error.
func DecompressChunk(compressed []byte, uncompressedLength int) ([]byte, error) {
	destination := make([]byte, 0, uncompressedLength)
	result, err := zstdDecoder.DecodeAll(compressed, destination)
	if err != nil {
		return nil, wrapf(KindCompression, err, "decompressing chunk")
	}
	if len(result) != uncompressedLength {
		return nil, errorf(KindCorrupt, "corrupt chunk: decompressed to %d bytes, reference states %d",
			len(result), uncompressedLength)
	}
	return result, nil
}
