// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/cxp-foundation/cxp/lib/codec"
)

// ChunkID is the 32-byte SHA-256 digest of a chunk's uncompressed
// bytes. It is both the chunk's identity and the deduplication key:
// equal digests are treated as equal contents, relying on SHA-256
// collision resistance. There is no salting or domain separation —
// the id of a chunk is a pure function of its bytes, so identical
// content deduplicates across files and across archives.
type ChunkID [32]byte

// HashChunk computes the content id of a chunk.
func HashChunk(data []byte) ChunkID {
	return sha256.Sum256(data)
}

// FormatID returns the hex-encoded string representation of a chunk
// id. This is the canonical format used in logs and error messages.
func FormatID(id ChunkID) string {
	return hex.EncodeToString(id[:])
}

// ParseID parses a 64-character hex string into a ChunkID.
func ParseID(hexString string) (ChunkID, error) {
	var id ChunkID
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return id, fmt.Errorf("parsing chunk id: %w", err)
	}
	if len(decoded) != 32 {
		return id, fmt.Errorf("chunk id is %d bytes, want 32", len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

// EncodeMsgpack encodes the id as a MessagePack bin value rather than
// a 32-element array, keeping serialized chunk references compact.
func (id ChunkID) EncodeMsgpack(encoder *codec.Encoder) error {
	return encoder.EncodeBytes(id[:])
}

// DecodeMsgpack decodes a bin value produced by EncodeMsgpack.
func (id *ChunkID) DecodeMsgpack(decoder *codec.Decoder) error {
	data, err := decoder.DecodeBytes()
	if err != nil {
		return err
	}
	if len(data) != 32 {
		return fmt.Errorf("chunk id is %d bytes, want 32", len(data))
	}
	copy(id[:], data)
	return nil
}
