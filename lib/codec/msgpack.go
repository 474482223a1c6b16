// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Marshal encodes v to MessagePack. Struct fields are encoded as
// string-keyed maps using their msgpack tags, so records remain
// readable by any MessagePack implementation and unknown fields can
// be added in later minor versions without breaking old readers.
func Marshal(v any) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := msgpack.NewEncoder(&buffer)
	// Compact integer/float encoding: always use the smallest
	// representation that holds the value. Map keys are written in
	// sorted order. Same logical data always produces identical bytes.
	encoder.UseCompactInts(true)
	encoder.UseCompactFloats(true)
	encoder.SetSortMapKeys(true)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// Unmarshal decodes MessagePack data into v. Unknown map keys are
// silently ignored for forward compatibility.
func Unmarshal(data []byte, v any) error {
	decoder := msgpack.NewDecoder(bytes.NewReader(data))
	return decoder.Decode(v)
}

// Encoder is a MessagePack stream encoder. Type alias so consumers
// implementing custom encoding import only lib/codec, not
// vmihailenco/msgpack directly.
type Encoder = msgpack.Encoder

// Decoder is a MessagePack stream decoder. Mirrors Encoder.
type Decoder = msgpack.Decoder

// RawMessage is a raw encoded MessagePack value, usable to delay
// decoding or to pre-encode output.
type RawMessage = msgpack.RawMessage
