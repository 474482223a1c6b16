// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single entry point for MessagePack
// serialization of archive metadata (manifest, file map, extension
// manifests). Centralizing the encoder configuration here keeps the
// wire encoding consistent across every record type and keeps the
// msgpack dependency out of the rest of the tree.
package codec
