// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

type sampleRecord struct {
	Name    string            `msgpack:"name"`
	Size    uint64            `msgpack:"size"`
	Ratio   float64           `msgpack:"ratio"`
	Tags    []string          `msgpack:"tags"`
	Labels  map[string]string `msgpack:"labels,omitempty"`
	Payload []byte            `msgpack:"payload"`
}

func TestMarshalRoundTrip(t *testing.T) {
	original := sampleRecord{
		Name:    "src/main.go",
		Size:    4096,
		Ratio:   0.42,
		Tags:    []string{"source", "go"},
		Labels:  map[string]string{"tier": "hot"},
		Payload: []byte{0x00, 0x01, 0xFF},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("Marshal produced empty output")
	}

	var restored sampleRecord
	if err := Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if restored.Name != original.Name {
		t.Errorf("Name = %q, want %q", restored.Name, original.Name)
	}
	if restored.Size != original.Size {
		t.Errorf("Size = %d, want %d", restored.Size, original.Size)
	}
	if restored.Ratio != original.Ratio {
		t.Errorf("Ratio = %v, want %v", restored.Ratio, original.Ratio)
	}
	if len(restored.Tags) != 2 || restored.Tags[0] != "source" {
		t.Errorf("Tags = %v, want %v", restored.Tags, original.Tags)
	}
	if !bytes.Equal(restored.Payload, original.Payload) {
		t.Errorf("Payload = %x, want %x", restored.Payload, original.Payload)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{Name: "a", Size: 1, Tags: []string{"x"}}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same record encoded to different bytes")
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	// A record encoded with an extra field must still decode into a
	// struct that lacks it: forward compatibility for minor version
	// additions.
	extended := map[string]any{
		"name":         "x",
		"size":         uint64(7),
		"future_field": "ignored",
	}
	data, err := Marshal(extended)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var restored sampleRecord
	if err := Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if restored.Name != "x" || restored.Size != 7 {
		t.Errorf("restored = %+v, want name=x size=7", restored)
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	var restored sampleRecord
	if err := Unmarshal([]byte{0xc1}, &restored); err == nil {
		t.Error("expected error decoding reserved msgpack byte, got nil")
	}
}
