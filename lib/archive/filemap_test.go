// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"testing"
)

func TestFileMapInsertionOrder(t *testing.T) {
	m := NewFileMap()
	paths := []string{"zeta.go", "alpha.go", "mid/file.md"}
	for _, path := range paths {
		err := m.Add(FileEntry{Path: path, Extension: pathExtension(path)})
		if err != nil {
			t.Fatalf("Add(%q): %v", path, err)
		}
	}

	entries := m.Entries()
	if len(entries) != 3 {
		t.Fatalf("Len = %d, want 3", len(entries))
	}
	for i, path := range paths {
		if entries[i].Path != path {
			t.Errorf("entry %d = %q, want %q (insertion order)", i, entries[i].Path, path)
		}
	}
}

func TestFileMapDuplicatePath(t *testing.T) {
	m := NewFileMap()
	if err := m.Add(FileEntry{Path: "a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := m.Add(FileEntry{Path: "a.txt"})
	if err == nil {
		t.Fatal("expected error for duplicate path")
	}
	if KindOf(err) != KindInvalidInput {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindInvalidInput)
	}
}

func TestFileMapSerializationRoundTrip(t *testing.T) {
	m := NewFileMap()
	chunkID := HashChunk([]byte("chunk"))
	entry := FileEntry{
		Path:      "src/main.rs",
		Extension: "rs",
		Category:  CategorySource,
		Size:      5,
		Chunks:    []ChunkRef{{ID: chunkID, Length: 5}},
	}
	if err := m.Add(entry); err != nil {
		t.Fatalf("Add: %v", err)
	}

	data, err := MarshalFileMap(m)
	if err != nil {
		t.Fatalf("MarshalFileMap: %v", err)
	}

	restored, err := UnmarshalFileMap(data)
	if err != nil {
		t.Fatalf("UnmarshalFileMap: %v", err)
	}

	got, ok := restored.Get("src/main.rs")
	if !ok {
		t.Fatal("restored map is missing src/main.rs")
	}
	if got.Size != 5 || got.Category != CategorySource || got.Extension != "rs" {
		t.Errorf("restored entry = %+v", got)
	}
	if len(got.Chunks) != 1 || got.Chunks[0].ID != chunkID || got.Chunks[0].Length != 5 {
		t.Errorf("restored chunks = %+v", got.Chunks)
	}
}

func TestUnmarshalFileMapRejectsLengthMismatch(t *testing.T) {
	// An entry whose chunk lengths do not sum to its size is a schema
	// violation, caught at decode time before any chunk is read.
	m := NewFileMap()
	m.Add(FileEntry{
		Path:   "broken.txt",
		Size:   10,
		Chunks: []ChunkRef{{ID: HashChunk([]byte("x")), Length: 3}},
	})
	data, err := MarshalFileMap(m)
	if err != nil {
		t.Fatalf("MarshalFileMap: %v", err)
	}

	_, err = UnmarshalFileMap(data)
	if err == nil {
		t.Fatal("expected error for length mismatch")
	}
	if KindOf(err) != KindCorrupt {
		t.Errorf("error kind = %v, want %v", KindOf(err), KindCorrupt)
	}
}

func TestValidateLogicalPath(t *testing.T) {
	valid := []string{"a.txt", "src/main.go", "deep/ly/nested/file", "no-extension"}
	for _, path := range valid {
		if err := ValidateLogicalPath(path); err != nil {
			t.Errorf("ValidateLogicalPath(%q) = %v, want nil", path, err)
		}
	}

	invalid := []string{
		"",
		"/absolute/path",
		"back\\slash",
		"trailing/",
		"double//slash",
		"dot/./segment",
		"up/../escape",
		"..",
		string([]byte{0xFF, 0xFE}),
	}
	for _, path := range invalid {
		err := ValidateLogicalPath(path)
		if err == nil {
			t.Errorf("ValidateLogicalPath(%q) = nil, want error", path)
			continue
		}
		if KindOf(err) != KindInvalidInput {
			t.Errorf("ValidateLogicalPath(%q) kind = %v, want %v", path, KindOf(err), KindInvalidInput)
		}
	}
}

func TestDetectCategory(t *testing.T) {
	cases := []struct {
		extension string
		want      Category
	}{
		{"go", CategorySource},
		{"rs", CategorySource},
		{"css", CategorySource},
		{"yaml", CategoryConfig},
		{"json", CategoryConfig},
		{"md", CategoryDocs},
		{"txt", CategoryDocs},
		{"csv", CategoryData},
		{"bin", CategoryData},
		{"", CategoryData},
		{"GO", CategorySource},
	}
	for _, tc := range cases {
		if got := DetectCategory(tc.extension); got != tc.want {
			t.Errorf("DetectCategory(%q) = %q, want %q", tc.extension, got, tc.want)
		}
	}
}

func TestPathExtension(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"src/main.rs", "rs"},
		{"a.TXT", "txt"},
		{"Makefile", ""},
		{"dir.d/file", ""},
		{".gitignore", ""},
		{"archive.tar.gz", "gz"},
	}
	for _, tc := range cases {
		if got := pathExtension(tc.path); got != tc.want {
			t.Errorf("pathExtension(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
