// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"regexp"
	"strings"

	"github.com/cxp-foundation/cxp/lib/codec"
)

// Extensions are the namespaced side-channel for host applications:
// each namespace owns a directory under extensions/ in the container,
// holding one serialized manifest plus one opaque blob per key. The
// core assigns no semantics to the blobs and extension data never
// participates in chunking or deduplication.

// namespacePattern is the allowed shape for extension namespaces.
// Restricting to this set keeps namespaces safe as directory names on
// every filesystem the archive might be unpacked to.
var namespacePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// extensionManifestKey is the member name reserved for the
// per-namespace manifest; it is therefore forbidden as a blob key.
const extensionManifestKey = "manifest.msgpack"

// ExtensionManifest is the per-namespace record written by the host
// application.
type ExtensionManifest struct {
	// Namespace is the extension's unique name within the archive.
	Namespace string `msgpack:"namespace"`

	// Version is the host application's own version string for this
	// namespace's data layout.
	Version string `msgpack:"version"`

	// Description is optional human-readable context.
	Description string `msgpack:"description,omitempty"`

	// Keys lists every blob stored in this namespace, in the order
	// they are written. Readers cross-check this list against the
	// container's actual members in both directions.
	Keys []string `msgpack:"keys"`

	// Metadata is free-form host metadata.
	Metadata map[string]string `msgpack:"metadata,omitempty"`
}

// MarshalExtensionManifest serializes a per-namespace manifest.
func MarshalExtensionManifest(m *ExtensionManifest) ([]byte, error) {
	data, err := codec.Marshal(m)
	if err != nil {
		return nil, wrapf(KindSerialization, err, "encoding extension manifest for %q", m.Namespace)
	}
	return data, nil
}

// UnmarshalExtensionManifest parses a per-namespace manifest member.
func UnmarshalExtensionManifest(data []byte) (*ExtensionManifest, error) {
	var m ExtensionManifest
	if err := codec.Unmarshal(data, &m); err != nil {
		return nil, wrapf(KindCorrupt, err, "decoding extension manifest")
	}
	return &m, nil
}

// ValidateNamespace checks that a namespace is file-safe: lowercase
// letter first, then lowercase letters, digits, underscores, or
// hyphens.
func ValidateNamespace(namespace string) error {
	if !namespacePattern.MatchString(namespace) {
		return errorf(KindInvalidInput,
			"extension namespace %q is invalid: must match %s", namespace, namespacePattern.String())
	}
	return nil
}

// ValidateExtensionKey checks that a blob key is usable as a single
// file name inside the namespace directory.
func ValidateExtensionKey(key string) error {
	if key == "" {
		return errorf(KindInvalidInput, "extension key is empty")
	}
	if strings.ContainsAny(key, "/\\") {
		return errorf(KindInvalidInput, "extension key %q contains a path separator", key)
	}
	if key == "." || key == ".." {
		return errorf(KindInvalidInput, "extension key %q is not a valid file name", key)
	}
	if key == extensionManifestKey {
		return errorf(KindInvalidInput, "extension key %q is reserved for the namespace manifest", key)
	}
	return nil
}
