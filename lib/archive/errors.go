// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"errors"
	"fmt"
)

// Kind classifies an archive error. Every error returned by this
// package carries exactly one kind; callers branch on it with
// [KindOf] or errors.Is against a kind-only target (&Error{Kind: k}).
type Kind int

const (
	// KindIO is an underlying filesystem failure (open, read, write,
	// rename).
	KindIO Kind = iota + 1

	// KindFormatVersion means the archive's major format version is
	// incompatible with this reader.
	KindFormatVersion

	// KindCorrupt means a member is missing, unreadable, decompresses
	// to the wrong length, or deserializes with a schema violation.
	KindCorrupt

	// KindSerialization is a failure to encode a manifest, file map,
	// or extension manifest during build.
	KindSerialization

	// KindCompression is an invalid or truncated Zstandard frame.
	KindCompression

	// KindNotFound means the requested logical file or extension key
	// is not present in the archive.
	KindNotFound

	// KindInvalidInput means the caller supplied an unusable path, a
	// duplicate namespace, an unsafe extension key, or a negative
	// query limit.
	KindInvalidInput

	// KindCancelled means cooperative cancellation fired.
	KindCancelled
)

// String returns the human-readable name of an error kind.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormatVersion:
		return "format version"
	case KindCorrupt:
		return "corrupt"
	case KindSerialization:
		return "serialization"
	case KindCompression:
		return "compression"
	case KindNotFound:
		return "not found"
	case KindInvalidInput:
		return "invalid input"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Error is the typed error returned by every fallible operation in
// this package. The message always identifies the offending path or
// archive member.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so that errors.Is(err, &Error{Kind: k})
// matches any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// KindOf returns the kind of err, or 0 if err does not carry one.
func KindOf(err error) Kind {
	var archiveError *Error
	if errors.As(err, &archiveError) {
		return archiveError.Kind
	}
	return 0
}

// errorf builds an *Error with a formatted message and no cause.
func errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// wrapf builds an *Error that wraps cause with a formatted message.
func wrapf(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}
