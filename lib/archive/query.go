// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"io"
	"sort"
	"strings"
	"unicode/utf8"
)

// QueryOptions control a text scan over an archive.
type QueryOptions struct {
	// Limit is the maximum number of files with at least one hit to
	// emit. Zero emits nothing; negative is invalid.
	Limit int

	// Context is the number of lines of context included before and
	// after each matching line, clamped at file boundaries. Negative
	// is invalid.
	Context int
}

// DefaultQueryOptions returns the standard scan parameters.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Limit: 10, Context: 2}
}

// QueryLine is one emitted line of a query result.
type QueryLine struct {
	// Number is the 1-based line number within the file.
	Number int

	// Text is the line without its trailing newline.
	Text string

	// IsMatch marks lines that contain the needle; the others are
	// context.
	IsMatch bool
}

// QueryResult is the per-file payload handed to the sink: the file's
// logical path and its matching lines with surrounding context, in
// line order. Overlapping context windows are merged.
type QueryResult struct {
	Path  string
	Lines []QueryLine
}

// Query streams every text file of an opened archive through a
// case-insensitive substring scan for needle. Files are visited in
// sorted-path order; files whose contents are not valid UTF-8 are
// skipped silently (binary files are expected in a source tree, not
// an error). For each file with at least one matching LF-delimited
// line, one QueryResult is sent to the sink. Scanning stops once
// opts.Limit files have been emitted, or when ctx is cancelled — in
// which case the count of files emitted so far is returned alongside
// the Cancelled error.
func Query(ctx context.Context, reader *Reader, needle string, opts QueryOptions, sink func(QueryResult)) (int, error) {
	if needle == "" {
		return 0, errorf(KindInvalidInput, "query needle is empty")
	}
	if opts.Limit < 0 {
		return 0, errorf(KindInvalidInput, "query limit %d is negative", opts.Limit)
	}
	if opts.Context < 0 {
		return 0, errorf(KindInvalidInput, "query context %d is negative", opts.Context)
	}
	if opts.Limit == 0 {
		return 0, nil
	}

	paths := make([]string, 0, reader.fileMap.Len())
	for _, entry := range reader.fileMap.Entries() {
		paths = append(paths, entry.Path)
	}
	sort.Strings(paths)

	lowerNeedle := strings.ToLower(needle)

	emitted := 0
	for _, path := range paths {
		if err := cancelled(ctx); err != nil {
			return emitted, err
		}

		content, err := readFull(reader, path)
		if err != nil {
			return emitted, err
		}
		if !utf8.Valid(content) {
			continue
		}

		lines := splitLines(string(content))
		matched := matchLines(lines, lowerNeedle)
		if len(matched) == 0 {
			continue
		}

		sink(QueryResult{
			Path:  path,
			Lines: contextWindow(lines, matched, opts.Context),
		})
		emitted++
		if emitted >= opts.Limit {
			break
		}
	}
	return emitted, nil
}

// readFull drains a file stream into one buffer. The scan needs the
// whole file anyway: UTF-8 validity and line boundaries cannot be
// decided per chunk, because chunk cuts land mid-rune and mid-line.
func readFull(reader *Reader, path string) ([]byte, error) {
	stream, err := reader.StreamFile(path)
	if err != nil {
		return nil, err
	}
	var content []byte
	for {
		payload, err := stream.Next()
		if err == io.EOF {
			return content, nil
		}
		if err != nil {
			return nil, err
		}
		content = append(content, payload...)
	}
}

// splitLines splits on LF, preserving a final partial line. A
// trailing newline does not produce an empty final line; an empty
// file has no lines.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// matchLines returns the 0-based indexes of lines containing the
// lowercase needle, case-insensitively.
func matchLines(lines []string, lowerNeedle string) []int {
	var matched []int
	for i, line := range lines {
		if strings.Contains(strings.ToLower(line), lowerNeedle) {
			matched = append(matched, i)
		}
	}
	return matched
}

// contextWindow expands each matched line index by the context radius,
// merges overlapping windows, and renders the union as ordered
// QueryLines with 1-based numbering.
func contextWindow(lines []string, matched []int, context int) []QueryLine {
	isMatch := make(map[int]bool, len(matched))
	include := make(map[int]bool)
	for _, index := range matched {
		isMatch[index] = true
		low := index - context
		if low < 0 {
			low = 0
		}
		high := index + context
		if high > len(lines)-1 {
			high = len(lines) - 1
		}
		for i := low; i <= high; i++ {
			include[i] = true
		}
	}

	indexes := make([]int, 0, len(include))
	for index := range include {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)

	result := make([]QueryLine, len(indexes))
	for i, index := range indexes {
		result[i] = QueryLine{
			Number:  index + 1,
			Text:    lines[index],
			IsMatch: isMatch[index],
		}
	}
	return result
}
