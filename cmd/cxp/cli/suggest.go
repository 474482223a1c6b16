// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// closest returns the candidate with the smallest edit distance to
// unknown, or "" when nothing is within distance 3. The threshold
// catches transpositions, dropped characters, and fat-fingered extras
// without suggesting unrelated names. Used for both subcommand and
// flag suggestions.
func closest(unknown string, candidates []string) string {
	const threshold = 3

	best := ""
	bestDistance := threshold + 1
	for _, candidate := range candidates {
		if distance := editDistance(unknown, candidate); distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}
	return best
}

// suggestFlag finds the first flag-shaped arg that is not defined in
// flagSet and returns the closest defined flag name with its -- or -
// prefix, or "" if no good suggestion exists.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var defined []string
	flagSet.VisitAll(func(flag *pflag.Flag) {
		defined = append(defined, flag.Name)
	})
	definedSet := make(map[string]struct{}, len(defined))
	for _, name := range defined {
		definedSet[name] = struct{}{}
	}

	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if equals := strings.IndexByte(name, '='); equals >= 0 {
			name = name[:equals]
		}
		if _, ok := definedSet[name]; ok {
			continue
		}

		// Only the first unrecognized flag gets a suggestion.
		match := closest(name, defined)
		if match == "" {
			return ""
		}
		if len(match) == 1 {
			return "-" + match
		}
		return "--" + match
	}
	return ""
}

// editDistance computes the Levenshtein distance between two strings:
// the minimum number of single-character insertions, deletions, or
// substitutions turning one into the other. Single-row dynamic
// program with a tracked diagonal, O(min(m,n)) space with no
// per-column allocation.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}
	if len(a) == 0 {
		return len(b)
	}

	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}

	for j := 1; j <= len(b); j++ {
		diagonal := row[0]
		row[0] = j

		for i := 1; i <= len(a); i++ {
			substitution := diagonal
			if a[i-1] != b[j-1] {
				substitution++
			}
			deletion := row[i] + 1
			insertion := row[i-1] + 1

			diagonal = row[i]
			row[i] = min(substitution, min(deletion, insertion))
		}
	}
	return row[len(a)]
}
