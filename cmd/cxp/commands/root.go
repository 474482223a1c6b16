// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the cxp command tree: building archives
// from source trees and inspecting, extracting, and searching them.
package commands

import (
	"github.com/cxp-foundation/cxp/cmd/cxp/cli"
)

// Root returns the cxp tool with all subcommands.
func Root() *cli.App {
	return &cli.App{
		Name:    "cxp",
		Summary: "Package a source tree into a single searchable context archive",
		Description: `cxp packages a directory tree of source files into a single
self-contained archive with chunk-level deduplication and per-chunk
compression. Archives are built once and then read-only: list,
extract, and query never modify them.`,
		Commands: []*cli.Command{
			buildCommand(),
			infoCommand(),
			listCommand(),
			extractCommand(),
			queryCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Package a repository",
				Command:     "cxp build ./myproject myproject.cxp",
			},
			{
				Description: "Show archive statistics",
				Command:     "cxp info myproject.cxp",
			},
			{
				Description: "Search the archive for a string",
				Command:     "cxp query myproject.cxp \"func main\" --limit 5 --context 2",
			},
		},
	}
}
