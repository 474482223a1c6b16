// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/cxp-foundation/cxp/cmd/cxp/cli"
	"github.com/cxp-foundation/cxp/lib/archive"
)

func queryCommand() *cli.Command {
	options := archive.DefaultQueryOptions()

	return &cli.Command{
		Name:    "query",
		Summary: "Search archived text files for a substring",
		Usage:   "cxp query <file.cxp> <needle> [flags]",
		Description: `Case-insensitive substring search over every text file in the
archive. Binary files are skipped. Matching lines print with
surrounding context, grep-style.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("query", pflag.ContinueOnError)
			flagSet.IntVar(&options.Limit, "limit", options.Limit, "maximum number of files to report")
			flagSet.IntVar(&options.Context, "context", options.Context, "context lines around each match")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("query requires <file.cxp> and <needle> arguments")
			}
			return runQuery(args[0], args[1], options)
		},
	}
}

func runQuery(archivePath, needle string, options archive.QueryOptions) error {
	reader, err := archive.Open(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	count, err := archive.Query(context.Background(), reader, needle, options, printQueryResult)
	if err != nil {
		return err
	}

	if count == 0 {
		fmt.Println("No matches found.")
		return cli.ErrNoMatches
	}
	fmt.Printf("%d file(s) matched.\n", count)
	return nil
}

func printQueryResult(result archive.QueryResult) {
	fmt.Println(result.Path)
	previous := 0
	for _, line := range result.Lines {
		// Mark gaps between merged context windows.
		if previous != 0 && line.Number != previous+1 {
			fmt.Println("  --")
		}
		previous = line.Number

		separator := '-'
		if line.IsMatch {
			separator = ':'
		}
		fmt.Printf("  %d%c %s\n", line.Number, separator, line.Text)
	}
	fmt.Println()
}
