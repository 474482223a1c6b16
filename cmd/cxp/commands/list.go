// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/cxp-foundation/cxp/cmd/cxp/cli"
	"github.com/cxp-foundation/cxp/lib/archive"
)

func listCommand() *cli.Command {
	var long bool

	return &cli.Command{
		Name:    "list",
		Summary: "List archived files in insertion order",
		Usage:   "cxp list <file.cxp> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("list", pflag.ContinueOnError)
			flagSet.BoolVarP(&long, "long", "l", false, "include size and category columns")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("list requires a <file.cxp> argument")
			}
			return runList(args[0], long)
		},
	}
}

func runList(path string, long bool) error {
	reader, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	if !long {
		for _, file := range reader.ListFiles() {
			fmt.Println(file.Path)
		}
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	for _, file := range reader.ListFiles() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", file.Path, humanize.Bytes(file.Size), file.Category)
	}
	return tw.Flush()
}
