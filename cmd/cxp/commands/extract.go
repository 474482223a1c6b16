// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/cxp-foundation/cxp/cmd/cxp/cli"
	"github.com/cxp-foundation/cxp/lib/archive"
)

func extractCommand() *cli.Command {
	var singlePath string

	return &cli.Command{
		Name:    "extract",
		Summary: "Reconstruct archived files on disk",
		Usage:   "cxp extract <file.cxp> [<dest-dir>] [flags]",
		Description: `Reconstruct the archived tree under dest-dir (default: current
directory). With --path, write a single archived file to stdout
instead.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("extract", pflag.ContinueOnError)
			flagSet.StringVar(&singlePath, "path", "", "extract one logical path to stdout")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Reconstruct the whole tree",
				Command:     "cxp extract project.cxp ./restored",
			},
			{
				Description: "Print one file",
				Command:     "cxp extract project.cxp --path src/main.go",
			},
		},
		Run: func(args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("extract requires <file.cxp> and an optional <dest-dir>")
			}
			destDir := "."
			if len(args) == 2 {
				destDir = args[1]
			}
			return runExtract(args[0], destDir, singlePath)
		},
	}
}

func runExtract(archivePath, destDir, singlePath string) error {
	reader, err := archive.Open(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	if singlePath != "" {
		content, err := reader.ReadFile(singlePath)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(content)
		return err
	}

	extracted := 0
	for _, file := range reader.ListFiles() {
		// Logical paths are validated at build time, but the archive
		// on disk is untrusted input: re-check before joining so a
		// crafted file map cannot write outside destDir.
		if err := archive.ValidateLogicalPath(file.Path); err != nil {
			return err
		}

		content, err := reader.ReadFile(file.Path)
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %q: %w", file.Path, err)
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return fmt.Errorf("writing %q: %w", target, err)
		}
		extracted++
	}

	fmt.Printf("Extracted %d files to %s\n", extracted, destDir)
	return nil
}
