// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"github.com/cxp-foundation/cxp/cmd/cxp/cli"
	"github.com/cxp-foundation/cxp/lib/archive"
	"github.com/cxp-foundation/cxp/lib/scanner"
)

func buildCommand() *cli.Command {
	var (
		verbose    bool
		configPath string
	)

	return &cli.Command{
		Name:    "build",
		Summary: "Package a source directory into an archive",
		Usage:   "cxp build <source-dir> <out.cxp> [flags]",
		Description: `Scan a source directory for text files and package them into a
single archive. Dependency directories, build output, caches, and
lockfiles are skipped. An optional ` + scanner.ConfigFileName + ` in the source
root adds include/exclude patterns and a per-file size cap.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("build", pflag.ContinueOnError)
			flagSet.BoolVarP(&verbose, "verbose", "v", false, "log per-file progress to stderr")
			flagSet.StringVar(&configPath, "config", "", "scanner config file (default: <source-dir>/"+scanner.ConfigFileName+")")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Package the current directory",
				Command:     "cxp build . project.cxp",
			},
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("build requires <source-dir> and <out.cxp> arguments")
			}
			return runBuild(args[0], args[1], configPath, verbose)
		},
	}
}

func runBuild(sourceDir, outPath, configPath string, verbose bool) error {
	config, err := loadScannerConfig(sourceDir, configPath)
	if err != nil {
		return err
	}

	entries, err := scanner.Scan(sourceDir, config)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	builder := archive.NewBuilder(archive.WithLogger(logger))
	for _, entry := range entries {
		err := builder.AddFile(entry.LogicalPath, archive.FileSource(entry.AbsPath),
			archive.WithModTime(entry.ModTime))
		if err != nil {
			return err
		}
	}

	report, err := builder.Build(context.Background(), outPath)
	if err != nil {
		return err
	}

	fmt.Printf("Packaged %d files into %s\n", report.Files, outPath)
	fmt.Printf("  Original:  %s\n", humanize.Bytes(report.OriginalSizeBytes))
	fmt.Printf("  Archive:   %s\n", humanize.Bytes(uint64(report.ArchiveSizeBytes)))
	fmt.Printf("  Chunks:    %d unique of %d total\n", report.UniqueChunks, report.TotalChunks)
	fmt.Printf("  Dedup:     %.1f%% saved\n", report.DedupSavingsPercent)
	fmt.Printf("  Duration:  %s\n", report.Duration.Round(time.Millisecond))
	return nil
}

func loadScannerConfig(sourceDir, configPath string) (*scanner.Config, error) {
	if configPath != "" {
		return scanner.LoadConfig(configPath)
	}
	return scanner.FindConfig(sourceDir)
}
