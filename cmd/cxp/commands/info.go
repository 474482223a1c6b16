// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/cxp-foundation/cxp/cmd/cxp/cli"
	"github.com/cxp-foundation/cxp/lib/archive"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:    "info",
		Summary: "Show archive statistics",
		Usage:   "cxp info <file.cxp>",
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("info requires a <file.cxp> argument")
			}
			return runInfo(args[0])
		},
	}
}

func runInfo(path string) error {
	reader, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	manifest := reader.Manifest()
	stats := manifest.Stats

	fmt.Printf("Version:       %s\n", manifest.Version)
	fmt.Printf("Created:       %s\n", manifest.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Println()
	fmt.Printf("Files:         %d\n", stats.TotalFiles)
	fmt.Printf("Unique chunks: %d\n", stats.UniqueChunks)
	fmt.Printf("Original size: %s\n", humanize.Bytes(stats.OriginalSizeBytes))
	fmt.Printf("Packed size:   %s\n", humanize.Bytes(stats.PackedSizeBytes))
	fmt.Printf("Compression:   %.1f%%\n", stats.CompressionRatio*100)
	fmt.Printf("Dedup savings: %.1f%%\n", stats.DedupSavingsPercent)

	if len(manifest.FileTypes) > 0 {
		fmt.Println()
		fmt.Println("File types:")

		type typeRow struct {
			extension string
			info      archive.FileTypeInfo
		}
		rows := make([]typeRow, 0, len(manifest.FileTypes))
		for extension, info := range manifest.FileTypes {
			rows = append(rows, typeRow{extension, info})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].info.Count != rows[j].info.Count {
				return rows[i].info.Count > rows[j].info.Count
			}
			return rows[i].extension < rows[j].extension
		})

		tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
		for _, row := range rows {
			label := row.extension
			if label == "" {
				label = "(none)"
			} else {
				label = "." + label
			}
			fmt.Fprintf(tw, "  %s\t%s\t%d files\t%s\n",
				label, row.info.Description, row.info.Count, humanize.Bytes(row.info.TotalBytes))
		}
		tw.Flush()
	}

	if len(manifest.Extensions) > 0 {
		fmt.Println()
		fmt.Printf("Extensions:    %s\n", strings.Join(manifest.Extensions, ", "))
	}
	if manifest.EmbeddingModel != "" {
		fmt.Println()
		fmt.Printf("Embeddings:    %s (%d dimensions)\n", manifest.EmbeddingModel, manifest.EmbeddingDim)
	}
	return nil
}
