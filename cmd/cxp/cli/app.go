// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command-line harness for the cxp tool: a
// flat list of subcommands dispatched by name, pflag-based flag
// parsing, tabwriter help output, and did-you-mean suggestions for
// mistyped commands and flags. cxp has no nested subcommands, so the
// harness deliberately has no command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
)

// App is the root of the tool: its identity plus the flat set of
// subcommands.
type App struct {
	// Name is the binary name (e.g., "cxp").
	Name string

	// Summary is a one-line description of the tool.
	Summary string

	// Description is the detailed text shown at the top of the
	// tool-level help.
	Description string

	// Commands are the subcommands, dispatched by their Name.
	Commands []*Command

	// Examples are shown in the tool-level help output.
	Examples []Example
}

// Example is a usage example shown in help output.
type Example struct {
	// Description explains what the example does.
	Description string
	// Command is the literal command line.
	Command string
}

// Execute dispatches args to the named subcommand. Unknown names get
// an edit-distance suggestion against the command set.
func (a *App) Execute(args []string) error {
	if len(args) == 0 {
		a.PrintHelp(os.Stderr)
		return fmt.Errorf("command required")
	}
	if isHelpFlag(args[0]) {
		a.PrintHelp(os.Stderr)
		return nil
	}

	name := args[0]
	for _, command := range a.Commands {
		if command.Name == name {
			command.app = a
			return command.Execute(args[1:])
		}
	}

	if suggestion := closest(name, a.commandNames()); suggestion != "" {
		return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
			name, suggestion, a.Name)
	}
	return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", name, a.Name)
}

// PrintHelp writes the tool-level help to w.
func (a *App) PrintHelp(w io.Writer) {
	if a.Description != "" {
		fmt.Fprintf(w, "%s\n\n", a.Description)
	} else if a.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", a.Summary)
	}

	fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n\nCommands:\n", a.Name)
	tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
	for _, command := range a.Commands {
		fmt.Fprintf(tw, "  %s\t%s\n", command.Name, command.Summary)
	}
	tw.Flush()

	printExamples(w, a.Examples)
	fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", a.Name)
}

// commandNames returns the subcommand names for suggestion lookup.
func (a *App) commandNames() []string {
	names := make([]string, len(a.Commands))
	for i, command := range a.Commands {
		names[i] = command.Name
	}
	return names
}

// printExamples renders an example block, shared by tool-level and
// command-level help.
func printExamples(w io.Writer, examples []Example) {
	if len(examples) == 0 {
		return
	}
	fmt.Fprintf(w, "\nExamples:\n")
	for _, example := range examples {
		if example.Description != "" {
			fmt.Fprintf(w, "  # %s\n", example.Description)
		}
		fmt.Fprintf(w, "  %s\n", example.Command)
	}
}

// isHelpFlag returns true for common help flag variants.
func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
