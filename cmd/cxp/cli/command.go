// Copyright 2026 The CXP Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Command is one subcommand of the tool.
type Command struct {
	// Name is the subcommand name as typed by the user (e.g., "build").
	Name string

	// Summary is a one-line description shown in the tool's command
	// listing.
	Summary string

	// Description is a detailed multi-line description shown in the
	// command's own help output.
	Description string

	// Usage is the usage line (e.g., "cxp build <source-dir> <out.cxp>").
	// If empty, "<app> <name> [flags]" is synthesized.
	Usage string

	// Examples are shown in the command's help output.
	Examples []Example

	// Flags returns a configured *pflag.FlagSet for this command.
	// Called lazily on first use. If nil, the command takes no flags
	// and Run receives the raw args.
	Flags func() *pflag.FlagSet

	// Run executes the command with the positional args remaining
	// after flag parsing.
	Run func(args []string) error

	// app is set during dispatch, for help text and error messages.
	app *App
}

// Execute parses the command's flags and invokes Run. A mistyped flag
// gets an edit-distance suggestion against the defined flag names.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	if c.Flags != nil {
		flagSet := c.Flags()

		// Suppress pflag's own error output and usage dump; errors
		// are reformatted below with a suggestion and a help pointer.
		flagSet.SetOutput(io.Discard)

		if err := flagSet.Parse(args); err != nil {
			message := err.Error()
			if strings.Contains(message, "unknown flag") {
				// Reconstruct the flag set for suggestion lookup: the
				// failed parse may have consumed state.
				if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
					return fmt.Errorf("%s (did you mean %s?)\n\nRun '%s --help' for usage.",
						message, suggestion, c.fullName())
				}
			}
			return fmt.Errorf("%s\n\nRun '%s --help' for usage.", message, c.fullName())
		}
		args = flagSet.Args()
	}

	return c.Run(args)
}

// PrintHelp writes the command's help to w.
func (c *Command) PrintHelp(w io.Writer) {
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n\n", c.Description)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	usage := c.Usage
	if usage == "" {
		usage = c.fullName() + " [flags]"
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", usage)

	if c.Flags != nil {
		flagSet := c.Flags()
		var flagHelp strings.Builder
		flagSet.SetOutput(&flagHelp)
		flagSet.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", flagHelp.String())
		}
	}

	printExamples(w, c.Examples)
}

// fullName returns "<app> <command>" for help text and error
// messages.
func (c *Command) fullName() string {
	if c.app == nil {
		return c.Name
	}
	return c.app.Name + " " + c.Name
}
