// Package cmd provides CLI commands for the peerdialog binary.
package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/peerdialog/cli/config"
)

// Shared output flags.
var (
	// FormatFlag selects output format: plain, json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: plain, json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// ConfigFlag points at a peerdialog.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to peerdialog.yaml (default: discovered)",
		EnvVars: []string{config.EnvConfig},
	}

	// JournalFlag overrides the journal path from the config.
	JournalFlag = &cli.StringFlag{
		Name:  "journal",
		Usage: "Journal location (fs: directory, s3: bucket/prefix)",
	}
)

// OutputFlags returns the flags shared by every command that renders.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
	}
}

// DialogFlags returns the flags of the dialog commands. Values left unset
// fall back to the config file.
func DialogFlags() []cli.Flag {
	return append(OutputFlags(),
		ConfigFlag,
		// Request flags
		&cli.StringFlag{
			Name:  "title",
			Usage: "Dialog title (default depends on the command)",
		},
		&cli.StringFlag{
			Name:    "path",
			Aliases: []string{"p"},
			Usage:   "Initial directory and/or file name; a trailing separator marks a directory",
		},
		&cli.StringSliceFlag{
			Name:  "filter",
			Usage: "File filter: a preset name or \"Name:ext1,ext2\" (repeatable)",
		},
		&cli.StringFlag{
			Name:  "app-name",
			Usage: "Application name shown by the peer",
		},
		// Peer flags
		&cli.StringFlag{
			Name:  "peer",
			Usage: "Path to the peer executable (skips installation)",
		},
		&cli.StringFlag{
			Name:  "toolkit",
			Usage: "Peer toolkit: native or zenity (default: auto)",
		},
		&cli.BoolFlag{
			Name:  "no-peer",
			Usage: "Always use the terminal dialog",
		},
		&cli.DurationFlag{
			Name:  "startup-timeout",
			Usage: "Bound on the wait for the peer's first output",
		},
		&cli.DurationFlag{
			Name:  "latch-timeout",
			Usage: "Bound on the wait for the blocker to appear",
		},
		&cli.IntFlag{
			Name:  "debug",
			Usage: "Peer trace level (0 off, 1 info, 2 verbose)",
		},
		// Result flags
		&cli.BoolFlag{
			Name:  "clipboard",
			Usage: "Copy the selected paths to the clipboard",
		},
		&cli.BoolFlag{
			Name:  "no-notify",
			Usage: "Do not publish the selection event",
		},
		JournalFlag,
	)
}
