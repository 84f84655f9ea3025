// Package cmd provides CLI commands for the wearlink binary.
package cmd

import (
	"time"

	"github.com/urfave/cli/v2"
)

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for select views (stats autosync, stats history, state last-response).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (stats, state last-response only)",
	}
)

// Node flags shared by commands that build a node.
var (
	// ConfigFlag points at wearlink.yaml.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to wearlink.yaml",
		EnvVars: []string{"WEARLINK_CONFIG"},
	}

	// RoleFlag overrides device.role.
	RoleFlag = &cli.StringFlag{
		Name:  "role",
		Usage: "Device role: phone or watch (overrides config)",
	}

	// DeviceIDFlag overrides device.id.
	DeviceIDFlag = &cli.StringFlag{
		Name:  "device-id",
		Usage: "Local node id (overrides config)",
	}

	// TimeoutFlag bounds how long a command waits for the peer.
	TimeoutFlag = &cli.DurationFlag{
		Name:  "timeout",
		Usage: "How long to wait for the peer and its response",
		Value: 10 * time.Second,
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error messages
// instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// TUIReadOnlyFlags returns flags for commands that support TUI mode.
// This is an alias for ReadOnlyFlags, kept for documentation clarity.
func TUIReadOnlyFlags() []cli.Flag {
	return ReadOnlyFlags()
}

// NodeFlags returns the config flags plus the read-only output flags.
func NodeFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{ConfigFlag, RoleFlag, DeviceIDFlag}
	flags = append(flags, ReadOnlyFlags()...)
	return append(flags, extra...)
}
