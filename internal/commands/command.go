// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"

	"tasktrack/internal/app"
	"tasktrack/internal/config"
)

// Requirement is what a command needs before it runs.
type Requirement int

const (
	// NeedsNothing commands run without client state (help, version).
	NeedsNothing Requirement = iota

	// NeedsApp commands get an App whose session may be anonymous
	// (login, register, logout).
	NeedsApp

	// NeedsLogin commands get an App with a resumed, authenticated session.
	NeedsLogin
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// Requires reports what the dispatcher must set up before Run.
	Requires() Requirement

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths).
	// a is nil if Requires() returns NeedsNothing.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int
}
