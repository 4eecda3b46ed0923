package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktrack/internal/app"
	"tasktrack/internal/config"
	"tasktrack/internal/exitcode"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd implements the login command.
type LoginCmd struct{}

func (c *LoginCmd) Name() string          { return "login" }
func (c *LoginCmd) Aliases() []string     { return nil }
func (c *LoginCmd) Synopsis() string      { return "Log in with your email" }
func (c *LoginCmd) Usage() string         { return "tasktrack login [common flags] <email>" }
func (c *LoginCmd) Requires() Requirement { return NeedsApp }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}
	email := args[0]

	exists, err := a.Session.CheckIdentity(ctx, email)
	if err != nil {
		return reportError(errOut, err)
	}
	if !exists {
		fmt.Fprintf(errOut, "error: no account for %s (run: tasktrack register %s)\n", a.Session.PendingEmail(), a.Session.PendingEmail())
		return exitcode.UserError
	}

	if !cfg.Quiet {
		user, _ := a.Session.Current()
		fmt.Fprintf(out, "logged in as %s\n", user.UserID)
	}
	return exitcode.Success
}
