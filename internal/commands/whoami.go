package commands

import (
	"context"
	"flag"
	"io"

	"tasktrack/internal/app"
	"tasktrack/internal/config"
	"tasktrack/internal/exitcode"
	"tasktrack/internal/output"
)

func init() {
	Register(&WhoamiCmd{})
}

// WhoamiCmd implements the whoami command.
type WhoamiCmd struct{}

func (c *WhoamiCmd) Name() string          { return "whoami" }
func (c *WhoamiCmd) Aliases() []string     { return nil }
func (c *WhoamiCmd) Synopsis() string      { return "Print the logged-in user" }
func (c *WhoamiCmd) Usage() string         { return "tasktrack whoami [common flags]" }
func (c *WhoamiCmd) Requires() Requirement { return NeedsLogin }

func (c *WhoamiCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *WhoamiCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	user, _ := a.Session.Current()
	output.FormatUser(out, user)
	return exitcode.Success
}
