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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string          { return "help" }
func (c *HelpCmd) Aliases() []string     { return nil }
func (c *HelpCmd) Synopsis() string      { return "Print usage" }
func (c *HelpCmd) Usage() string         { return "tasktrack help" }
func (c *HelpCmd) Requires() Requirement { return NeedsNothing }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  tasktrack                                          List tasks
  tasktrack list [common flags] [--status <s>]       List tasks
  tasktrack add [common flags] --description <text> [--status <s>] [--priority <p>] <title...>
  tasktrack create [common flags] --description <text> [--status <s>] [--priority <p>] <title...>
  tasktrack edit [common flags] [--title <t>] [--description <d>] [--status <s>] [--priority <p>] <ref>
  tasktrack done [common flags] <ref>
  tasktrack rm [common flags] <ref>
  tasktrack login [common flags] <email>
  tasktrack register [common flags] --name <name> --last-name <name> --birth-date <YYYY-MM-DD> <email>
  tasktrack whoami [common flags]
  tasktrack logout [common flags]
  tasktrack help
  tasktrack version

Task references:
  <n>              Position as printed by list
  id:<id>          Server id

Values:
  --status         pending, completed
  --priority       low, medium, high

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
