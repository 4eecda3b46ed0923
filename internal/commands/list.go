package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktrack/internal/app"
	"tasktrack/internal/config"
	"tasktrack/internal/exitcode"
	"tasktrack/internal/output"
	"tasktrack/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tasktrack` (no args) and `tasktrack list`.
type ListCmd struct {
	status string
}

func (c *ListCmd) Name() string          { return "list" }
func (c *ListCmd) Aliases() []string     { return []string{"ls"} }
func (c *ListCmd) Synopsis() string      { return "List tasks" }
func (c *ListCmd) Usage() string         { return "tasktrack list [common flags] [--status pending|completed]" }
func (c *ListCmd) Requires() Requirement { return NeedsLogin }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	filter := service.Status(c.status)
	if filter != "" && !filter.Valid() {
		fmt.Fprintf(errOut, "error: invalid status: %s\n", c.status)
		return exitcode.UserError
	}

	userID, _ := a.Session.UserID()
	tasks, err := a.Tasks.Hydrate(ctx, userID)
	if err != nil {
		return reportError(errOut, err)
	}

	// Numbers are positions in the full list, so they stay valid as
	// references when a filter hides some tasks.
	shown := 0
	for i, task := range tasks {
		if filter != "" && task.Status != filter {
			continue
		}
		output.FormatTask(out, i+1, task)
		shown++
	}

	if shown == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
