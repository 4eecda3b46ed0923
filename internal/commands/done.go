package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasktrack/internal/app"
	"tasktrack/internal/config"
	"tasktrack/internal/exitcode"
	"tasktrack/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string          { return "done" }
func (c *DoneCmd) Aliases() []string     { return nil }
func (c *DoneCmd) Synopsis() string      { return "Mark a task completed" }
func (c *DoneCmd) Usage() string         { return "tasktrack done [common flags] <ref>" }
func (c *DoneCmd) Requires() Requirement { return NeedsLogin }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	return withTask(ctx, a, args, errOut, func(task service.Task) int {
		if task.Status == service.StatusCompleted {
			if !cfg.Quiet {
				fmt.Fprintln(out, "already completed")
			}
			return exitcode.Success
		}

		fields := task.Fields()
		fields.Status = service.StatusCompleted
		if _, err := a.Tasks.Update(ctx, task.ID, fields); err != nil {
			return reportError(errOut, err)
		}

		if !cfg.Quiet {
			fmt.Fprintln(out, "ok")
		}
		return exitcode.Success
	})
}
