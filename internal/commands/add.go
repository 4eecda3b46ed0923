package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasktrack/internal/app"
	"tasktrack/internal/config"
	"tasktrack/internal/exitcode"
	"tasktrack/internal/output"
	"tasktrack/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	status      string
	priority    string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "tasktrack add [common flags] --description <text> [--status <s>] [--priority <p>] <title...>"
}
func (c *AddCmd) Requires() Requirement { return NeedsLogin }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "description", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.status, "status", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	// Join args to form title
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	userID, _ := a.Session.UserID()
	if _, err := a.Tasks.Hydrate(ctx, userID); err != nil {
		return reportError(errOut, err)
	}

	task, err := a.Tasks.Create(ctx, service.TaskFields{
		Title:       title,
		Description: c.description,
		Status:      service.Status(c.status),
		Priority:    service.Priority(c.priority),
	})
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		output.FormatTaskDetail(out, task)
	}
	return exitcode.Success
}
