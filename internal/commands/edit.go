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
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only the fields given as flags
// change; the rest are sent back as they are.
type EditCmd struct {
	title       optionalString
	description optionalString
	status      optionalString
	priority    optionalString
}

// optionalString is a flag value that remembers whether it was set.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(s string) error {
	o.value = s
	o.set = true
	return nil
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task" }
func (c *EditCmd) Usage() string {
	return "tasktrack edit [common flags] [--title <t>] [--description <d>] [--status <s>] [--priority <p>] <ref>"
}
func (c *EditCmd) Requires() Requirement { return NeedsLogin }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
	fs.Var(&c.status, "status", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if !c.title.set && !c.description.set && !c.status.set && !c.priority.set {
		fmt.Fprintln(errOut, "error: nothing to change (use --title, --description, --status or --priority)")
		return exitcode.UserError
	}

	return withTask(ctx, a, args, errOut, func(task service.Task) int {
		fields := task.Fields()
		if c.title.set {
			fields.Title = c.title.value
		}
		if c.description.set {
			fields.Description = c.description.value
		}
		if c.status.set {
			fields.Status = service.Status(c.status.value)
		}
		if c.priority.set {
			fields.Priority = service.Priority(c.priority.value)
		}

		updated, err := a.Tasks.Update(ctx, task.ID, fields)
		if err != nil {
			return reportError(errOut, err)
		}
		if !cfg.Quiet {
			output.FormatTaskDetail(out, updated)
		}
		return exitcode.Success
	})
}

// withTask hydrates the cache, resolves the task reference in args and runs
// fn on the task.
func withTask(ctx context.Context, a *app.App, args []string, errOut io.Writer, fn func(service.Task) int) int {
	userID, _ := a.Session.UserID()
	if _, err := a.Tasks.Hydrate(ctx, userID); err != nil {
		return reportError(errOut, err)
	}

	task, err := parseAndFind(a.Tasks, args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return fn(task)
}
