package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"tasktrack/internal/app"
	"tasktrack/internal/config"
	"tasktrack/internal/exitcode"
	"tasktrack/internal/service"
)

func init() {
	Register(&RegisterCmd{})
}

// birthDateLayouts are accepted by --birth-date.
var birthDateLayouts = []string{"2006-01-02", service.BirthDateLayout}

// RegisterCmd implements the register command.
type RegisterCmd struct {
	name      string
	lastName  string
	birthDate string
}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return []string{"signup"} }
func (c *RegisterCmd) Synopsis() string  { return "Create an account and log in" }
func (c *RegisterCmd) Usage() string {
	return "tasktrack register [common flags] --name <name> --last-name <name> --birth-date <YYYY-MM-DD> <email>"
}
func (c *RegisterCmd) Requires() Requirement { return NeedsApp }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.name, "name", "", "")
	fs.StringVar(&c.lastName, "last-name", "", "")
	fs.StringVar(&c.birthDate, "birth-date", "", "")
}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, a *app.App, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: email required")
		return exitcode.UserError
	}

	birth, err := parseBirthDate(c.birthDate)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Registration only happens for accounts the login lookup did not find.
	exists, err := a.Session.CheckIdentity(ctx, args[0])
	if err != nil {
		return reportError(errOut, err)
	}
	if exists {
		user, _ := a.Session.Current()
		fmt.Fprintf(out, "account already exists; logged in as %s\n", user.UserID)
		return exitcode.Success
	}

	user, err := a.Session.CreateIdentity(ctx, service.NewUser{
		Name:        c.name,
		LastName:    c.lastName,
		DateOfBirth: birth,
	})
	if err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "registered and logged in as %s\n", user.UserID)
	}
	return exitcode.Success
}

// parseBirthDate parses a --birth-date value. An empty value is returned as
// the zero time so validation can report it.
func parseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid birth date: %s (want YYYY-MM-DD)", s)
}
