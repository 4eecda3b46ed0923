package commands

import (
	"errors"
	"fmt"
	"io"

	"tasktrack/internal/exitcode"
	"tasktrack/internal/service"
	"tasktrack/internal/session"
	"tasktrack/internal/tasks"
)

// userErrors are rejected locally before any request is sent.
var userErrors = []error{
	session.ErrInvalidEmail,
	session.ErrMissingName,
	session.ErrMissingBirthDate,
	session.ErrFutureDate,
	session.ErrUnderage,
	tasks.ErrEmptyTitle,
	tasks.ErrTitleTooLong,
	tasks.ErrEmptyDescription,
	tasks.ErrDescriptionTooLong,
	tasks.ErrInvalidStatus,
	tasks.ErrInvalidPriority,
	tasks.ErrUnknownTask,
}

var authErrors = []error{
	service.ErrUnauthorized,
	session.ErrNotAuthenticated,
	session.ErrExpired,
	session.ErrSuperseded,
	tasks.ErrNoSession,
	tasks.ErrSuperseded,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// reportError prints err and returns the matching exit code.
func reportError(errOut io.Writer, err error) int {
	switch {
	case isAny(err, userErrors):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintln(errOut, "error: task not found")
		return exitcode.UserError
	case isAny(err, authErrors):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}
