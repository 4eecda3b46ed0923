// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error: bad arguments, a rejected field
	// value, an unknown account or task reference.
	UserError = 1

	// AuthError indicates the session is missing, expired or was rejected
	// by the server.
	AuthError = 2

	// BackendError indicates a network failure or an unexpected reply from
	// the API.
	BackendError = 3
)
