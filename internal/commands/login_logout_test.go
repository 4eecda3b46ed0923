package commands_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tasktrack/internal/app"
	"tasktrack/internal/commands"
	"tasktrack/internal/config"
	"tasktrack/internal/credential"
	"tasktrack/internal/exitcode"
	"tasktrack/internal/testutil"
)

// TestLoginCommand_NoEmail verifies login requires an email argument
func TestLoginCommand_NoEmail(t *testing.T) {
	a := newApp(t, testutil.NewFakeService(), "")

	stdout, stderr, code := runCommand(t, &commands.LoginCmd{}, a, nil, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: email required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

// TestLoginCommand_InvalidEmail verifies malformed emails never reach the API
func TestLoginCommand_InvalidEmail(t *testing.T) {
	svc := testutil.NewFakeService()
	a := newApp(t, svc, "")

	_, stderr, code := runCommand(t, &commands.LoginCmd{}, a, []string{"not-an-email"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: invalid email address\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if n := svc.Calls(testutil.MethodLogin); n != 0 {
		t.Errorf("expected no login request, got %d", n)
	}
}

// TestLoginCommand_PersistsToken verifies login writes token.json with mode 0600
func TestLoginCommand_PersistsToken(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice@example.com", "Alice", "Smith")
	tmpDir := t.TempDir()
	cfg := config.Default(tmpDir)
	a := app.NewWithService(svc, credential.NewFile(cfg.TokenPath()), cfg, nil)

	stdout, stderr, code := runCommand(t, &commands.LoginCmd{}, a, []string{" alice@example.com "}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "logged in as alice@example.com\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}

	info, err := os.Stat(filepath.Join(tmpDir, "token.json"))
	if err != nil {
		t.Fatalf("token.json not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600, got %o", info.Mode().Perm())
	}
	data, _ := os.ReadFile(filepath.Join(tmpDir, "token.json"))
	if !strings.Contains(string(data), `"userId": "alice@example.com"`) {
		t.Errorf("expected userId in token.json, got %s", data)
	}
}

// TestLoginCommand_FailedLookup verifies a failed lookup is reported as a missing account
func TestLoginCommand_FailedLookup(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.LoginErr = errors.New("connection refused")
	a := newApp(t, svc, "")

	_, stderr, code := runCommand(t, &commands.LoginCmd{}, a, []string{"alice@example.com"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	want := "error: no account for alice@example.com (run: tasktrack register alice@example.com)\n"
	if stderr != want {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if got := a.Session.PendingEmail(); got != "alice@example.com" {
		t.Errorf("expected pending email, got %q", got)
	}
}

// TestRegisterCommand_ExistingAccount verifies register logs in when the account exists
func TestRegisterCommand_ExistingAccount(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddUser("alice@example.com", "Alice", "Smith")
	a := newApp(t, svc, "")

	stdout, _, code := runCommand(t, &commands.RegisterCmd{}, a,
		[]string{"--name", "A", "--last-name", "S", "--birth-date", "1990-01-01", "alice@example.com"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "account already exists; logged in as alice@example.com\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if n := svc.Calls(testutil.MethodCreateUser); n != 0 {
		t.Errorf("expected no registration request, got %d", n)
	}
}

// TestRegisterCommand_Underage verifies the minimum age is enforced before any request
func TestRegisterCommand_Underage(t *testing.T) {
	svc := testutil.NewFakeService()
	a := newApp(t, svc, "")
	birth := time.Now().AddDate(-17, 0, 0).Format("2006-01-02")

	_, stderr, code := runCommand(t, &commands.RegisterCmd{}, a,
		[]string{"--name", "Teen", "--last-name", "Ager", "--birth-date", birth, "teen@example.com"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: must be at least 18 years old\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if n := svc.Calls(testutil.MethodCreateUser); n != 0 {
		t.Errorf("expected no registration request, got %d", n)
	}
}

// TestRegisterCommand_DayFirstDate verifies dd/mm/yyyy birth dates are accepted
func TestRegisterCommand_DayFirstDate(t *testing.T) {
	svc := testutil.NewFakeService()
	a := newApp(t, svc, "")

	_, stderr, code := runCommand(t, &commands.RegisterCmd{}, a,
		[]string{"--name", "New", "--last-name", "Person", "--birth-date", "04/05/1990", "new@example.com"}, true)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	user, ok := a.Session.Current()
	if !ok {
		t.Fatal("expected to be logged in")
	}
	if user.DateOfBirth.Month() != time.May || user.DateOfBirth.Day() != 4 {
		t.Errorf("expected 4 May, got %v", user.DateOfBirth.Time)
	}
}

// TestLogoutCommand_RemovesToken verifies logout clears the stored credential and the cache
func TestLogoutCommand_RemovesToken(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("alice@example.com", "a", "first")
	a := newApp(t, svc, "alice@example.com")

	stdout, _, code := runCommand(t, &commands.LogoutCmd{}, a, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if _, ok, _ := a.Credentials.Load(); ok {
		t.Error("expected credential removed")
	}
	if _, ok := a.Session.Current(); ok {
		t.Error("expected no identity")
	}
	if len(a.Tasks.Tasks()) != 0 {
		t.Error("expected empty task cache")
	}
	if _, err := a.Session.Token(); err == nil {
		t.Error("expected no credential")
	}
}

// TestLogoutCommand_NotLoggedIn verifies logout without a stored credential
func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	a := newApp(t, testutil.NewFakeService(), "")

	stdout, _, code := runCommand(t, &commands.LogoutCmd{}, a, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "not logged in\n" {
		t.Errorf("expected 'not logged in', got %q", stdout)
	}
}

// TestLogoutCommand_CorruptToken verifies logout removes an unreadable token.json
func TestLogoutCommand_CorruptToken(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.Default(tmpDir)
	if err := os.WriteFile(cfg.TokenPath(), []byte("garbage"), 0600); err != nil {
		t.Fatalf("failed to write token.json: %v", err)
	}
	a := app.NewWithService(testutil.NewFakeService(), credential.NewFile(cfg.TokenPath()), cfg, nil)

	_, _, code := runCommand(t, &commands.LogoutCmd{}, a, nil, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if _, err := os.Stat(cfg.TokenPath()); !os.IsNotExist(err) {
		t.Error("expected token.json removed")
	}
}
