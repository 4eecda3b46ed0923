// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tasktrack/internal/service"
)

// DateLayout is how creation dates are shown.
const DateLayout = "02/01/2006 15:04"

// FormatTask formats a task line.
// Format: "{N:>4}  {MARK} {TITLE}  {PRIORITY}  {CREATED}\n", where MARK is
// "[ ]" for pending and "[x]" for completed tasks.
func FormatTask(w io.Writer, num int, task service.Task) {
	line := fmt.Sprintf("%4d  %s %s  %s", num, StatusMark(task.Status), normalizeTitle(task.Title), PriorityLabel(task.Priority))
	if !task.CreatedAt.IsZero() {
		line += "  " + task.CreatedAt.Local().Format(DateLayout)
	}
	fmt.Fprintln(w, line)
}

// FormatTaskDetail formats a task with its description, as printed after
// add and edit.
func FormatTaskDetail(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%s %s\n", StatusMark(task.Status), normalizeTitle(task.Title))
	fmt.Fprintf(w, "      %s\n", normalizeTitle(task.Description))
	fmt.Fprintf(w, "      %s, %s, id:%s\n", StatusLabel(task.Status), PriorityLabel(task.Priority), task.ID)
}

// FormatUser formats the logged-in user.
// Format: "{NAME} {LASTNAME} <{EMAIL}>\n"
func FormatUser(w io.Writer, user service.User) {
	name := user.FullName()
	if name == "" {
		fmt.Fprintln(w, user.UserID)
		return
	}
	fmt.Fprintf(w, "%s <%s>\n", name, user.UserID)
}

// StatusMark returns the checkbox shown in front of a task.
func StatusMark(s service.Status) string {
	if s == service.StatusCompleted {
		return "[x]"
	}
	return "[ ]"
}

// StatusLabel returns the display label of a status.
func StatusLabel(s service.Status) string {
	switch s {
	case service.StatusPending:
		return "pending"
	case service.StatusCompleted:
		return "completed"
	}
	return string(s)
}

// PriorityLabel returns the display label of a priority.
func PriorityLabel(p service.Priority) string {
	switch p {
	case service.PriorityHigh:
		return "high priority"
	case service.PriorityMedium:
		return "medium priority"
	case service.PriorityLow:
		return "low priority"
	}
	return string(p)
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
