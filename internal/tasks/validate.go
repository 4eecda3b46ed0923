package tasks

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"tasktrack/internal/service"
)

// Field validation errors. They are returned before any request is sent.
var (
	ErrEmptyTitle         = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title is too long")
	ErrEmptyDescription   = errors.New("description is required")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidPriority    = errors.New("invalid priority")
)

// Limits bounds task text fields, counted in characters.
type Limits struct {
	Title       int
	Description int
}

// Normalize trims f, fills in the default status and priority, and checks
// every field against l.
func (l Limits) Normalize(f service.TaskFields) (service.TaskFields, error) {
	return l.normalize(f, nil)
}

// NormalizeChange is Normalize for an edit of prev. Length limits apply only
// to text that differs from prev, so a task stored before the limits were
// tightened can still change status or priority.
func (l Limits) NormalizeChange(f, prev service.TaskFields) (service.TaskFields, error) {
	return l.normalize(f, &prev)
}

func (l Limits) normalize(f service.TaskFields, prev *service.TaskFields) (service.TaskFields, error) {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)

	if f.Title == "" {
		return f, ErrEmptyTitle
	}
	titleChanged := prev == nil || f.Title != strings.TrimSpace(prev.Title)
	if n := utf8.RuneCountInString(f.Title); titleChanged && l.Title > 0 && n > l.Title {
		return f, fmt.Errorf("%w: %d characters, at most %d allowed", ErrTitleTooLong, n, l.Title)
	}
	if f.Description == "" {
		return f, ErrEmptyDescription
	}
	descChanged := prev == nil || f.Description != strings.TrimSpace(prev.Description)
	if n := utf8.RuneCountInString(f.Description); descChanged && l.Description > 0 && n > l.Description {
		return f, fmt.Errorf("%w: %d characters, at most %d allowed", ErrDescriptionTooLong, n, l.Description)
	}

	if f.Status == "" {
		f.Status = service.StatusPending
	}
	if !f.Status.Valid() {
		return f, fmt.Errorf("%w: %q (want pending or completed)", ErrInvalidStatus, f.Status)
	}
	if f.Priority == "" {
		f.Priority = service.PriorityMedium
	}
	if !f.Priority.Valid() {
		return f, fmt.Errorf("%w: %q (want low, medium or high)", ErrInvalidPriority, f.Priority)
	}
	return f, nil
}
