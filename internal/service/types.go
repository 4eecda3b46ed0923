package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when the remote resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the credential is missing, expired or rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("request timed out")
)

// Status is the completion state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// User is an account as returned by the API. UserID is the email and the
// unique account key.
type User struct {
	ID          string    `json:"id,omitempty"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	LastName    string    `json:"lastName"`
	DateOfBirth Timestamp `json:"dateBirth"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// FullName returns "Name LastName".
func (u User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.LastName)
}

// NewUser is the registration payload.
type NewUser struct {
	UserID      string
	Name        string
	LastName    string
	DateOfBirth time.Time
}

// BirthDateLayout is the wire layout of dateBirth in registration requests.
const BirthDateLayout = "02/01/2006"

// MarshalJSON encodes the registration request body.
func (n NewUser) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		UserID    string `json:"userId"`
		Name      string `json:"name"`
		LastName  string `json:"lastName"`
		DateBirth string `json:"dateBirth"`
	}{n.UserID, n.Name, n.LastName, n.DateOfBirth.Format(BirthDateLayout)})
}

// AuthResult is the reply to a login or registration.
type AuthResult struct {
	Token     string `json:"token"`
	User      User   `json:"user"`
	ExpiresIn string `json:"expiresIn"`
}

// Task is a single task item.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// TaskFields are the user-editable fields of a task. Updates always send all
// of them.
type TaskFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority"`
}

// Fields returns the editable fields of t.
func (t Task) Fields() TaskFields {
	return TaskFields{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
	}
}

// NewTask is the create payload.
type NewTask struct {
	TaskFields
	UserID string `json:"userId"`
}

// Timestamp is a point in time as the API encodes it. The server emits
// {"_seconds":n,"_nanoseconds":n} objects; older records carry strings.
type Timestamp struct {
	time.Time
}

type wireTimestamp struct {
	Seconds     int64 `json:"_seconds"`
	Nanoseconds int64 `json:"_nanoseconds"`
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02", BirthDateLayout}

// UnmarshalJSON accepts the object form, a string, or null.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			t.Time = time.Time{}
			return nil
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed
				return nil
			}
		}
		return fmt.Errorf("invalid timestamp: %q", s)
	}

	var w wireTimestamp
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	t.Time = time.Unix(w.Seconds, w.Nanoseconds).UTC()
	return nil
}

// MarshalJSON writes the object form the server uses.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(wireTimestamp{
		Seconds:     t.Unix(),
		Nanoseconds: int64(t.Nanosecond()),
	})
}
