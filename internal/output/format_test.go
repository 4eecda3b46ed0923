package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"tasktrack/internal/service"
)

func TestFormatTask(t *testing.T) {
	var buf bytes.Buffer
	FormatTask(&buf, 3, service.Task{
		ID:       "t1",
		Title:    "Buy milk",
		Status:   service.StatusCompleted,
		Priority: service.PriorityLow,
	})

	want := "   3  [x] Buy milk  low priority\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFormatTask_WithDate(t *testing.T) {
	created := time.Date(2026, 10, 19, 9, 30, 0, 0, time.Local)
	var buf bytes.Buffer
	FormatTask(&buf, 1, service.Task{
		Title:     "Buy milk",
		Status:    service.StatusPending,
		Priority:  service.PriorityHigh,
		CreatedAt: service.Timestamp{Time: created},
	})

	want := "   1  [ ] Buy milk  high priority  19/10/2026 09:30\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFormatTask_NormalizesTitle(t *testing.T) {
	var buf bytes.Buffer
	FormatTask(&buf, 1, service.Task{Title: "two\nlines", Priority: service.PriorityMedium})
	if !strings.Contains(buf.String(), "two lines") {
		t.Errorf("expected newline replaced, got %q", buf.String())
	}

	buf.Reset()
	FormatTask(&buf, 1, service.Task{Title: "   ", Priority: service.PriorityMedium})
	if !strings.Contains(buf.String(), "(untitled)") {
		t.Errorf("expected (untitled), got %q", buf.String())
	}
}

func TestFormatUser(t *testing.T) {
	var buf bytes.Buffer
	FormatUser(&buf, service.User{UserID: "alice@example.com", Name: "Alice", LastName: "Smith"})
	if got, want := buf.String(), "Alice Smith <alice@example.com>\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	buf.Reset()
	FormatUser(&buf, service.User{UserID: "alice@example.com"})
	if got, want := buf.String(), "alice@example.com\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
