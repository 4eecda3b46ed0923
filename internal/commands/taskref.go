package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the list, 0 if ID is set
	ID  string // server id, set for "id:<id>" references
}

// IDPrefix introduces a reference by server id.
const IDPrefix = "id:"

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses task reference from args.
// Returns the parsed reference and any error.
//
// Parsing rules:
// 1. If first arg is all digits → position in the list as printed by list
// 2. If first arg is id:<id> → server id
// 3. Otherwise → error: invalid task reference: <ref>
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}

	firstArg := args[0]

	if isAllDigits(firstArg) {
		num, err := strconv.Atoi(firstArg)
		if err != nil {
			return TaskRef{}, fmt.Errorf("invalid task reference: %s", firstArg)
		}
		return TaskRef{Num: num}, nil
	}

	if id, ok := strings.CutPrefix(firstArg, IDPrefix); ok {
		if strings.TrimSpace(id) == "" {
			return TaskRef{}, ErrTaskRefRequired
		}
		return TaskRef{ID: id}, nil
	}

	return TaskRef{}, fmt.Errorf("invalid task reference: %s", firstArg)
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
