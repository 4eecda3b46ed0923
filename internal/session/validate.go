package session

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// MinimumAge is the youngest age allowed to register.
const MinimumAge = 18

// Validation errors. They are returned before any request is sent.
var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrMissingName      = errors.New("name and last name are required")
	ErrMissingBirthDate = errors.New("date of birth is required")
	ErrFutureDate       = errors.New("date of birth cannot be in the future")
	ErrUnderage         = fmt.Errorf("must be at least %d years old", MinimumAge)
)

// NormalizeEmail trims surrounding whitespace and checks that what remains
// is a bare RFC 5322 address.
func NormalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// ValidateBirthDate checks birth against today by calendar date: it must not
// be in the future and must imply an age of at least MinimumAge.
func ValidateBirthDate(birth, today time.Time) error {
	if birth.IsZero() {
		return ErrMissingBirthDate
	}

	by, bm, bd := birth.Date()
	ty, tm, td := today.Date()

	if time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).After(time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)) {
		return ErrFutureDate
	}

	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	if age < MinimumAge {
		return ErrUnderage
	}
	return nil
}
