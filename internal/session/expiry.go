package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expiryFor turns the server's expiresIn into an absolute time. It accepts a
// Go duration ("1h") or a number of seconds ("3600"). Otherwise it falls back
// to the exp claim of the token, read without verification since only the
// server can verify it. A zero time means the expiry is unknown.
func expiryFor(expiresIn, token string, now time.Time) time.Time {
	expiresIn = strings.TrimSpace(expiresIn)
	if d, err := time.ParseDuration(expiresIn); err == nil && d > 0 {
		return now.Add(d)
	}
	if secs, err := strconv.ParseInt(expiresIn, 10, 64); err == nil && secs > 0 {
		return now.Add(time.Duration(secs) * time.Second)
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Time{}
}
