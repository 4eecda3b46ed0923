package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestExpiryFor(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	exp := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice@x.io",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	tests := []struct {
		name      string
		expiresIn string
		token     string
		want      time.Time
	}{
		{"duration", "1h", "opaque", now.Add(time.Hour)},
		{"seconds", "3600", "opaque", now.Add(time.Hour)},
		{"jwt claim", "", signed, exp},
		{"duration wins over claim", "30m", signed, now.Add(30 * time.Minute)},
		{"unknown", "soon", "opaque", time.Time{}},
		{"non-positive", "0", "opaque", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := expiryFor(tt.expiresIn, tt.token, now)
			if !got.Equal(tt.want) {
				t.Errorf("expiryFor(%q) = %v, want %v", tt.expiresIn, got, tt.want)
			}
		})
	}
}
