package pkg

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	// bcrypt refuses longer input
	MaxPasswordBytes = 72
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidPassword checks the minimum length in characters, not bytes.
func IsValidPassword(password string) bool {
	return utf8.RuneCountInString(password) >= MinPasswordLength
}

// IsPasswordTooLong reports a password bcrypt cannot hash.
func IsPasswordTooLong(password string) bool {
	return len(password) > MaxPasswordBytes
}

// NormalizeEmail makes lookups case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
