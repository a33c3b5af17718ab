package util

import (
	"regexp"
	"strings"
)

// Password policy: at least 8 characters drawn from letters, digits, spaces
// and the approved special set, with at least one of each character class.
const (
	minimumPasswordLength  = 8
	validSpecialCharacters = `!@#$%^&*><()`
)

var (
	uppercaseRe   = regexp.MustCompile(`[A-Z]`)
	lowercaseRe   = regexp.MustCompile(`[a-z]`)
	digitRe       = regexp.MustCompile(`[0-9]`)
	specialRe     = regexp.MustCompile(`[!@#$%^&*><()]`)
	approvedRe    = regexp.MustCompile(`^[A-Za-z0-9 !@#$%^&*><()]+$`)
	emailFormatRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// IsValidPassword reports whether password satisfies the full policy.
func IsValidPassword(password string) bool {
	return len(password) >= minimumPasswordLength &&
		lowercaseRe.MatchString(password) &&
		uppercaseRe.MatchString(password) &&
		digitRe.MatchString(password) &&
		specialRe.MatchString(password) &&
		approvedRe.MatchString(password)
}

// IsValidEmail reports whether email looks like a deliverable address.
func IsValidEmail(email string) bool {
	if strings.TrimSpace(email) == "" {
		return false
	}
	return emailFormatRe.MatchString(email)
}

// NormalizeEmail produces the canonical form used for lookups: trimmed and
// lowercased, since email uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
