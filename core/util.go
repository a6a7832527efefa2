package core

import (
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// MaskEmail keeps the first 2 characters of the local part and stars the rest: alice@example.com -> al***@example.com
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	local := []rune(email[:at])
	if len(local) <= 2 {
		return email
	}
	return string(local[:2]) + strings.Repeat("*", len(local)-2) + email[at:]
}

// MaskPhone stars every digit but the last 4.
func MaskPhone(phone string) string {
	runes := []rune(phone)
	digits := 0
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] < '0' || runes[i] > '9' {
			continue
		}
		digits++
		if digits > 4 {
			runes[i] = '*'
		}
	}
	return string(runes)
}
