package core

import (
	"strings"
	"unicode"
)

type (
	// ChatMessage is a plain text instant message (WhatsApp).
	ChatMessage struct {
		To   string // E.164 phone number
		Body string
	}

	// ChatService is any service that can deliver chat messages
	ChatService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*ChatMessage)
	}
)

// NormalizePhone converts a local phone number to E.164 using countryCode: 08031234567 -> +2348031234567.
// Numbers already starting with "+" are only stripped of separators.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if unicode.IsDigit(r) || (i == 0 && r == '+') {
			b.WriteRune(r)
		}
	}
	num := b.String()
	if num == "" || strings.HasPrefix(num, "+") {
		return num
	}
	return countryCode + strings.TrimPrefix(num, "0")
}
