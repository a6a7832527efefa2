package core

import "testing"

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{email: "alice@example.com", want: "al***@example.com"},
		{email: "bo@example.com", want: "bo@example.com"},
		{email: "a@b.c", want: "a@b.c"},
		{email: "not-an-email", want: "not-an-email"},
		{email: "dave.tom@sea.tech", want: "da******@sea.tech"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := MaskEmail(tt.email); got != tt.want {
				t.Errorf("MaskEmail() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("+2348031234567"); got != "+*********4567" {
		t.Errorf("MaskPhone() = %v", got)
	}
	if got := MaskPhone("123"); got != "123" {
		t.Errorf("MaskPhone() = %v", got)
	}
}

func TestCleanString(t *testing.T) {
	if got := CleanString("  Alice@Example.COM ", true); got != "alice@example.com" {
		t.Errorf("CleanString() = %q", got)
	}
	if got := CleanString("  Alice  "); got != "Alice" {
		t.Errorf("CleanString() = %q", got)
	}
}
