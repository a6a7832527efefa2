package core

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{name: "local with leading zero", phone: "08031234567", want: "+2348031234567"},
		{name: "local without leading zero", phone: "8031234567", want: "+2348031234567"},
		{name: "international", phone: "+447700900123", want: "+447700900123"},
		{name: "separators", phone: " 0803 123-4567 ", want: "+2348031234567"},
		{name: "empty", phone: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.phone, "+234"); got != tt.want {
				t.Errorf("NormalizePhone() = %v, want %v", got, tt.want)
			}
		})
	}
}
