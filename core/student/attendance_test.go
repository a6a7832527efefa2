package student

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewAttendanceWindow(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	tests := []struct {
		name      string
		now       time.Time
		weekStart time.Time
	}{
		{"monday", time.Date(2024, 3, 4, 9, 0, 0, 0, loc), time.Date(2024, 3, 4, 0, 0, 0, 0, loc)},
		{"wednesday", time.Date(2024, 3, 6, 23, 59, 0, 0, loc), time.Date(2024, 3, 4, 0, 0, 0, 0, loc)},
		{"sunday", time.Date(2024, 3, 10, 0, 1, 0, 0, loc), time.Date(2024, 3, 4, 0, 0, 0, 0, loc)},
		{"across months", time.Date(2024, 3, 1, 12, 0, 0, 0, loc), time.Date(2024, 2, 26, 0, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win := NewAttendanceWindow(tt.now)
			y, m, d := tt.now.Date()
			assert.True(t, win.DayStart.Equal(time.Date(y, m, d, 0, 0, 0, 0, loc)))
			assert.True(t, win.WeekStart.Equal(tt.weekStart))
			assert.Equal(t, WeeklyAttendanceLimit, win.WeeklyLimit)
		})
	}
}

func TestAttendanceWindow_Check(t *testing.T) {
	loc := time.UTC
	friday := time.Date(2024, 3, 8, 10, 0, 0, 0, loc)
	win := NewAttendanceWindow(friday)
	day := func(d int) time.Time { return time.Date(2024, 3, d, 9, 0, 0, 0, loc) }

	tests := []struct {
		name    string
		dates   []time.Time
		wantErr error
	}{
		{"first ever", nil, nil},
		{"marked yesterday", []time.Time{day(7)}, nil},
		{"marked earlier today", []time.Time{day(7), time.Date(2024, 3, 8, 0, 0, 0, 0, loc)}, ErrAlreadyMarkedToday},
		{"four this week", []time.Time{day(4), day(5), day(6), day(7)}, nil},
		{"five this week", []time.Time{day(3), day(4), day(5), day(6), day(7)}, nil},
		{"marks of last week ignored", []time.Time{day(1), day(2), day(3), day(4), day(5), day(6), day(7)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, win.Check(tt.dates))
		})
	}

	// five marks from monday to friday; saturday's mark goes over the limit
	saturday := NewAttendanceWindow(time.Date(2024, 3, 9, 8, 0, 0, 0, loc))
	week := []time.Time{day(4), day(5), day(6), day(7), day(8)}
	assert.Equal(t, ErrWeeklyLimitExceeded, saturday.Check(week))

	// next monday starts a new week
	monday := NewAttendanceWindow(time.Date(2024, 3, 11, 8, 0, 0, 0, loc))
	assert.NoError(t, monday.Check(week))
}
