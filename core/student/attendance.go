package student

import "time"

// WeeklyAttendanceLimit is the maximum number of attendances per calendar week.
const WeeklyAttendanceLimit = 5

// AttendanceWindow holds the bounds attendance marks are checked against.
// Days and weeks are calendar periods of the server's local time; weeks start on Monday.
type AttendanceWindow struct {
	DayStart    time.Time
	WeekStart   time.Time
	WeeklyLimit int
}

func NewAttendanceWindow(now time.Time) AttendanceWindow {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7 // days since monday
	return AttendanceWindow{
		DayStart:    day,
		WeekStart:   day.AddDate(0, 0, -offset),
		WeeklyLimit: WeeklyAttendanceLimit,
	}
}

// Check reports whether one more attendance can be recorded given the already recorded ones.
func (w AttendanceWindow) Check(dates []time.Time) error {
	var week int
	for _, d := range dates {
		if !d.Before(w.DayStart) {
			return ErrAlreadyMarkedToday
		}
		if !d.Before(w.WeekStart) {
			week++
		}
	}
	if week >= w.WeeklyLimit {
		return ErrWeeklyLimitExceeded
	}
	return nil
}
