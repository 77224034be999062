package models

import (
	"fmt"
	"time"
)

// Schedule is one weekly time block owned by exactly one class. Times are
// stored as "HH:MM" strings in 24-hour local time.
type Schedule struct {
	ID        string  `db:"id" json:"id"`
	ClassID   string  `db:"class_id" json:"class_id"`
	DayOfWeek string  `db:"day_of_week" json:"day_of_week"`
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
	Room      *string `db:"room" json:"room,omitempty"`
}

// ParseClock converts an "HH:MM" string to minutes since midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Overlaps reports whether two blocks on the same day intersect. Blocks are
// half-open intervals: one ending exactly when the other starts is not an
// overlap. Malformed times are treated as non-overlapping; they are validated
// at creation.
func (s Schedule) Overlaps(other Schedule) bool {
	if s.DayOfWeek != other.DayOfWeek {
		return false
	}
	aStart, err := ParseClock(s.StartTime)
	if err != nil {
		return false
	}
	aEnd, err := ParseClock(s.EndTime)
	if err != nil {
		return false
	}
	bStart, err := ParseClock(other.StartTime)
	if err != nil {
		return false
	}
	bEnd, err := ParseClock(other.EndTime)
	if err != nil {
		return false
	}
	return aStart < bEnd && aEnd > bStart
}

// TeacherScheduleRow is a schedule block joined with the class it belongs to,
// used when checking a teacher's existing load for conflicts.
type TeacherScheduleRow struct {
	Schedule
	CourseName   string   `db:"course_name" json:"course_name"`
	Semester     Semester `db:"semester" json:"semester"`
	AcademicYear string   `db:"academic_year" json:"academic_year"`
}
