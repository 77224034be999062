package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8*60+30, minutes)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("8am")
	assert.Error(t, err)
}

func TestScheduleOverlaps(t *testing.T) {
	base := Schedule{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "10:00"}

	cases := []struct {
		name     string
		other    Schedule
		overlaps bool
	}{
		{"identical", Schedule{DayOfWeek: "Monday", StartTime: "08:00", EndTime: "10:00"}, true},
		{"contained", Schedule{DayOfWeek: "Monday", StartTime: "08:30", EndTime: "09:30"}, true},
		{"partial tail", Schedule{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "11:00"}, true},
		{"one minute over", Schedule{DayOfWeek: "Monday", StartTime: "09:59", EndTime: "12:00"}, true},
		{"touching end", Schedule{DayOfWeek: "Monday", StartTime: "10:00", EndTime: "12:00"}, false},
		{"touching start", Schedule{DayOfWeek: "Monday", StartTime: "06:00", EndTime: "08:00"}, false},
		{"disjoint", Schedule{DayOfWeek: "Monday", StartTime: "13:00", EndTime: "15:00"}, false},
		{"other day", Schedule{DayOfWeek: "Tuesday", StartTime: "08:00", EndTime: "10:00"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlaps, base.Overlaps(tc.other))
			assert.Equal(t, tc.overlaps, tc.other.Overlaps(base))
		})
	}
}

func TestEnrollmentStatusTerminal(t *testing.T) {
	assert.False(t, EnrollmentStatusRegistered.Terminal())
	assert.False(t, EnrollmentStatusCancelled.Terminal())
	assert.True(t, EnrollmentStatusCompleted.Terminal())
	assert.True(t, EnrollmentStatusFailed.Terminal())
}

func TestClassSeatsAvailable(t *testing.T) {
	class := Class{MaxCapacity: 2, CurrentEnrollment: 1}
	assert.True(t, class.SeatsAvailable())
	class.CurrentEnrollment = 2
	assert.False(t, class.SeatsAvailable())
}
