package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/minhlq/uni-registry-api/internal/models"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func TestCurrentSemester(t *testing.T) {
	cases := []struct {
		month    time.Month
		expected models.Semester
	}{
		{time.January, models.SemesterSecond},
		{time.March, models.SemesterSecond},
		{time.May, models.SemesterSecond},
		{time.June, models.SemesterSummer},
		{time.August, models.SemesterSummer},
		{time.September, models.SemesterFirst},
		{time.December, models.SemesterFirst},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, CurrentSemester(date(2026, tc.month, 15)), "month %s", tc.month)
	}
}

func TestCurrentAcademicYear(t *testing.T) {
	assert.Equal(t, "2025-2026", CurrentAcademicYear(date(2026, time.August, 31)))
	assert.Equal(t, "2026-2027", CurrentAcademicYear(date(2026, time.September, 1)))
	assert.Equal(t, "2025-2026", CurrentAcademicYear(date(2026, time.January, 1)))
}

func TestCurrentPeriod(t *testing.T) {
	period := CurrentPeriod(date(2026, time.October, 10))
	assert.Equal(t, models.SemesterFirst, period.Semester)
	assert.Equal(t, "2026-2027", period.AcademicYear)
}
