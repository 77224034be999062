package service

import (
	"fmt"
	"time"

	"github.com/minhlq/uni-registry-api/internal/models"
)

// CurrentSemester maps a calendar date to its term. January through May is
// the second semester, June through August the summer term, the rest of the
// year the first semester.
func CurrentSemester(now time.Time) models.Semester {
	switch m := now.Month(); {
	case m >= time.January && m <= time.May:
		return models.SemesterSecond
	case m >= time.June && m <= time.August:
		return models.SemesterSummer
	default:
		return models.SemesterFirst
	}
}

// CurrentAcademicYear returns the "YYYY-YYYY" academic year containing now.
// The academic year rolls over in September.
func CurrentAcademicYear(now time.Time) string {
	year := now.Year()
	if now.Month() >= time.September {
		return fmt.Sprintf("%d-%d", year, year+1)
	}
	return fmt.Sprintf("%d-%d", year-1, year)
}

// CurrentPeriod returns the academic period containing now.
func CurrentPeriod(now time.Time) models.AcademicPeriod {
	return models.AcademicPeriod{
		Semester:     CurrentSemester(now),
		AcademicYear: CurrentAcademicYear(now),
	}
}
