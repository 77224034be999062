package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/pkg/config"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func defaultEnrollmentConfig() config.EnrollmentConfig {
	return config.EnrollmentConfig{
		EnforceDepartment:     true,
		EnforcePeriod:         true,
		CancellationGraceDays: 14,
	}
}

// fixedNow falls inside "Học kỳ 1" of 2026-2027.
func fixedNow() time.Time {
	return time.Date(2026, time.October, 1, 10, 0, 0, 0, time.UTC)
}

func eligibleStudent() *models.StudentDetail {
	return &models.StudentDetail{
		Student:        models.Student{ID: "student-1", DepartmentID: strPtr("dept-1")},
		DepartmentName: strPtr("Công nghệ thông tin"),
	}
}

func openClass() *models.ClassDetail {
	return &models.ClassDetail{
		Class: models.Class{
			ID:                "class-1",
			Semester:          models.SemesterFirst,
			AcademicYear:      "2026-2027",
			MaxCapacity:       30,
			CurrentEnrollment: 10,
			Status:            models.ClassStatusOpen,
			StartDate:         fixedNow().AddDate(0, 0, 7),
		},
		DepartmentID:   strPtr("dept-1"),
		DepartmentName: strPtr("Công nghệ thông tin"),
	}
}

func TestEligibilityValidatePasses(t *testing.T) {
	svc := NewEligibilityService(defaultEnrollmentConfig(), fixedNow, nil)
	assert.NoError(t, svc.Validate(eligibleStudent(), openClass()))
}

func TestEligibilityClassNotOpen(t *testing.T) {
	svc := NewEligibilityService(defaultEnrollmentConfig(), fixedNow, nil)
	class := openClass()
	class.Status = models.ClassStatusInProgress

	err := svc.Validate(eligibleStudent(), class)
	require.Error(t, err)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrClassNotOpen.Code))
	appErr := appErrors.FromError(err)
	assert.Equal(t, models.ClassStatusInProgress, appErr.Details["status"])
}

func TestEligibilityClassFull(t *testing.T) {
	svc := NewEligibilityService(defaultEnrollmentConfig(), fixedNow, nil)
	class := openClass()
	class.CurrentEnrollment = class.MaxCapacity

	err := svc.Validate(eligibleStudent(), class)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrClassFull.Code))
}

func TestEligibilityDepartmentChecks(t *testing.T) {
	svc := NewEligibilityService(defaultEnrollmentConfig(), fixedNow, nil)

	student := eligibleStudent()
	student.DepartmentID = nil
	err := svc.Validate(student, openClass())
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStudentNoDepartment.Code))

	class := openClass()
	class.DepartmentID = nil
	err = svc.Validate(eligibleStudent(), class)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCourseNoDepartment.Code))

	class = openClass()
	class.DepartmentID = strPtr("dept-2")
	class.DepartmentName = strPtr("Kinh tế")
	err = svc.Validate(eligibleStudent(), class)
	require.True(t, appErrors.HasCode(err, appErrors.ErrDepartmentMismatch.Code))
	appErr := appErrors.FromError(err)
	assert.Equal(t, "Công nghệ thông tin", appErr.Details["student_department"])
	assert.Equal(t, "Kinh tế", appErr.Details["course_department"])
}

func TestEligibilityDepartmentGateDisabled(t *testing.T) {
	cfg := defaultEnrollmentConfig()
	cfg.EnforceDepartment = false
	svc := NewEligibilityService(cfg, fixedNow, nil)

	student := eligibleStudent()
	student.DepartmentID = nil
	class := openClass()
	class.DepartmentID = strPtr("dept-2")

	assert.NoError(t, svc.Validate(student, class))
}

func TestEligibilityPeriodChecks(t *testing.T) {
	svc := NewEligibilityService(defaultEnrollmentConfig(), fixedNow, nil)

	class := openClass()
	class.Semester = models.SemesterSummer
	err := svc.Validate(eligibleStudent(), class)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrWrongPeriod.Code))

	class = openClass()
	class.AcademicYear = "2025-2026"
	err = svc.Validate(eligibleStudent(), class)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrWrongPeriod.Code))

	class = openClass()
	class.StartDate = fixedNow().AddDate(0, 0, -1)
	err = svc.Validate(eligibleStudent(), class)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrRegistrationClosed.Code))
}

func TestEligibilityPeriodGateDisabled(t *testing.T) {
	cfg := defaultEnrollmentConfig()
	cfg.EnforcePeriod = false
	svc := NewEligibilityService(cfg, fixedNow, nil)

	class := openClass()
	class.AcademicYear = "2020-2021"
	class.StartDate = fixedNow().AddDate(0, 0, -30)

	assert.NoError(t, svc.Validate(eligibleStudent(), class))
}

// The full class must win over the department mismatch: check order is fixed.
func TestEligibilityCheckOrder(t *testing.T) {
	svc := NewEligibilityService(defaultEnrollmentConfig(), fixedNow, nil)

	class := openClass()
	class.CurrentEnrollment = class.MaxCapacity
	class.DepartmentID = strPtr("dept-2")

	err := svc.Validate(eligibleStudent(), class)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrClassFull.Code))
}
