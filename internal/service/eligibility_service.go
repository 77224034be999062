package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/pkg/config"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

// EligibilityService decides whether a student may register for a class. It
// never mutates state; checks run in a fixed order and the first failure wins,
// so the same (student, class, clock) input always yields the same reason.
type EligibilityService struct {
	cfg    config.EnrollmentConfig
	now    func() time.Time
	logger *zap.Logger
}

// NewEligibilityService constructs the validator. A nil clock defaults to
// time.Now.
func NewEligibilityService(cfg config.EnrollmentConfig, now func() time.Time, logger *zap.Logger) *EligibilityService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{cfg: cfg, now: now, logger: logger}
}

// Validate returns nil when the student may register for the class, or the
// rejection reason otherwise. Callers have already resolved both records.
func (s *EligibilityService) Validate(student *models.StudentDetail, class *models.ClassDetail) error {
	if class.Status != models.ClassStatusOpen {
		return appErrors.WithDetails(appErrors.ErrClassNotOpen, map[string]interface{}{
			"status": class.Status,
		})
	}
	if !class.SeatsAvailable() {
		return appErrors.ErrClassFull
	}

	if s.cfg.EnforceDepartment {
		if student.DepartmentID == nil {
			return appErrors.ErrStudentNoDepartment
		}
		if class.DepartmentID == nil {
			return appErrors.ErrCourseNoDepartment
		}
		if *student.DepartmentID != *class.DepartmentID {
			return appErrors.WithDetails(appErrors.ErrDepartmentMismatch, map[string]interface{}{
				"student_department": deref(student.DepartmentName),
				"course_department":  deref(class.DepartmentName),
			})
		}
	}

	if s.cfg.EnforcePeriod {
		now := s.now()
		current := CurrentPeriod(now)
		if class.Semester != current.Semester || class.AcademicYear != current.AcademicYear {
			return appErrors.WithDetails(appErrors.ErrWrongPeriod, map[string]interface{}{
				"class_semester":        class.Semester,
				"class_academic_year":   class.AcademicYear,
				"current_semester":      current.Semester,
				"current_academic_year": current.AcademicYear,
			})
		}
		if !class.StartDate.After(now) {
			return appErrors.ErrRegistrationClosed
		}
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
