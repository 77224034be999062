package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/minhlq/uni-registry-api/internal/models"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

type assignmentClassRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	AssignTeacher(ctx context.Context, id, teacherID string) error
}

type teacherRepository interface {
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error)
}

type assignmentScheduleRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Schedule, error)
	ListByTeacherAndPeriod(ctx context.Context, teacherID string, period models.AcademicPeriod, excludeClassID string) ([]models.TeacherScheduleRow, error)
}

// TeacherAssignmentService validates and applies teacher-to-class
// assignments: department match plus no overlap with the teacher's existing
// weekly load in the same term.
type TeacherAssignmentService struct {
	classRepo    assignmentClassRepository
	teacherRepo  teacherRepository
	scheduleRepo assignmentScheduleRepository
	logger       *zap.Logger
}

// NewTeacherAssignmentService constructs the assignment service.
func NewTeacherAssignmentService(
	classRepo assignmentClassRepository,
	teacherRepo teacherRepository,
	scheduleRepo assignmentScheduleRepository,
	logger *zap.Logger,
) *TeacherAssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherAssignmentService{
		classRepo:    classRepo,
		teacherRepo:  teacherRepo,
		scheduleRepo: scheduleRepo,
		logger:       logger,
	}
}

// Assign sets the teacher on a class after validating the assignment.
func (s *TeacherAssignmentService) Assign(ctx context.Context, classID, teacherID string) (*models.ClassDetail, error) {
	class, err := s.classRepo.FindDetailByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrClassNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	schedules, err := s.scheduleRepo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}

	if err := s.CheckAssignment(ctx, teacherID, class.DepartmentID, class.Period(), schedules, classID); err != nil {
		return nil, err
	}

	if err := s.classRepo.AssignTeacher(ctx, classID, teacherID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}
	s.logger.Info("teacher assigned",
		zap.String("class_id", classID),
		zap.String("teacher_id", teacherID))

	detail, err := s.classRepo.FindDetailByID(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	detail.Schedules = schedules
	return detail, nil
}

// CheckAssignment validates a prospective assignment without applying it.
// The department gate runs first; the schedule check then fails fast on the
// first overlap with the teacher's existing load in the same term, naming
// the conflicting class and time window.
func (s *TeacherAssignmentService) CheckAssignment(ctx context.Context, teacherID string, courseDepartmentID *string, period models.AcademicPeriod, schedules []models.Schedule, excludeClassID string) error {
	teacher, err := s.teacherRepo.FindByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrTeacherNotFound, "")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if teacher.DepartmentID == nil {
		return appErrors.Clone(appErrors.ErrTeacherNoDepartment, "")
	}
	if courseDepartmentID == nil {
		return appErrors.Clone(appErrors.ErrCourseNoDepartment, "")
	}
	if *teacher.DepartmentID != *courseDepartmentID {
		return appErrors.WithDetails(appErrors.ErrDepartmentMismatch, map[string]interface{}{
			"teacher_department_id": *teacher.DepartmentID,
			"course_department_id":  *courseDepartmentID,
		})
	}

	existing, err := s.scheduleRepo.ListByTeacherAndPeriod(ctx, teacherID, period, excludeClassID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher schedules")
	}
	for _, block := range schedules {
		for _, row := range existing {
			if block.Overlaps(row.Schedule) {
				return appErrors.WithDetails(appErrors.ErrScheduleConflict, map[string]interface{}{
					"course_name": row.CourseName,
					"day_of_week": row.DayOfWeek,
					"start_time":  row.StartTime,
					"end_time":    row.EndTime,
				})
			}
		}
	}
	return nil
}
