package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/minhlq/uni-registry-api/internal/models"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

type timetableRepository interface {
	StudentTimetable(ctx context.Context, studentID string, period *models.AcademicPeriod) ([]models.TimetableEntry, error)
	TeacherTimetable(ctx context.Context, teacherID string, period *models.AcademicPeriod) ([]models.TimetableEntry, error)
}

type timetableStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type timetableTeacherRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error)
}

// ScheduleService serves weekly timetables for students and teachers.
type ScheduleService struct {
	repo        timetableRepository
	studentRepo timetableStudentRepository
	teacherRepo timetableTeacherRepository
	logger      *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(
	repo timetableRepository,
	studentRepo timetableStudentRepository,
	teacherRepo timetableTeacherRepository,
	logger *zap.Logger,
) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:        repo,
		studentRepo: studentRepo,
		teacherRepo: teacherRepo,
		logger:      logger,
	}
}

// StudentTimetable returns the calling student's weekly sessions, scoped to
// one term when a period is given.
func (s *ScheduleService) StudentTimetable(ctx context.Context, userID string, period *models.AcademicPeriod) ([]models.TimetableEntry, error) {
	student, err := s.studentRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	entries, err := s.repo.StudentTimetable(ctx, student.ID, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return entries, nil
}

// TeacherTimetable returns the calling teacher's weekly sessions, scoped to
// one term when a period is given.
func (s *ScheduleService) TeacherTimetable(ctx context.Context, userID string, period *models.AcademicPeriod) ([]models.TimetableEntry, error) {
	teacher, err := s.teacherRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrTeacherNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	entries, err := s.repo.TeacherTimetable(ctx, teacher.ID, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return entries, nil
}
