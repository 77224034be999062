package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/internal/repository"
	"github.com/minhlq/uni-registry-api/pkg/config"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

type enrollmentRepository interface {
	FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	CreateRegistered(ctx context.Context, enrollment *models.Enrollment) error
	Reactivate(ctx context.Context, enrollmentID, classID string, at time.Time) error
	Cancel(ctx context.Context, enrollmentID, classID string, at time.Time) error
	StudentDepartmentConflicts(ctx context.Context) ([]models.DepartmentConflict, error)
	TeacherDepartmentConflicts(ctx context.Context) ([]models.DepartmentConflict, error)
}

type enrollmentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type enrollmentClassRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

type eligibilityValidator interface {
	Validate(student *models.StudentDetail, class *models.ClassDetail) error
}

// DepartmentConflictReport groups the cross-department inconsistencies found
// by the admin audit.
type DepartmentConflictReport struct {
	StudentConflicts []models.DepartmentConflict `json:"student_conflicts"`
	TeacherConflicts []models.DepartmentConflict `json:"teacher_conflicts"`
}

// EnrollmentService drives the enrollment state machine.
type EnrollmentService struct {
	repo        enrollmentRepository
	studentRepo enrollmentStudentRepository
	classRepo   enrollmentClassRepository
	eligibility eligibilityValidator
	cfg         config.EnrollmentConfig
	now         func() time.Time
	logger      *zap.Logger
}

// NewEnrollmentService constructs the enrollment service. A nil clock
// defaults to time.Now.
func NewEnrollmentService(
	repo enrollmentRepository,
	studentRepo enrollmentStudentRepository,
	classRepo enrollmentClassRepository,
	eligibility eligibilityValidator,
	cfg config.EnrollmentConfig,
	now func() time.Time,
	logger *zap.Logger,
) *EnrollmentService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:        repo,
		studentRepo: studentRepo,
		classRepo:   classRepo,
		eligibility: eligibility,
		cfg:         cfg,
		now:         now,
		logger:      logger,
	}
}

// Enroll registers a student in a class. A previously cancelled enrollment is
// reactivated instead of duplicated. The seat is claimed inside the same
// transaction as the enrollment write, so losing a race for the last seat
// surfaces as ClassFull even after the eligibility pre-check passed.
func (s *EnrollmentService) Enroll(ctx context.Context, userID, classID string) (*models.EnrollmentDetail, error) {
	student, err := s.studentRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	class, err := s.classRepo.FindDetailByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrClassNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	if err := s.eligibility.Validate(student, class); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByStudentAndClass(ctx, student.ID, classID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		enrollment := &models.Enrollment{
			StudentID:      student.ID,
			ClassID:        classID,
			EnrollmentDate: s.now().UTC(),
		}
		if err := s.repo.CreateRegistered(ctx, enrollment); err != nil {
			return nil, s.mapEnrollError(err)
		}
		s.logger.Info("student enrolled",
			zap.String("student_id", student.ID),
			zap.String("class_id", classID))
		return s.detail(ctx, enrollment.ID)
	case err != nil:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	switch existing.Status {
	case models.EnrollmentStatusRegistered:
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	case models.EnrollmentStatusCompleted, models.EnrollmentStatusFailed:
		return nil, appErrors.Clone(appErrors.ErrCourseResolved, "")
	}

	if err := s.repo.Reactivate(ctx, existing.ID, classID, s.now().UTC()); err != nil {
		return nil, s.mapEnrollError(err)
	}
	s.logger.Info("enrollment reactivated",
		zap.String("student_id", student.ID),
		zap.String("class_id", classID))
	return s.detail(ctx, existing.ID)
}

// Cancel withdraws a student's registration. Cancellation is allowed while
// the class is Open or InProgress and at most CancellationGraceDays after the
// class start date; a recorded score or grade always blocks it.
func (s *EnrollmentService) Cancel(ctx context.Context, userID, classID string) (*models.EnrollmentDetail, error) {
	student, err := s.studentRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	class, err := s.classRepo.FindDetailByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrClassNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	enrollment, err := s.repo.FindByStudentAndClass(ctx, student.ID, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Graded() {
		return nil, appErrors.Clone(appErrors.ErrGradeAssigned, "")
	}
	if enrollment.Status != models.EnrollmentStatusRegistered {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
	}

	now := s.now()
	if class.Status == models.ClassStatusCompleted {
		return nil, appErrors.WithDetails(appErrors.ErrCancelNotAllowed, map[string]interface{}{
			"status": class.Status,
		})
	}
	deadline := class.StartDate.AddDate(0, 0, s.cfg.CancellationGraceDays)
	if now.After(deadline) {
		return nil, appErrors.WithDetails(appErrors.ErrCancelExpired, map[string]interface{}{
			"deadline": deadline.Format("2006-01-02"),
		})
	}

	if err := s.repo.Cancel(ctx, enrollment.ID, classID, now.UTC()); err != nil {
		if errors.Is(err, repository.ErrNotRegistered) {
			return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}
	s.logger.Info("enrollment cancelled",
		zap.String("student_id", student.ID),
		zap.String("class_id", classID))
	return s.detail(ctx, enrollment.ID)
}

// List returns enrollments and pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// ListForUser returns the calling student's own enrollments.
func (s *EnrollmentService) ListForUser(ctx context.Context, userID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	student, err := s.studentRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	filter.StudentID = student.ID
	return s.List(ctx, filter)
}

// DepartmentConflicts returns the cross-department audit for administrators.
func (s *EnrollmentService) DepartmentConflicts(ctx context.Context) (*DepartmentConflictReport, error) {
	students, err := s.repo.StudentDepartmentConflicts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to audit student conflicts")
	}
	teachers, err := s.repo.TeacherDepartmentConflicts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to audit teacher conflicts")
	}
	return &DepartmentConflictReport{StudentConflicts: students, TeacherConflicts: teachers}, nil
}

func (s *EnrollmentService) detail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

func (s *EnrollmentService) mapEnrollError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSeatUnavailable):
		return appErrors.Clone(appErrors.ErrClassFull, "")
	case errors.Is(err, repository.ErrEnrollmentExists):
		return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	case errors.Is(err, repository.ErrNotCancelled):
		return appErrors.Clone(appErrors.ErrConflict, "enrollment changed concurrently, please retry")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}
}
