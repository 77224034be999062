package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/minhlq/uni-registry-api/internal/models"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

type classRepository interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error)
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	ListOpenForStudent(ctx context.Context, studentID string, period models.AcademicPeriod) ([]models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class, schedules []models.Schedule) error
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error
}

type courseRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
}

type classScheduleRepository interface {
	ListByClass(ctx context.Context, classID string) ([]models.Schedule, error)
}

type classStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type assignmentChecker interface {
	CheckAssignment(ctx context.Context, teacherID string, courseDepartmentID *string, period models.AcademicPeriod, schedules []models.Schedule, excludeClassID string) error
}

// ScheduleRequest is one weekly time block in a class creation payload.
type ScheduleRequest struct {
	DayOfWeek string  `json:"day_of_week" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Room      *string `json:"room"`
}

// CreateClassRequest holds payload for creating classes.
type CreateClassRequest struct {
	CourseID     string            `json:"course_id" validate:"required"`
	TeacherID    *string           `json:"teacher_id"`
	Semester     models.Semester   `json:"semester" validate:"required"`
	AcademicYear string            `json:"academic_year" validate:"required"`
	MaxCapacity  int               `json:"max_capacity" validate:"required"`
	StartDate    time.Time         `json:"start_date" validate:"required"`
	EndDate      time.Time         `json:"end_date" validate:"required"`
	Schedules    []ScheduleRequest `json:"schedules" validate:"required,min=1,dive"`
}

var academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// ClassService handles class creation and lifecycle.
type ClassService struct {
	repo         classRepository
	courseRepo   courseRepository
	scheduleRepo classScheduleRepository
	studentRepo  classStudentRepository
	assignment   assignmentChecker
	validator    *validator.Validate
	now          func() time.Time
	logger       *zap.Logger
}

// NewClassService constructs the class service. A nil clock defaults to
// time.Now.
func NewClassService(
	repo classRepository,
	courseRepo courseRepository,
	scheduleRepo classScheduleRepository,
	studentRepo classStudentRepository,
	assignment assignmentChecker,
	validate *validator.Validate,
	now func() time.Time,
	logger *zap.Logger,
) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		repo:         repo,
		courseRepo:   courseRepo,
		scheduleRepo: scheduleRepo,
		studentRepo:  studentRepo,
		assignment:   assignment,
		validator:    validate,
		now:          now,
		logger:       logger,
	}
}

// Create opens a new class offering with its weekly schedule. When a teacher
// is supplied, the assignment is validated the same way as a later
// re-assignment would be.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.ClassDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if !models.ValidSemester(req.Semester) {
		return nil, appErrors.Clone(appErrors.ErrInvalidSemester, "")
	}
	if err := validateAcademicYear(req.AcademicYear); err != nil {
		return nil, err
	}
	if req.MaxCapacity <= 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCapacity, "")
	}
	if !req.StartDate.Before(req.EndDate) {
		return nil, appErrors.Clone(appErrors.ErrInvalidDates, "")
	}
	if !req.StartDate.After(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidStartDate, "")
	}

	schedules := make([]models.Schedule, 0, len(req.Schedules))
	for _, block := range req.Schedules {
		start, err := models.ParseClock(block.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule time")
		}
		end, err := models.ParseClock(block.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule time")
		}
		if start >= end {
			return nil, appErrors.Clone(appErrors.ErrValidation, "schedule start time must be before end time")
		}
		schedules = append(schedules, models.Schedule{
			DayOfWeek: block.DayOfWeek,
			StartTime: block.StartTime,
			EndTime:   block.EndTime,
			Room:      block.Room,
		})
	}

	course, err := s.courseRepo.FindDetailByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrCourseNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	period := models.AcademicPeriod{Semester: req.Semester, AcademicYear: req.AcademicYear}
	if req.TeacherID != nil {
		if err := s.assignment.CheckAssignment(ctx, *req.TeacherID, course.DepartmentID, period, schedules, ""); err != nil {
			return nil, err
		}
	}

	class := &models.Class{
		CourseID:     req.CourseID,
		TeacherID:    req.TeacherID,
		Semester:     req.Semester,
		AcademicYear: req.AcademicYear,
		MaxCapacity:  req.MaxCapacity,
		Status:       models.ClassStatusOpen,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := s.repo.Create(ctx, class, schedules); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.logger.Info("class created",
		zap.String("class_id", class.ID),
		zap.String("course_id", class.CourseID))
	return s.detail(ctx, class.ID)
}

// Get returns a class with its course, teacher and schedule info.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrClassNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	schedules, err := s.scheduleRepo.ListByClass(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	detail.Schedules = schedules
	return detail, nil
}

// List returns classes and pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
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
	return classes, pagination, nil
}

// AvailableForUser returns the current-period OPEN classes with free seats
// the calling student has not registered in.
func (s *ClassService) AvailableForUser(ctx context.Context, userID string) ([]models.ClassDetail, error) {
	student, err := s.studentRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrStudentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	classes, err := s.repo.ListOpenForStudent(ctx, student.ID, CurrentPeriod(s.now()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available classes")
	}
	return classes, nil
}

// UpdateStatus moves a class through its lifecycle. Completion requires the
// end date to have passed; re-opening is rejected once the class has started.
// The seat counter is never touched by a status change.
func (s *ClassService) UpdateStatus(ctx context.Context, id string, target models.ClassStatus) (*models.ClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrClassNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	now := s.now()
	switch target {
	case models.ClassStatusInProgress:
		if class.Status != models.ClassStatusOpen {
			return nil, transitionError(class.Status, target)
		}
	case models.ClassStatusCompleted:
		if class.Status == models.ClassStatusCompleted {
			return nil, transitionError(class.Status, target)
		}
		if now.Before(class.EndDate) {
			return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
				"reason":   "class has not ended yet",
				"end_date": class.EndDate.Format("2006-01-02"),
			})
		}
	case models.ClassStatusOpen:
		if class.Status == models.ClassStatusOpen {
			return nil, transitionError(class.Status, target)
		}
		if now.After(class.StartDate) {
			return nil, appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
				"reason":     "class has already started",
				"start_date": class.StartDate.Format("2006-01-02"),
			})
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "")
	}

	if err := s.repo.UpdateStatus(ctx, id, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	s.logger.Info("class status changed",
		zap.String("class_id", id),
		zap.String("from", string(class.Status)),
		zap.String("to", string(target)))
	return s.detail(ctx, id)
}

func (s *ClassService) detail(ctx context.Context, id string) (*models.ClassDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	schedules, err := s.scheduleRepo.ListByClass(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules")
	}
	detail.Schedules = schedules
	return detail, nil
}

func transitionError(from, to models.ClassStatus) error {
	return appErrors.WithDetails(appErrors.ErrInvalidTransition, map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

func validateAcademicYear(value string) error {
	match := academicYearPattern.FindStringSubmatch(value)
	if match == nil {
		return appErrors.Clone(appErrors.ErrInvalidAcademicYear, "")
	}
	first, _ := strconv.Atoi(match[1])
	second, _ := strconv.Atoi(match[2])
	if second != first+1 {
		return appErrors.Clone(appErrors.ErrInvalidAcademicYear, "")
	}
	return nil
}
