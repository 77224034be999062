package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/internal/repository"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

type mockEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	byPair      map[string]string
	seatFull    bool
	cancelled   []string
	reactivated []string
	conflicts   []models.DepartmentConflict
}

func pairKey(studentID, classID string) string { return studentID + "/" + classID }

func (m *mockEnrollmentRepo) FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.Enrollment, error) {
	id, ok := m.byPair[pairKey(studentID, classID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	e := m.enrollments[id]
	return &e, nil
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	e, ok := m.enrollments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.EnrollmentDetail{Enrollment: e}, nil
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if filter.StudentID != "" && e.StudentID != filter.StudentID {
			continue
		}
		list = append(list, models.EnrollmentDetail{Enrollment: e})
	}
	return list, len(list), nil
}

func (m *mockEnrollmentRepo) CreateRegistered(ctx context.Context, enrollment *models.Enrollment) error {
	if m.seatFull {
		return repository.ErrSeatUnavailable
	}
	if _, ok := m.byPair[pairKey(enrollment.StudentID, enrollment.ClassID)]; ok {
		return repository.ErrEnrollmentExists
	}
	if enrollment.ID == "" {
		enrollment.ID = "enroll-new"
	}
	enrollment.Status = models.EnrollmentStatusRegistered
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if m.byPair == nil {
		m.byPair = make(map[string]string)
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.byPair[pairKey(enrollment.StudentID, enrollment.ClassID)] = enrollment.ID
	return nil
}

func (m *mockEnrollmentRepo) Reactivate(ctx context.Context, enrollmentID, classID string, at time.Time) error {
	if m.seatFull {
		return repository.ErrSeatUnavailable
	}
	e, ok := m.enrollments[enrollmentID]
	if !ok || e.Status != models.EnrollmentStatusCancelled {
		return repository.ErrNotCancelled
	}
	e.Status = models.EnrollmentStatusRegistered
	e.EnrollmentDate = at
	e.CancellationDate = nil
	m.enrollments[enrollmentID] = e
	m.reactivated = append(m.reactivated, enrollmentID)
	return nil
}

func (m *mockEnrollmentRepo) Cancel(ctx context.Context, enrollmentID, classID string, at time.Time) error {
	e, ok := m.enrollments[enrollmentID]
	if !ok || e.Status != models.EnrollmentStatusRegistered || e.Graded() {
		return repository.ErrNotRegistered
	}
	e.Status = models.EnrollmentStatusCancelled
	e.CancellationDate = &at
	m.enrollments[enrollmentID] = e
	m.cancelled = append(m.cancelled, enrollmentID)
	return nil
}

func (m *mockEnrollmentRepo) StudentDepartmentConflicts(ctx context.Context) ([]models.DepartmentConflict, error) {
	return m.conflicts, nil
}

func (m *mockEnrollmentRepo) TeacherDepartmentConflicts(ctx context.Context) ([]models.DepartmentConflict, error) {
	return nil, nil
}

type mockStudentReader struct {
	students map[string]*models.StudentDetail
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	for _, s := range m.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentReader) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	if s, ok := m.students[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockClassReader struct {
	classes map[string]*models.ClassDetail
}

func (m *mockClassReader) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if c, ok := m.classes[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type allowAllValidator struct{}

func (allowAllValidator) Validate(student *models.StudentDetail, class *models.ClassDetail) error {
	return nil
}

func newEnrollmentFixture(t *testing.T) (*EnrollmentService, *mockEnrollmentRepo) {
	t.Helper()
	repo := &mockEnrollmentRepo{}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"user-1": {Student: models.Student{ID: "student-1", UserID: "user-1", DepartmentID: strPtr("dept-1")}},
	}}
	classes := &mockClassReader{classes: map[string]*models.ClassDetail{
		"class-1": openClass(),
	}}
	validator := NewEligibilityService(defaultEnrollmentConfig(), fixedNow, nil)
	svc := NewEnrollmentService(repo, students, classes, validator, defaultEnrollmentConfig(), fixedNow, nil)
	return svc, repo
}

func TestEnrollCreatesRegistration(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"user-1": {Student: models.Student{ID: "student-1", UserID: "user-1"}},
	}}
	classes := &mockClassReader{classes: map[string]*models.ClassDetail{"class-1": openClass()}}
	svc := NewEnrollmentService(repo, students, classes, allowAllValidator{}, defaultEnrollmentConfig(), fixedNow, nil)

	detail, err := svc.Enroll(context.Background(), "user-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRegistered, detail.Status)
	assert.Equal(t, "student-1", detail.StudentID)
}

func TestEnrollUnknownStudent(t *testing.T) {
	svc, _ := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "user-unknown", "class-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrStudentNotFound.Code))
}

func TestEnrollUnknownClass(t *testing.T) {
	svc, _ := newEnrollmentFixture(t)
	_, err := svc.Enroll(context.Background(), "user-1", "class-unknown")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrClassNotFound.Code))
}

func TestEnrollRejectsDuplicate(t *testing.T) {
	svc, repo := newEnrollmentFixture(t)

	_, err := svc.Enroll(context.Background(), "user-1", "class-1")
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), "user-1", "class-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrAlreadyEnrolled.Code))
	assert.Len(t, repo.enrollments, 1)
}

func TestEnrollRejectsResolvedCourse(t *testing.T) {
	svc, repo := newEnrollmentFixture(t)
	repo.enrollments = map[string]models.Enrollment{
		"enroll-1": {ID: "enroll-1", StudentID: "student-1", ClassID: "class-1", Status: models.EnrollmentStatusCompleted},
	}
	repo.byPair = map[string]string{pairKey("student-1", "class-1"): "enroll-1"}

	_, err := svc.Enroll(context.Background(), "user-1", "class-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCourseResolved.Code))
}

func TestEnrollReactivatesCancelled(t *testing.T) {
	svc, repo := newEnrollmentFixture(t)
	cancelledAt := fixedNow().AddDate(0, 0, -1)
	repo.enrollments = map[string]models.Enrollment{
		"enroll-1": {ID: "enroll-1", StudentID: "student-1", ClassID: "class-1", Status: models.EnrollmentStatusCancelled, CancellationDate: &cancelledAt},
	}
	repo.byPair = map[string]string{pairKey("student-1", "class-1"): "enroll-1"}

	detail, err := svc.Enroll(context.Background(), "user-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusRegistered, detail.Status)
	assert.Nil(t, detail.CancellationDate)
	assert.Equal(t, []string{"enroll-1"}, repo.reactivated)
}

// Losing the commit-time seat race surfaces as CLASS_FULL even though the
// eligibility pre-check passed.
func TestEnrollSeatRaceMapsToClassFull(t *testing.T) {
	svc, repo := newEnrollmentFixture(t)
	repo.seatFull = true

	_, err := svc.Enroll(context.Background(), "user-1", "class-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrClassFull.Code))
}

func TestCancelRegisteredEnrollment(t *testing.T) {
	svc, repo := newEnrollmentFixture(t)
	repo.enrollments = map[string]models.Enrollment{
		"enroll-1": {ID: "enroll-1", StudentID: "student-1", ClassID: "class-1", Status: models.EnrollmentStatusRegistered},
	}
	repo.byPair = map[string]string{pairKey("student-1", "class-1"): "enroll-1"}

	detail, err := svc.Cancel(context.Background(), "user-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCancelled, detail.Status)
	assert.NotNil(t, detail.CancellationDate)
}

func TestCancelWithoutRegistration(t *testing.T) {
	svc, _ := newEnrollmentFixture(t)
	_, err := svc.Cancel(context.Background(), "user-1", "class-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrNotEnrolled.Code))
}

func TestCancelBlockedByGrade(t *testing.T) {
	svc, repo := newEnrollmentFixture(t)
	score := 7.5
	repo.enrollments = map[string]models.Enrollment{
		"enroll-1": {ID: "enroll-1", StudentID: "student-1", ClassID: "class-1", Status: models.EnrollmentStatusRegistered, Score: &score},
	}
	repo.byPair = map[string]string{pairKey("student-1", "class-1"): "enroll-1"}

	_, err := svc.Cancel(context.Background(), "user-1", "class-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrGradeAssigned.Code))
}

func TestCancelBlockedAfterGracePeriod(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollments: map[string]models.Enrollment{
			"enroll-1": {ID: "enroll-1", StudentID: "student-1", ClassID: "class-1", Status: models.EnrollmentStatusRegistered},
		},
		byPair: map[string]string{pairKey("student-1", "class-1"): "enroll-1"},
	}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"user-1": {Student: models.Student{ID: "student-1", UserID: "user-1"}},
	}}
	class := openClass()
	class.Status = models.ClassStatusInProgress
	class.StartDate = fixedNow().AddDate(0, 0, -15)
	classes := &mockClassReader{classes: map[string]*models.ClassDetail{"class-1": class}}
	svc := NewEnrollmentService(repo, students, classes, allowAllValidator{}, defaultEnrollmentConfig(), fixedNow, nil)

	_, err := svc.Cancel(context.Background(), "user-1", "class-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCancelExpired.Code))
}

func TestCancelAllowedWithinGracePeriod(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollments: map[string]models.Enrollment{
			"enroll-1": {ID: "enroll-1", StudentID: "student-1", ClassID: "class-1", Status: models.EnrollmentStatusRegistered},
		},
		byPair: map[string]string{pairKey("student-1", "class-1"): "enroll-1"},
	}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"user-1": {Student: models.Student{ID: "student-1", UserID: "user-1"}},
	}}
	class := openClass()
	class.Status = models.ClassStatusInProgress
	class.StartDate = fixedNow().AddDate(0, 0, -13)
	classes := &mockClassReader{classes: map[string]*models.ClassDetail{"class-1": class}}
	svc := NewEnrollmentService(repo, students, classes, allowAllValidator{}, defaultEnrollmentConfig(), fixedNow, nil)

	detail, err := svc.Cancel(context.Background(), "user-1", "class-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCancelled, detail.Status)
}

func TestCancelBlockedOnCompletedClass(t *testing.T) {
	repo := &mockEnrollmentRepo{
		enrollments: map[string]models.Enrollment{
			"enroll-1": {ID: "enroll-1", StudentID: "student-1", ClassID: "class-1", Status: models.EnrollmentStatusRegistered},
		},
		byPair: map[string]string{pairKey("student-1", "class-1"): "enroll-1"},
	}
	students := &mockStudentReader{students: map[string]*models.StudentDetail{
		"user-1": {Student: models.Student{ID: "student-1", UserID: "user-1"}},
	}}
	class := openClass()
	class.Status = models.ClassStatusCompleted
	classes := &mockClassReader{classes: map[string]*models.ClassDetail{"class-1": class}}
	svc := NewEnrollmentService(repo, students, classes, allowAllValidator{}, defaultEnrollmentConfig(), fixedNow, nil)

	_, err := svc.Cancel(context.Background(), "user-1", "class-1")
	assert.True(t, appErrors.HasCode(err, appErrors.ErrCancelNotAllowed.Code))
}

func TestDepartmentConflictsReport(t *testing.T) {
	svc, repo := newEnrollmentFixture(t)
	repo.conflicts = []models.DepartmentConflict{
		{SubjectID: "student-9", SubjectName: "Nguyễn Văn A", CourseName: "Triết học"},
	}

	report, err := svc.DepartmentConflicts(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.StudentConflicts, 1)
	assert.Empty(t, report.TeacherConflicts)
}
