package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/minhlq/uni-registry-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
//
// The mutating operations run the enrollment transition and the class seat
// counter update in one transaction, with guards re-checked by the database
// at commit time. Concurrent requests racing for the last seat therefore
// resolve to exactly one success.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// seat counter statements shared by the transactional operations. The
// increment only matches while a seat is free and the class is open; the
// decrement floors at zero rather than failing on a historical under-count.
const (
	incrementSeatsQuery = `UPDATE classes
        SET current_enrollment = current_enrollment + 1, updated_at = NOW()
        WHERE id = $1 AND current_enrollment < max_capacity AND status = $2`
	decrementSeatsQuery = `UPDATE classes
        SET current_enrollment = GREATEST(current_enrollment - 1, 0), updated_at = NOW()
        WHERE id = $1`
)

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, status, enrollment_date, cancellation_date, score, grade
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindByStudentAndClass returns the single enrollment row for a pair, in any
// status. sql.ErrNoRows is returned when the student never enrolled.
func (r *EnrollmentRepository) FindByStudentAndClass(ctx context.Context, studentID, classID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, class_id, status, enrollment_date, cancellation_date, score, grade
        FROM enrollments WHERE student_id = $1 AND class_id = $2`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, classID); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student and class context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.class_id, e.status, e.enrollment_date, e.cancellation_date, e.score, e.grade,
        s.code AS student_code, u.full_name AS student_name,
        co.code AS course_code, co.name AS course_name, c.semester, c.academic_year
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN users u ON u.id = s.user_id
JOIN classes c ON c.id = e.class_id
JOIN courses co ON co.id = c.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("e.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrollment_date": "e.enrollment_date",
		"student_name":    "u.full_name",
		"course_name":     "co.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.enrollment_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.class_id, e.status, e.enrollment_date, e.cancellation_date, e.score, e.grade,
        s.code AS student_code, u.full_name AS student_name,
        co.code AS course_code, co.name AS course_name, c.semester, c.academic_year
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// CountRegistered returns the number of REGISTERED enrollments on a class.
func (r *EnrollmentRepository) CountRegistered(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1 AND status = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID, models.EnrollmentStatusRegistered); err != nil {
		return 0, fmt.Errorf("count registered enrollments: %w", err)
	}
	return count, nil
}

// CreateRegistered inserts a new REGISTERED enrollment and claims a seat in
// one transaction. Returns ErrSeatUnavailable when the class filled up (or
// left OPEN) between the eligibility check and commit, ErrEnrollmentExists
// when a row for the pair already exists.
func (r *EnrollmentRepository) CreateRegistered(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrollmentDate.IsZero() {
		enrollment.EnrollmentDate = time.Now().UTC()
	}
	enrollment.Status = models.EnrollmentStatusRegistered

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := claimSeat(ctx, tx, enrollment.ClassID); err != nil {
		return err
	}

	const insert = `INSERT INTO enrollments (id, student_id, class_id, status, enrollment_date)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (student_id, class_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, insert, enrollment.ID, enrollment.StudentID, enrollment.ClassID, enrollment.Status, enrollment.EnrollmentDate)
	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	} else if affected == 0 {
		return ErrEnrollmentExists
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}
	return nil
}

// Reactivate flips a CANCELLED enrollment back to REGISTERED and claims a
// seat in one transaction. The enrollment date is reset and the cancellation
// date cleared. Returns ErrNotCancelled when the row changed state
// concurrently, ErrSeatUnavailable when no seat could be claimed.
func (r *EnrollmentRepository) Reactivate(ctx context.Context, enrollmentID, classID string, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin re-enrollment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := claimSeat(ctx, tx, classID); err != nil {
		return err
	}

	const update = `UPDATE enrollments
        SET status = $2, enrollment_date = $3, cancellation_date = NULL
        WHERE id = $1 AND status = $4`
	res, err := tx.ExecContext(ctx, update, enrollmentID, models.EnrollmentStatusRegistered, at, models.EnrollmentStatusCancelled)
	if err != nil {
		return fmt.Errorf("reactivate enrollment: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("reactivate enrollment: %w", err)
	} else if affected == 0 {
		return ErrNotCancelled
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit re-enrollment: %w", err)
	}
	return nil
}

// Cancel flips a REGISTERED, ungraded enrollment to CANCELLED and releases
// its seat in one transaction. Returns ErrNotRegistered when the row was not
// in a cancellable state.
func (r *EnrollmentRepository) Cancel(ctx context.Context, enrollmentID, classID string, at time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cancellation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const update = `UPDATE enrollments
        SET status = $2, cancellation_date = $3
        WHERE id = $1 AND status = $4 AND score IS NULL AND grade IS NULL`
	res, err := tx.ExecContext(ctx, update, enrollmentID, models.EnrollmentStatusCancelled, at, models.EnrollmentStatusRegistered)
	if err != nil {
		return fmt.Errorf("cancel enrollment: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("cancel enrollment: %w", err)
	} else if affected == 0 {
		return ErrNotRegistered
	}

	if _, err := tx.ExecContext(ctx, decrementSeatsQuery, classID); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cancellation: %w", err)
	}
	return nil
}

// Finalize records score, grade and the terminal status in one statement,
// guarded on the row still being REGISTERED. The seat counter is not touched:
// a graded seat stays counted for the term.
func (r *EnrollmentRepository) Finalize(ctx context.Context, enrollmentID string, score float64, grade models.LetterGrade, status models.EnrollmentStatus) error {
	const update = `UPDATE enrollments
        SET score = $2, grade = $3, status = $4
        WHERE id = $1 AND status = $5`
	res, err := r.db.ExecContext(ctx, update, enrollmentID, score, grade, status, models.EnrollmentStatusRegistered)
	if err != nil {
		return fmt.Errorf("finalize grade: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("finalize grade: %w", err)
	} else if affected == 0 {
		return ErrNotRegistered
	}
	return nil
}

// StudentDepartmentConflicts lists registered enrollments whose course
// belongs to a different department than the student.
func (r *EnrollmentRepository) StudentDepartmentConflicts(ctx context.Context) ([]models.DepartmentConflict, error) {
	const query = `SELECT s.id AS subject_id, u.full_name AS subject_name,
        sd.name AS subject_department, co.name AS course_name, cd.name AS course_department
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN users u ON u.id = s.user_id
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        LEFT JOIN departments sd ON sd.id = s.department_id
        LEFT JOIN departments cd ON cd.id = co.department_id
        WHERE e.status = $1 AND s.department_id IS DISTINCT FROM co.department_id`
	var conflicts []models.DepartmentConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, models.EnrollmentStatusRegistered); err != nil {
		return nil, fmt.Errorf("list student department conflicts: %w", err)
	}
	return conflicts, nil
}

// TeacherDepartmentConflicts lists class assignments whose course belongs to
// a different department than the teacher.
func (r *EnrollmentRepository) TeacherDepartmentConflicts(ctx context.Context) ([]models.DepartmentConflict, error) {
	const query = `SELECT t.id AS subject_id, u.full_name AS subject_name,
        td.name AS subject_department, co.name AS course_name, cd.name AS course_department
        FROM classes c
        JOIN teachers t ON t.id = c.teacher_id
        JOIN users u ON u.id = t.user_id
        JOIN courses co ON co.id = c.course_id
        LEFT JOIN departments td ON td.id = t.department_id
        LEFT JOIN departments cd ON cd.id = co.department_id
        WHERE t.department_id IS DISTINCT FROM co.department_id`
	var conflicts []models.DepartmentConflict
	if err := r.db.SelectContext(ctx, &conflicts, query); err != nil {
		return nil, fmt.Errorf("list teacher department conflicts: %w", err)
	}
	return conflicts, nil
}

func claimSeat(ctx context.Context, tx *sqlx.Tx, classID string) error {
	res, err := tx.ExecContext(ctx, incrementSeatsQuery, classID, models.ClassStatusOpen)
	if err != nil {
		return fmt.Errorf("claim seat: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim seat: %w", err)
	}
	if affected == 0 {
		return ErrSeatUnavailable
	}
	return nil
}
