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

// ClassRepository handles persistence of classes and their schedules.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classDetailSelect = `SELECT c.id, c.course_id, c.teacher_id, c.semester, c.academic_year,
        c.max_capacity, c.current_enrollment, c.status, c.start_date, c.end_date, c.created_at, c.updated_at,
        co.code AS course_code, co.name AS course_name, co.credits,
        co.department_id, d.name AS department_name, u.full_name AS teacher_name
        FROM classes c
        JOIN courses co ON co.id = c.course_id
        LEFT JOIN departments d ON d.id = co.department_id
        LEFT JOIN teachers t ON t.id = c.teacher_id
        LEFT JOIN users u ON u.id = t.user_id`

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, course_id, teacher_id, semester, academic_year,
        max_capacity, current_enrollment, status, start_date, end_date, created_at, updated_at
        FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindDetailByID returns a class with course, department and teacher info.
func (r *ClassRepository) FindDetailByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, classDetailSelect+" WHERE c.id = $1", id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns classes filtered by the provided criteria.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("co.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("c.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("c.semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("c.academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"start_date":  "c.start_date",
		"course_name": "co.name",
		"created_at":  "c.created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "c.start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d", classDetailSelect, clause, orderBy, order, size, offset)
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM classes c JOIN courses co ON co.id = c.course_id` + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// ListOpenForStudent returns OPEN classes in the given period the student is
// not currently registered in, with seats still free.
func (r *ClassRepository) ListOpenForStudent(ctx context.Context, studentID string, period models.AcademicPeriod) ([]models.ClassDetail, error) {
	query := classDetailSelect + ` WHERE c.status = $1 AND c.semester = $2 AND c.academic_year = $3
        AND c.current_enrollment < c.max_capacity
        AND NOT EXISTS (
            SELECT 1 FROM enrollments e
            WHERE e.class_id = c.id AND e.student_id = $4 AND e.status = $5
        )
        ORDER BY co.name ASC`
	var classes []models.ClassDetail
	err := r.db.SelectContext(ctx, &classes, query,
		models.ClassStatusOpen, period.Semester, period.AcademicYear, studentID, models.EnrollmentStatusRegistered)
	if err != nil {
		return nil, fmt.Errorf("list open classes: %w", err)
	}
	return classes, nil
}

// Create inserts a class and its schedule blocks in one transaction.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class, schedules []models.Schedule) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class creation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertClass = `INSERT INTO classes (id, course_id, teacher_id, semester, academic_year,
        max_capacity, current_enrollment, status, start_date, end_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, $11)`
	_, err = tx.ExecContext(ctx, insertClass, class.ID, class.CourseID, class.TeacherID,
		class.Semester, class.AcademicYear, class.MaxCapacity, class.Status,
		class.StartDate, class.EndDate, class.CreatedAt, class.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create class: %w", err)
	}

	const insertSchedule = `INSERT INTO schedules (id, class_id, day_of_week, start_time, end_time, room)
        VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range schedules {
		if schedules[i].ID == "" {
			schedules[i].ID = uuid.NewString()
		}
		schedules[i].ClassID = class.ID
		_, err = tx.ExecContext(ctx, insertSchedule, schedules[i].ID, schedules[i].ClassID,
			schedules[i].DayOfWeek, schedules[i].StartTime, schedules[i].EndTime, schedules[i].Room)
		if err != nil {
			return fmt.Errorf("create schedule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit class creation: %w", err)
	}
	return nil
}

// UpdateStatus sets a class's lifecycle status.
func (r *ClassRepository) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) error {
	const query = `UPDATE classes SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update class status: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("update class status: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("update class status: no rows affected")
	}
	return nil
}

// AssignTeacher sets or replaces the teacher on a class.
func (r *ClassRepository) AssignTeacher(ctx context.Context, id, teacherID string) error {
	const query = `UPDATE classes SET teacher_id = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, teacherID)
	if err != nil {
		return fmt.Errorf("assign teacher: %w", err)
	}
	if affected, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("assign teacher: %w", err)
	} else if affected == 0 {
		return fmt.Errorf("assign teacher: no rows affected")
	}
	return nil
}
