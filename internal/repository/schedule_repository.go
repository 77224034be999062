package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/minhlq/uni-registry-api/internal/models"
)

// ScheduleRepository handles reads of weekly schedule blocks and timetables.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListByClass returns the schedule blocks of one class.
func (r *ScheduleRepository) ListByClass(ctx context.Context, classID string) ([]models.Schedule, error) {
	const query = `SELECT id, class_id, day_of_week, start_time, end_time, room
        FROM schedules WHERE class_id = $1 ORDER BY day_of_week, start_time`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, classID); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return schedules, nil
}

// ListByTeacherAndPeriod returns the schedule blocks of all classes the
// teacher already holds in the given term, excluding the class being assigned
// so re-assignment to the same class never conflicts with itself.
func (r *ScheduleRepository) ListByTeacherAndPeriod(ctx context.Context, teacherID string, period models.AcademicPeriod, excludeClassID string) ([]models.TeacherScheduleRow, error) {
	const query = `SELECT s.id, s.class_id, s.day_of_week, s.start_time, s.end_time, s.room,
        co.name AS course_name, c.semester, c.academic_year
        FROM schedules s
        JOIN classes c ON c.id = s.class_id
        JOIN courses co ON co.id = c.course_id
        WHERE c.teacher_id = $1 AND c.semester = $2 AND c.academic_year = $3 AND c.id <> $4`
	var rows []models.TeacherScheduleRow
	err := r.db.SelectContext(ctx, &rows, query, teacherID, period.Semester, period.AcademicYear, excludeClassID)
	if err != nil {
		return nil, fmt.Errorf("list teacher schedules: %w", err)
	}
	return rows, nil
}

// StudentTimetable returns the weekly sessions of a student's REGISTERED
// enrollments, optionally scoped to one term.
func (r *ScheduleRepository) StudentTimetable(ctx context.Context, studentID string, period *models.AcademicPeriod) ([]models.TimetableEntry, error) {
	query := `SELECT c.id AS class_id, co.code AS course_code, co.name AS course_name, co.credits,
        s.day_of_week, s.start_time, s.end_time, s.room, c.semester, c.academic_year
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        JOIN courses co ON co.id = c.course_id
        JOIN schedules s ON s.class_id = c.id
        WHERE e.student_id = $1 AND e.status = $2`
	args := []interface{}{studentID, models.EnrollmentStatusRegistered}
	if period != nil {
		query += " AND c.semester = $3 AND c.academic_year = $4"
		args = append(args, period.Semester, period.AcademicYear)
	}
	query += " ORDER BY s.day_of_week, s.start_time"

	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("student timetable: %w", err)
	}
	return entries, nil
}

// TeacherTimetable returns the weekly sessions of a teacher's classes,
// optionally scoped to one term.
func (r *ScheduleRepository) TeacherTimetable(ctx context.Context, teacherID string, period *models.AcademicPeriod) ([]models.TimetableEntry, error) {
	query := `SELECT c.id AS class_id, co.code AS course_code, co.name AS course_name, co.credits,
        s.day_of_week, s.start_time, s.end_time, s.room, c.semester, c.academic_year
        FROM classes c
        JOIN courses co ON co.id = c.course_id
        JOIN schedules s ON s.class_id = c.id
        WHERE c.teacher_id = $1`
	args := []interface{}{teacherID}
	if period != nil {
		query += " AND c.semester = $2 AND c.academic_year = $3"
		args = append(args, period.Semester, period.AcademicYear)
	}
	query += " ORDER BY s.day_of_week, s.start_time"

	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("teacher timetable: %w", err)
	}
	return entries, nil
}
