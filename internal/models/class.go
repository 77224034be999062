package models

import "time"

// Semester identifies one of the fixed terms within an academic year.
type Semester string

// Valid semesters. The Vietnamese labels are persisted as-is; existing data
// and clients use them verbatim.
const (
	SemesterFirst  Semester = "Học kỳ 1"
	SemesterSecond Semester = "Học kỳ 2"
	SemesterSummer Semester = "Học kỳ hè"
)

// ValidSemester reports whether s is one of the known terms.
func ValidSemester(s Semester) bool {
	switch s {
	case SemesterFirst, SemesterSecond, SemesterSummer:
		return true
	}
	return false
}

// AcademicPeriod identifies a term as (semester, academic year).
type AcademicPeriod struct {
	Semester     Semester `json:"semester"`
	AcademicYear string   `json:"academic_year"`
}

// ClassStatus is the lifecycle state of a class offering.
type ClassStatus string

const (
	ClassStatusOpen       ClassStatus = "OPEN"
	ClassStatusInProgress ClassStatus = "IN_PROGRESS"
	ClassStatusCompleted  ClassStatus = "COMPLETED"
)

// Class is one scheduled offering of a course in a term.
//
// CurrentEnrollment always equals the number of REGISTERED enrollments on the
// class. It is maintained incrementally: every enrollment transition mutates
// it inside the same database transaction.
type Class struct {
	ID                string      `db:"id" json:"id"`
	CourseID          string      `db:"course_id" json:"course_id"`
	TeacherID         *string     `db:"teacher_id" json:"teacher_id,omitempty"`
	Semester          Semester    `db:"semester" json:"semester"`
	AcademicYear      string      `db:"academic_year" json:"academic_year"`
	MaxCapacity       int         `db:"max_capacity" json:"max_capacity"`
	CurrentEnrollment int         `db:"current_enrollment" json:"current_enrollment"`
	Status            ClassStatus `db:"status" json:"status"`
	StartDate         time.Time   `db:"start_date" json:"start_date"`
	EndDate           time.Time   `db:"end_date" json:"end_date"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// Period returns the class's academic period.
func (c *Class) Period() AcademicPeriod {
	return AcademicPeriod{Semester: c.Semester, AcademicYear: c.AcademicYear}
}

// SeatsAvailable reports whether at least one seat is free.
func (c *Class) SeatsAvailable() bool {
	return c.CurrentEnrollment < c.MaxCapacity
}

// ClassDetail extends Class with course and department info for responses.
type ClassDetail struct {
	Class
	CourseCode     string     `db:"course_code" json:"course_code"`
	CourseName     string     `db:"course_name" json:"course_name"`
	Credits        int        `db:"credits" json:"credits"`
	DepartmentID   *string    `db:"department_id" json:"department_id,omitempty"`
	DepartmentName *string    `db:"department_name" json:"department_name,omitempty"`
	TeacherName    *string    `db:"teacher_name" json:"teacher_name,omitempty"`
	Schedules      []Schedule `json:"schedules,omitempty"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	DepartmentID string
	CourseID     string
	TeacherID    string
	Semester     Semester
	AcademicYear string
	Status       ClassStatus
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// TimetableEntry is one weekly session on a student's or teacher's timetable.
type TimetableEntry struct {
	ClassID      string   `db:"class_id" json:"class_id"`
	CourseCode   string   `db:"course_code" json:"course_code"`
	CourseName   string   `db:"course_name" json:"course_name"`
	Credits      int      `db:"credits" json:"credits"`
	DayOfWeek    string   `db:"day_of_week" json:"day_of_week"`
	StartTime    string   `db:"start_time" json:"start_time"`
	EndTime      string   `db:"end_time" json:"end_time"`
	Room         *string  `db:"room" json:"room,omitempty"`
	Semester     Semester `db:"semester" json:"semester"`
	AcademicYear string   `db:"academic_year" json:"academic_year"`
}
