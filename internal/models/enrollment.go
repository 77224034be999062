package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
//
// REGISTERED and CANCELLED may alternate any number of times before grading.
// COMPLETED and FAILED are terminal: they are only ever set by grade
// finalization and admit no further transitions.
type EnrollmentStatus string

const (
	EnrollmentStatusRegistered EnrollmentStatus = "REGISTERED"
	EnrollmentStatusCancelled  EnrollmentStatus = "CANCELLED"
	EnrollmentStatusCompleted  EnrollmentStatus = "COMPLETED"
	EnrollmentStatusFailed     EnrollmentStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentStatusCompleted || s == EnrollmentStatusFailed
}

// LetterGrade is the letter outcome derived from a numeric score.
type LetterGrade string

const (
	GradeA LetterGrade = "A"
	GradeB LetterGrade = "B"
	GradeC LetterGrade = "C"
	GradeD LetterGrade = "D"
	GradeF LetterGrade = "F"
)

// Enrollment links one student to one class. At most one row exists per
// (student, class) pair; re-registration reuses the row.
type Enrollment struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	ClassID          string           `db:"class_id" json:"class_id"`
	Status           EnrollmentStatus `db:"status" json:"status"`
	EnrollmentDate   time.Time        `db:"enrollment_date" json:"enrollment_date"`
	CancellationDate *time.Time       `db:"cancellation_date" json:"cancellation_date,omitempty"`
	Score            *float64         `db:"score" json:"score,omitempty"`
	Grade            *LetterGrade     `db:"grade" json:"grade,omitempty"`
}

// Graded reports whether a score or grade has been recorded.
func (e *Enrollment) Graded() bool {
	return e.Score != nil || e.Grade != nil
}

// EnrollmentDetail enriches Enrollment with student and class info.
type EnrollmentDetail struct {
	Enrollment
	StudentCode  string   `db:"student_code" json:"student_code"`
	StudentName  string   `db:"student_name" json:"student_name"`
	CourseCode   string   `db:"course_code" json:"course_code"`
	CourseName   string   `db:"course_name" json:"course_name"`
	Semester     Semester `db:"semester" json:"semester"`
	AcademicYear string   `db:"academic_year" json:"academic_year"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	ClassID   string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// GradeResult is the outcome of grade finalization.
type GradeResult struct {
	EnrollmentID string           `json:"enrollment_id"`
	Score        float64          `json:"score"`
	Grade        LetterGrade      `json:"grade"`
	Status       EnrollmentStatus `json:"status"`
}

// DepartmentConflict is one cross-department inconsistency surfaced by the
// admin audit: a student enrolled in, or a teacher assigned to, a class whose
// course belongs to another department.
type DepartmentConflict struct {
	SubjectID         string  `db:"subject_id" json:"subject_id"`
	SubjectName       string  `db:"subject_name" json:"subject_name"`
	SubjectDepartment *string `db:"subject_department" json:"subject_department,omitempty"`
	CourseName        string  `db:"course_name" json:"course_name"`
	CourseDepartment  *string `db:"course_department" json:"course_department,omitempty"`
}
