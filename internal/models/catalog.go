package models

import "time"

// Department is an academic department owning courses, students and teachers.
type Department struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Course is a catalogue entry offered as one or more classes per term.
type Course struct {
	ID           string  `db:"id" json:"id"`
	Code         string  `db:"code" json:"code"`
	Name         string  `db:"name" json:"name"`
	Credits      int     `db:"credits" json:"credits"`
	Description  *string `db:"description" json:"description,omitempty"`
	DepartmentID *string `db:"department_id" json:"department_id,omitempty"`
}

// CourseDetail enriches Course with its department name.
type CourseDetail struct {
	Course
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// Student is the academic profile linked to a user account.
type Student struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Code         string     `db:"code" json:"code"`
	Major        *string    `db:"major" json:"major,omitempty"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	EnrolledAt   *time.Time `db:"enrolled_at" json:"enrolled_at,omitempty"`
}

// StudentDetail enriches Student with user and department info.
type StudentDetail struct {
	Student
	FullName       string  `db:"full_name" json:"full_name"`
	Email          string  `db:"email" json:"email"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// Teacher is the teaching profile linked to a user account.
type Teacher struct {
	ID           string     `db:"id" json:"id"`
	UserID       string     `db:"user_id" json:"user_id"`
	Code         string     `db:"code" json:"code"`
	DepartmentID *string    `db:"department_id" json:"department_id,omitempty"`
	HiredAt      *time.Time `db:"hired_at" json:"hired_at,omitempty"`
}

// TeacherDetail enriches Teacher with user and department info.
type TeacherDetail struct {
	Teacher
	FullName       string  `db:"full_name" json:"full_name"`
	Email          string  `db:"email" json:"email"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}
