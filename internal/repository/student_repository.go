package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/minhlq/uni-registry-api/internal/models"
)

// StudentRepository handles reads of student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentDetailSelect = `SELECT s.id, s.user_id, s.code, s.major, s.department_id, s.enrolled_at,
        u.full_name, u.email, d.name AS department_name
        FROM students s
        JOIN users u ON u.id = s.user_id
        LEFT JOIN departments d ON d.id = s.department_id`

// FindByID returns a student with user and department info.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, studentDetailSelect+" WHERE s.id = $1", id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID returns the student profile behind a user account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	var student models.StudentDetail
	if err := r.db.GetContext(ctx, &student, studentDetailSelect+" WHERE s.user_id = $1", userID); err != nil {
		return nil, err
	}
	return &student, nil
}
