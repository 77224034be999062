package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/minhlq/uni-registry-api/internal/models"
)

// TeacherRepository handles reads of teacher profiles.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs the repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

const teacherDetailSelect = `SELECT t.id, t.user_id, t.code, t.department_id, t.hired_at,
        u.full_name, u.email, d.name AS department_name
        FROM teachers t
        JOIN users u ON u.id = t.user_id
        LEFT JOIN departments d ON d.id = t.department_id`

// FindByID returns a teacher with user and department info.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	var teacher models.TeacherDetail
	if err := r.db.GetContext(ctx, &teacher, teacherDetailSelect+" WHERE t.id = $1", id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUserID returns the teacher profile behind a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error) {
	var teacher models.TeacherDetail
	if err := r.db.GetContext(ctx, &teacher, teacherDetailSelect+" WHERE t.user_id = $1", userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}
