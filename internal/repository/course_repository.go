package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/minhlq/uni-registry-api/internal/models"
)

// CourseRepository handles reads of the course catalogue.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// FindDetailByID returns a course with its department name.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	const query = `SELECT c.id, c.code, c.name, c.credits, c.description, c.department_id,
        d.name AS department_name
        FROM courses c
        LEFT JOIN departments d ON d.id = c.department_id
        WHERE c.id = $1`
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}
