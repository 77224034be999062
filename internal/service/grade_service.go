package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/minhlq/uni-registry-api/internal/models"
	"github.com/minhlq/uni-registry-api/internal/repository"
	appErrors "github.com/minhlq/uni-registry-api/pkg/errors"
)

type gradeEnrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	Finalize(ctx context.Context, enrollmentID string, score float64, grade models.LetterGrade, status models.EnrollmentStatus) error
}

// FinalizeGradeRequest holds payload for grade finalization.
type FinalizeGradeRequest struct {
	EnrollmentID string  `json:"enrollment_id" validate:"required"`
	Score        float64 `json:"score"`
}

// GradeService derives letter grades from numeric scores and commits the
// terminal enrollment status in the same step.
type GradeService struct {
	repo      gradeEnrollmentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs the grade service.
func NewGradeService(repo gradeEnrollmentRepository, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{repo: repo, validator: validate, logger: logger}
}

// GradeForScore maps a numeric score on the 0-10 scale to its letter grade.
// Thresholds are inclusive lower bounds.
func GradeForScore(score float64) models.LetterGrade {
	switch {
	case score >= 8.5:
		return models.GradeA
	case score >= 7.0:
		return models.GradeB
	case score >= 5.5:
		return models.GradeC
	case score >= 4.0:
		return models.GradeD
	default:
		return models.GradeF
	}
}

// StatusForGrade maps a letter grade to the terminal enrollment status.
func StatusForGrade(grade models.LetterGrade) models.EnrollmentStatus {
	if grade == models.GradeF {
		return models.EnrollmentStatusFailed
	}
	return models.EnrollmentStatusCompleted
}

// Finalize records the score, derived grade and terminal status on a
// REGISTERED enrollment. Re-grading is not supported: a finalized enrollment
// rejects any further attempt.
func (s *GradeService) Finalize(ctx context.Context, req FinalizeGradeRequest) (*models.GradeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if req.Score < 0 || req.Score > 10 {
		return nil, appErrors.Clone(appErrors.ErrInvalidScore, "")
	}

	enrollment, err := s.repo.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrEnrollmentNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusRegistered {
		return nil, appErrors.WithDetails(appErrors.ErrConflict, map[string]interface{}{
			"status": enrollment.Status,
		})
	}

	grade := GradeForScore(req.Score)
	status := StatusForGrade(grade)
	if err := s.repo.Finalize(ctx, req.EnrollmentID, req.Score, grade, status); err != nil {
		if errors.Is(err, repository.ErrNotRegistered) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment already finalized")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to finalize grade")
	}
	s.logger.Info("grade finalized",
		zap.String("enrollment_id", req.EnrollmentID),
		zap.Float64("score", req.Score),
		zap.String("grade", string(grade)))
	return &models.GradeResult{
		EnrollmentID: req.EnrollmentID,
		Score:        req.Score,
		Grade:        grade,
		Status:       status,
	}, nil
}
