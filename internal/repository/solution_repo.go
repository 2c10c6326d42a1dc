package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skillforge/arena-api/internal/models"
)

// ErrVersionConflict indicates a versioned update lost the race against a
// concurrent writer. The caller must re-read and reapply its mutation.
var ErrVersionConflict = errors.New("solution version conflict")

// SolutionRepository exposes persistence helpers for solutions.
//
// Create relies on the composite unique index on (submitter_id, problem_id)
// and reports gorm.ErrDuplicatedKey when a second submission races past the
// application-level duplicate check. UpdateVersioned is a compare-and-swap on
// the Version column.
type SolutionRepository interface {
	Create(ctx context.Context, solution *models.Solution) error
	GetByID(ctx context.Context, id uint) (models.Solution, error)
	GetBySubmitterAndProblem(ctx context.Context, submitterID, problemID uint) (models.Solution, error)
	ListBySubmitter(ctx context.Context, submitterID uint) ([]models.Solution, error)
	ListByProblem(ctx context.Context, problemID uint) ([]models.Solution, error)
	UpdateVersioned(ctx context.Context, solution *models.Solution) error
}

// NewSolutionRepository constructs a solution repository.
func NewSolutionRepository(db *gorm.DB) SolutionRepository {
	return &solutionRepository{db: db}
}

type solutionRepository struct {
	db *gorm.DB
}

func (r *solutionRepository) Create(ctx context.Context, solution *models.Solution) error {
	return r.db.WithContext(ctx).Create(solution).Error
}

func (r *solutionRepository) GetByID(ctx context.Context, id uint) (models.Solution, error) {
	var solution models.Solution
	err := r.db.WithContext(ctx).
		Preload("Problem").
		First(&solution, id).Error
	if err != nil {
		return models.Solution{}, err
	}
	return solution, nil
}

func (r *solutionRepository) GetBySubmitterAndProblem(ctx context.Context, submitterID, problemID uint) (models.Solution, error) {
	var solution models.Solution
	err := r.db.WithContext(ctx).
		Where("submitter_id = ? AND problem_id = ?", submitterID, problemID).
		First(&solution).Error
	if err != nil {
		return models.Solution{}, err
	}
	return solution, nil
}

func (r *solutionRepository) ListBySubmitter(ctx context.Context, submitterID uint) ([]models.Solution, error) {
	var solutions []models.Solution
	err := r.db.WithContext(ctx).
		Preload("Problem").
		Where("submitter_id = ?", submitterID).
		Order("submitted_at DESC").
		Find(&solutions).Error
	return solutions, err
}

func (r *solutionRepository) ListByProblem(ctx context.Context, problemID uint) ([]models.Solution, error) {
	var solutions []models.Solution
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("final_score DESC").
		Order("submitted_at ASC").
		Find(&solutions).Error
	return solutions, err
}

// UpdateVersioned persists the solution only when its Version still matches
// the version it was read at, then bumps the version. Zero affected rows
// means a concurrent writer won; the stale copy must not overwrite it.
func (r *solutionRepository) UpdateVersioned(ctx context.Context, solution *models.Solution) error {
	readVersion := solution.Version
	solution.Version = readVersion + 1

	result := r.db.WithContext(ctx).
		Model(&models.Solution{}).
		Where("id = ? AND version = ?", solution.ID, readVersion).
		Select("ai_score", "ai_feedback", "ai_raw", "manual_score", "manual_note",
			"final_score", "reward_granted", "status", "evaluated_at", "version").
		Updates(solution)
	if result.Error != nil {
		solution.Version = readVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		solution.Version = readVersion
		return ErrVersionConflict
	}
	return nil
}
