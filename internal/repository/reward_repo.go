package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/skillforge/arena-api/internal/models"
)

// RewardRepository is the ledger receiving point credits for approved
// solutions.
type RewardRepository interface {
	Credit(ctx context.Context, entry *models.RewardEntry) error
	TotalForUser(ctx context.Context, userID uint) (int, error)
}

// NewRewardRepository constructs a reward ledger repository.
func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

type rewardRepository struct {
	db *gorm.DB
}

// Credit records a point grant. The unique index on solution_id makes the
// operation idempotent: replaying a credit for the same solution is a no-op.
func (r *rewardRepository) Credit(ctx context.Context, entry *models.RewardEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func (r *rewardRepository) TotalForUser(ctx context.Context, userID uint) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.RewardEntry{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return int(total), err
}
