package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/skillforge/arena-api/internal/models"
)

type countingProblemRepo struct {
	problem models.Problem
	calls   int
}

func (c *countingProblemRepo) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	c.calls++
	if c.problem.ID != id {
		return models.Problem{}, gorm.ErrRecordNotFound
	}
	return c.problem, nil
}

func (c *countingProblemRepo) Create(ctx context.Context, problem *models.Problem) error {
	return nil
}

func newTestCache(t *testing.T) *redis.Client {
	t.Helper()
	server := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: server.Addr()})
}

func TestProblemProviderCachesReads(t *testing.T) {
	repo := &countingProblemRepo{problem: models.Problem{ID: 1, Title: "Reduce churn", RewardPoints: 500, Status: models.ProblemStatusOpen}}
	provider := NewProblemProvider(repo, newTestCache(t), time.Minute, zerolog.Nop())

	first, err := provider.GetProblem(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Reduce churn", first.Title)

	second, err := provider.GetProblem(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.calls, "second read must come from cache")
}

func TestProblemProviderPropagatesNotFound(t *testing.T) {
	repo := &countingProblemRepo{problem: models.Problem{ID: 1}}
	provider := NewProblemProvider(repo, newTestCache(t), time.Minute, zerolog.Nop())

	_, err := provider.GetProblem(context.Background(), 2)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProblemProviderWorksWithoutCache(t *testing.T) {
	repo := &countingProblemRepo{problem: models.Problem{ID: 1, Title: "Reduce churn"}}
	provider := NewProblemProvider(repo, nil, time.Minute, zerolog.Nop())

	problem, err := provider.GetProblem(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Reduce churn", problem.Title)
	require.Equal(t, 1, repo.calls)
}
